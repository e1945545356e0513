package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devpulse/devpulse-backend/internal/logger"
	"github.com/devpulse/devpulse-backend/internal/services"
)

type ContentHandler struct {
	log            *logger.Logger
	contentService services.ContentService
}

func NewContentHandler(log *logger.Logger, contentService services.ContentService) *ContentHandler {
	return &ContentHandler{
		log:            log.With("handler", "ContentHandler"),
		contentService: contentService,
	}
}

func (h *ContentHandler) ListPublished(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	items, err := h.contentService.ListPublished(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("ListPublished failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "load_content_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": items})
}

func (h *ContentHandler) GetBySlug(c *gin.Context) {
	item, err := h.contentService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.log.Error("GetBySlug failed", "slug", c.Param("slug"), "error", err)
		RespondError(c, http.StatusInternalServerError, "load_content_failed", err)
		return
	}
	if item == nil {
		RespondError(c, http.StatusNotFound, "content_not_found", nil)
		return
	}
	RespondOK(c, gin.H{"item": item})
}

func (h *ContentHandler) Publish(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
		return
	}
	if err := h.contentService.Publish(c.Request.Context(), id); err != nil {
		h.log.Error("Publish failed", "content_id", id, "error", err)
		RespondError(c, http.StatusInternalServerError, "publish_failed", err)
		return
	}
	RespondOK(c, gin.H{"published": true})
}

func (h *ContentHandler) Archive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
		return
	}
	if err := h.contentService.Archive(c.Request.Context(), id); err != nil {
		h.log.Error("Archive failed", "content_id", id, "error", err)
		RespondError(c, http.StatusInternalServerError, "archive_failed", err)
		return
	}
	RespondOK(c, gin.H{"archived": true})
}
