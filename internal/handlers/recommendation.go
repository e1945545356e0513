package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devpulse/devpulse-backend/internal/logger"
	"github.com/devpulse/devpulse-backend/internal/requestdata"
	"github.com/devpulse/devpulse-backend/internal/services"
	"github.com/devpulse/devpulse-backend/internal/types"
)

// SessionHeader carries the anonymous session id for unauthenticated
// interaction recording.
const SessionHeader = "X-Session-ID"

type RecommendationHandler struct {
	log        *logger.Logger
	recService services.RecommendationService
}

func NewRecommendationHandler(log *logger.Logger, recService services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		log:        log.With("handler", "RecommendationHandler"),
		recService: recService,
	}
}

func (h *RecommendationHandler) Feed(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	limit := queryInt(c, "limit", 10)
	excludeViewed := c.DefaultQuery("exclude_viewed", "true") != "false"

	items, err := h.recService.RecommendForUser(c.Request.Context(), rd.UserID, limit, excludeViewed)
	if err != nil {
		h.log.Error("Feed failed", "user_id", rd.UserID, "error", err)
		RespondError(c, http.StatusInternalServerError, "recommendations_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": items})
}

func (h *RecommendationHandler) Similar(c *gin.Context) {
	contentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
		return
	}
	limit := queryInt(c, "limit", 5)

	items, err := h.recService.RecommendSimilar(c.Request.Context(), contentID, limit)
	if err != nil {
		h.log.Error("Similar failed", "content_id", contentID, "error", err)
		RespondError(c, http.StatusInternalServerError, "recommendations_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": items})
}

func (h *RecommendationHandler) Trending(c *gin.Context) {
	limit := queryInt(c, "limit", 10)
	category := c.Query("category")

	items, err := h.recService.RecommendTrending(c.Request.Context(), category, limit)
	if err != nil {
		h.log.Error("Trending failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "recommendations_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": items})
}

func (h *RecommendationHandler) Personalized(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	limit := queryInt(c, "limit", 10)

	items, err := h.recService.RecommendPersonalized(c.Request.Context(), rd.UserID, limit)
	if err != nil {
		h.log.Error("Personalized failed", "user_id", rd.UserID, "error", err)
		RespondError(c, http.StatusInternalServerError, "recommendations_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": items})
}

type recordInteractionRequest struct {
	ContentID string                 `json:"content_id" binding:"required"`
	Type      string                 `json:"type" binding:"required"`
	Data      *types.InteractionData `json:"data"`
}

// RecordInteraction accepts authenticated users and anonymous sessions; one
// of the two identities must be present.
func (h *RecommendationHandler) RecordInteraction(c *gin.Context) {
	var req recordInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	contentID, err := uuid.Parse(req.ContentID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
		return
	}

	input := services.RecordInteractionInput{
		ContentID: contentID,
		Type:      req.Type,
		Data:      req.Data,
		SessionID: c.GetHeader(SessionHeader),
	}
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
		userID := rd.UserID
		input.UserID = &userID
	}

	if err := h.recService.RecordInteraction(c.Request.Context(), input); err != nil {
		RespondError(c, http.StatusBadRequest, "record_interaction_failed", err)
		return
	}
	RespondOK(c, gin.H{"recorded": true})
}

func queryInt(c *gin.Context, key string, defaultVal int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(defaultVal)))
	if err != nil || v <= 0 {
		return defaultVal
	}
	return v
}
