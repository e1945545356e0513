package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devpulse/devpulse-backend/internal/logger"
	"github.com/devpulse/devpulse-backend/internal/repos"
	"github.com/devpulse/devpulse-backend/internal/types"
)

type ContentService interface {
	ListPublished(ctx context.Context, limit int) ([]*types.ContentItem, error)
	GetBySlug(ctx context.Context, slug string) (*types.ContentItem, error)
	Publish(ctx context.Context, id uuid.UUID) error
	Archive(ctx context.Context, id uuid.UUID) error
}

type contentService struct {
	db          *gorm.DB
	log         *logger.Logger
	contentRepo repos.ContentItemRepo
}

func NewContentService(db *gorm.DB, log *logger.Logger, contentRepo repos.ContentItemRepo) ContentService {
	return &contentService{db: db, log: log.With("service", "ContentService"), contentRepo: contentRepo}
}

func (s *contentService) ListPublished(ctx context.Context, limit int) ([]*types.ContentItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.contentRepo.ListPublished(ctx, nil, limit)
}

func (s *contentService) GetBySlug(ctx context.Context, slug string) (*types.ContentItem, error) {
	if slug == "" {
		return nil, nil
	}
	return s.contentRepo.GetBySlug(ctx, nil, slug)
}

func (s *contentService) Publish(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	if err := s.contentRepo.SetStatus(ctx, nil, id, types.ContentStatusPublished, &now); err != nil {
		return fmt.Errorf("failed to publish content: %w", err)
	}
	return nil
}

// Archive retires an item from the candidate pools. Content is never
// hard-deleted.
func (s *contentService) Archive(ctx context.Context, id uuid.UUID) error {
	if err := s.contentRepo.SetStatus(ctx, nil, id, types.ContentStatusArchived, nil); err != nil {
		return fmt.Errorf("failed to archive content: %w", err)
	}
	return nil
}
