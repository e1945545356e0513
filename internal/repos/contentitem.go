package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devpulse/devpulse-backend/internal/logger"
	"github.com/devpulse/devpulse-backend/internal/types"
)

type ContentItemRepo interface {
	Create(ctx context.Context, tx *gorm.DB, items []*types.ContentItem) ([]*types.ContentItem, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ContentItem, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.ContentItem, error)
	SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error)
	ListPublished(ctx context.Context, tx *gorm.DB, limit int) ([]*types.ContentItem, error)
	UpdateScores(ctx context.Context, tx *gorm.DB, id uuid.UUID, importance, trend float64) error
	SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, publishedAt *time.Time) error
}

type contentItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentItemRepo(db *gorm.DB, baseLog *logger.Logger) ContentItemRepo {
	return &contentItemRepo{db: db, log: baseLog.With("repo", "ContentItemRepo")}
}

func (r *contentItemRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.ContentItem) ([]*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(items) == 0 {
		return []*types.ContentItem{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *contentItemRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ContentItem
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetBySlug returns (nil, nil) when no item carries the slug.
func (r *contentItemRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ContentItem
	err := transaction.WithContext(ctx).
		Where("slug = ?", slug).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *contentItemRepo) SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ContentItem{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListPublished returns published items most-recent-first, capped at limit.
// This is the candidate pool every recommendation mode ranks over.
func (r *contentItemRepo) ListPublished(ctx context.Context, tx *gorm.DB, limit int) ([]*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ContentItem
	if limit <= 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("status = ?", types.ContentStatusPublished).
		Order("published_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contentItemRepo) UpdateScores(ctx context.Context, tx *gorm.DB, id uuid.UUID, importance, trend float64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&types.ContentItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"importance_score": importance,
			"trend_score":      trend,
		}).Error
}

func (r *contentItemRepo) SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, publishedAt *time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil
	}

	updates := map[string]interface{}{"status": status}
	if publishedAt != nil {
		updates["published_at"] = *publishedAt
	}

	return transaction.WithContext(ctx).
		Model(&types.ContentItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}
