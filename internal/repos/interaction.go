package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devpulse/devpulse-backend/internal/logger"
	"github.com/devpulse/devpulse-backend/internal/types"
)

// InteractionRepo is append-only: there are no update or delete operations.
type InteractionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, interactions []*types.Interaction) ([]*types.Interaction, error)
	GetByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.Interaction, error)
	GetBySessionSince(ctx context.Context, tx *gorm.DB, sessionID string, since time.Time) ([]*types.Interaction, error)
	GetSince(ctx context.Context, tx *gorm.DB, since time.Time) ([]*types.Interaction, error)
	GetViewedContentIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
}

type interactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInteractionRepo(db *gorm.DB, baseLog *logger.Logger) InteractionRepo {
	return &interactionRepo{db: db, log: baseLog.With("repo", "InteractionRepo")}
}

func (r *interactionRepo) Create(ctx context.Context, tx *gorm.DB, interactions []*types.Interaction) ([]*types.Interaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(interactions) == 0 {
		return []*types.Interaction{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&interactions).Error; err != nil {
		return nil, err
	}
	return interactions, nil
}

func (r *interactionRepo) GetByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.Interaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Interaction
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *interactionRepo) GetBySessionSince(ctx context.Context, tx *gorm.DB, sessionID string, since time.Time) ([]*types.Interaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Interaction
	if sessionID == "" {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("session_id = ? AND created_at >= ?", sessionID, since).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *interactionRepo) GetSince(ctx context.Context, tx *gorm.DB, since time.Time) ([]*types.Interaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Interaction
	if err := transaction.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *interactionRepo) GetViewedContentIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uuid.UUID
	if userID == uuid.Nil {
		return ids, nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Interaction{}).
		Where("user_id = ? AND type = ?", userID, types.InteractionView).
		Distinct().
		Pluck("content_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
