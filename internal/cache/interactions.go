package cache

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/devpulse/devpulse-backend/internal/types"
)

// RecentInteractions is a short-lived, bounded cache of interaction writes.
// It exists so profile building and trending aggregation see interactions
// recorded in the current window even when the persisted append failed or
// has not been read back yet. Entries carry the same IDs as the persisted
// rows, so readers can merge both sources and deduplicate by ID.
type RecentInteractions interface {
	Add(ctx context.Context, key string, interaction *types.Interaction) error
	Get(ctx context.Context, key string, since time.Time) ([]*types.Interaction, error)
	// RecentAll returns cached interactions across all keys since the given
	// time. Used by trending aggregation.
	RecentAll(ctx context.Context, since time.Time) ([]*types.Interaction, error)
	Close() error
}

// UserKey and SessionKey namespace cache entries by identity kind.
func UserKey(userID uuid.UUID) string    { return "user:" + userID.String() }
func SessionKey(sessionID string) string { return "session:" + sessionID }
