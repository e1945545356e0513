package types

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is derived from recent interactions at query time and never
// persisted. Absent categories/tags mean zero affinity.
type UserProfile struct {
	Categories       map[string]float64 `json:"categories"`
	Tags             map[string]float64 `json:"tags"`
	InteractionCount int                `json:"interaction_count"`
	LastInteraction  *time.Time         `json:"last_interaction,omitempty"`
}

func NewUserProfile() *UserProfile {
	return &UserProfile{
		Categories: make(map[string]float64),
		Tags:       make(map[string]float64),
	}
}

// RecommendedItem is the ranked-list element returned by the recommendation
// endpoints. Score carries the mode-specific ranking value; Similarity is
// only set by similar-content lookups.
type RecommendedItem struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Summary     string     `json:"summary"`
	Score       float64    `json:"score"`
	Similarity  float64    `json:"similarity,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}
