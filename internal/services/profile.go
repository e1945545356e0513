package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devpulse/devpulse-backend/internal/cache"
	"github.com/devpulse/devpulse-backend/internal/logger"
	"github.com/devpulse/devpulse-backend/internal/repos"
	"github.com/devpulse/devpulse-backend/internal/types"
)

// InteractionWeights is the canonical interaction-type weight table, used by
// both profile building and trending aggregation.
var InteractionWeights = map[string]float64{
	types.InteractionView:     1.0,
	types.InteractionLike:     3.0,
	types.InteractionShare:    5.0,
	types.InteractionBookmark: 4.0,
}

// ProfileWindow is how far back profile building looks.
const ProfileWindow = 30 * 24 * time.Hour

type ProfileService interface {
	BuildProfile(ctx context.Context, userID uuid.UUID, sessionID string) (*types.UserProfile, error)
}

type profileService struct {
	db              *gorm.DB
	log             *logger.Logger
	interactionRepo repos.InteractionRepo
	interactions    cache.RecentInteractions
}

func NewProfileService(db *gorm.DB, log *logger.Logger, interactionRepo repos.InteractionRepo, interactions cache.RecentInteractions) ProfileService {
	return &profileService{
		db:              db,
		log:             log.With("service", "ProfileService"),
		interactionRepo: interactionRepo,
		interactions:    interactions,
	}
}

// BuildProfile merges persisted and cached interactions for the identity,
// deduplicates them and folds them into an affinity profile. A user with no
// history gets an empty (all-zero) profile, never an error.
func (s *profileService) BuildProfile(ctx context.Context, userID uuid.UUID, sessionID string) (*types.UserProfile, error) {
	since := time.Now().Add(-ProfileWindow)

	var persisted []*types.Interaction
	var err error
	var cacheKey string
	switch {
	case userID != uuid.Nil:
		persisted, err = s.interactionRepo.GetByUserSince(ctx, nil, userID, since)
		cacheKey = cache.UserKey(userID)
	case sessionID != "":
		persisted, err = s.interactionRepo.GetBySessionSince(ctx, nil, sessionID, since)
		cacheKey = cache.SessionKey(sessionID)
	default:
		return types.NewUserProfile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load interaction history: %w", err)
	}

	cached, cacheErr := s.interactions.Get(ctx, cacheKey, since)
	if cacheErr != nil {
		// The persisted log alone is still a valid profile source.
		s.log.Warn("Interaction cache read failed, using persisted log only", "error", cacheErr)
	}

	merged := MergeInteractions(persisted, cached)
	return BuildProfileFromInteractions(merged), nil
}

// MergeInteractions concatenates interaction sources, dropping duplicates by
// id, or by (content_id, type, created_at) for entries without ids.
func MergeInteractions(sources ...[]*types.Interaction) []*types.Interaction {
	seenIDs := make(map[uuid.UUID]bool)
	seenComposite := make(map[string]bool)
	var out []*types.Interaction
	for _, source := range sources {
		for _, in := range source {
			if in == nil {
				continue
			}
			if in.ID != uuid.Nil {
				if seenIDs[in.ID] {
					continue
				}
				seenIDs[in.ID] = true
			} else {
				key := fmt.Sprintf("%s|%s|%d", in.ContentID, in.Type, in.CreatedAt.UnixNano())
				if seenComposite[key] {
					continue
				}
				seenComposite[key] = true
			}
			out = append(out, in)
		}
	}
	return out
}

// BuildProfileFromInteractions is the pure profile fold. An interaction with
// no category/tag snapshot contributes only to the count.
func BuildProfileFromInteractions(interactions []*types.Interaction) *types.UserProfile {
	profile := types.NewUserProfile()
	for _, in := range interactions {
		weight, ok := InteractionWeights[in.Type]
		if !ok {
			continue
		}
		profile.InteractionCount++
		if profile.LastInteraction == nil || in.CreatedAt.After(*profile.LastInteraction) {
			t := in.CreatedAt
			profile.LastInteraction = &t
		}

		data := in.Data.Data()
		if data.Category != "" {
			profile.Categories[data.Category] += weight
		}
		for _, tag := range data.Tags {
			if tag != "" {
				profile.Tags[tag] += weight
			}
		}
	}
	return profile
}
