package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/devpulse/devpulse-backend/internal/cache"
	"github.com/devpulse/devpulse-backend/internal/logger"
	"github.com/devpulse/devpulse-backend/internal/repos"
	"github.com/devpulse/devpulse-backend/internal/types"
)

// TrendingWindow is the short aggregation window for trending scores,
// deliberately much tighter than the 30-day profile window.
const TrendingWindow = 24 * time.Hour

// Profile-match scoring constants for the user feed.
const (
	categoryMatchWeight = 10.0
	tagMatchWeight      = 5.0
	qualityWeight       = 0.1
	recencyBonusPerDay  = 0.5
	recencyBonusDays    = 30.0

	// Items with no interactions in the trending window fall back to
	// max(0, trendingFallbackBase - days_old).
	trendingFallbackBase = 10.0

	personalizedUserShare  = 0.7
	personalizedTrendShare = 0.3
)

type RecordInteractionInput struct {
	UserID    *uuid.UUID
	SessionID string
	ContentID uuid.UUID
	Type      string
	Data      *types.InteractionData
}

type RecommendationService interface {
	RecommendForUser(ctx context.Context, userID uuid.UUID, limit int, excludeViewed bool) ([]*types.RecommendedItem, error)
	RecommendSimilar(ctx context.Context, contentID uuid.UUID, limit int) ([]*types.RecommendedItem, error)
	RecommendTrending(ctx context.Context, category string, limit int) ([]*types.RecommendedItem, error)
	RecommendPersonalized(ctx context.Context, userID uuid.UUID, limit int) ([]*types.RecommendedItem, error)
	RecordInteraction(ctx context.Context, in RecordInteractionInput) error
}

type recommendationService struct {
	db              *gorm.DB
	log             *logger.Logger
	contentRepo     repos.ContentItemRepo
	interactionRepo repos.InteractionRepo
	interactions    cache.RecentInteractions
	profileService  ProfileService
	candidatePool   int
	now             func() time.Time
}

func NewRecommendationService(
	db *gorm.DB,
	log *logger.Logger,
	contentRepo repos.ContentItemRepo,
	interactionRepo repos.InteractionRepo,
	interactions cache.RecentInteractions,
	profileService ProfileService,
	candidatePool int,
) RecommendationService {
	if candidatePool <= 0 {
		candidatePool = 100
	}
	return &recommendationService{
		db:              db,
		log:             log.With("service", "RecommendationService"),
		contentRepo:     contentRepo,
		interactionRepo: interactionRepo,
		interactions:    interactions,
		profileService:  profileService,
		candidatePool:   candidatePool,
		now:             time.Now,
	}
}

func (s *recommendationService) RecommendForUser(ctx context.Context, userID uuid.UUID, limit int, excludeViewed bool) ([]*types.RecommendedItem, error) {
	if limit <= 0 {
		return []*types.RecommendedItem{}, nil
	}

	profile, err := s.profileService.BuildProfile(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("build user profile: %w", err)
	}

	candidates, err := s.contentRepo.ListPublished(ctx, nil, s.candidatePool)
	if err != nil {
		return nil, fmt.Errorf("load candidate pool: %w", err)
	}

	if excludeViewed && userID != uuid.Nil {
		viewed, err := s.interactionRepo.GetViewedContentIDs(ctx, nil, userID)
		if err != nil {
			return nil, fmt.Errorf("load viewed content: %w", err)
		}
		viewedSet := make(map[uuid.UUID]bool, len(viewed))
		for _, id := range viewed {
			viewedSet[id] = true
		}
		// Cached interactions may not have been persisted yet.
		if recent, cacheErr := s.interactions.Get(ctx, cache.UserKey(userID), s.now().Add(-ProfileWindow)); cacheErr == nil {
			for _, in := range recent {
				if in.Type == types.InteractionView {
					viewedSet[in.ContentID] = true
				}
			}
		}
		kept := candidates[:0]
		for _, c := range candidates {
			if !viewedSet[c.ID] {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}

	ranked := make([]*types.RecommendedItem, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, s.toRecommended(c, s.profileMatchScore(c, profile)))
	}
	sortByScore(ranked)
	return truncate(ranked, limit), nil
}

// profileMatchScore combines affinity matches with quality and freshness.
// An all-zero profile degenerates to quality + recency ranking.
func (s *recommendationService) profileMatchScore(item *types.ContentItem, profile *types.UserProfile) float64 {
	meta := item.Metadata.Data()

	score := categoryMatchWeight * profile.Categories[meta.Category]
	for _, tag := range meta.Tags {
		score += tagMatchWeight * profile.Tags[tag]
	}
	score += qualityWeight * item.QualityScore

	if item.PublishedAt != nil {
		days := s.now().Sub(*item.PublishedAt).Hours() / 24
		if days >= 0 && days <= recencyBonusDays {
			score += (recencyBonusDays - days) * recencyBonusPerDay
		}
	}
	return score
}

// RecommendSimilar ranks other published items by cosine similarity to the
// target. A missing target yields an empty list, not an error.
func (s *recommendationService) RecommendSimilar(ctx context.Context, contentID uuid.UUID, limit int) ([]*types.RecommendedItem, error) {
	if limit <= 0 || contentID == uuid.Nil {
		return []*types.RecommendedItem{}, nil
	}

	targets, err := s.contentRepo.GetByIDs(ctx, nil, []uuid.UUID{contentID})
	if err != nil {
		return nil, fmt.Errorf("load target content: %w", err)
	}
	if len(targets) == 0 {
		return []*types.RecommendedItem{}, nil
	}
	targetVector := buildContentVector(targets[0])

	candidates, err := s.contentRepo.ListPublished(ctx, nil, s.candidatePool+1)
	if err != nil {
		return nil, fmt.Errorf("load candidate pool: %w", err)
	}

	ranked := make([]*types.RecommendedItem, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == contentID {
			continue
		}
		similarity := cosineSimilarity(targetVector, buildContentVector(c))
		rec := s.toRecommended(c, similarity)
		rec.Similarity = similarity
		ranked = append(ranked, rec)
	}
	sortByScore(ranked)
	return truncate(ranked, limit), nil
}

func (s *recommendationService) RecommendTrending(ctx context.Context, category string, limit int) ([]*types.RecommendedItem, error) {
	if limit <= 0 {
		return []*types.RecommendedItem{}, nil
	}
	since := s.now().Add(-TrendingWindow)

	persisted, err := s.interactionRepo.GetSince(ctx, nil, since)
	if err != nil {
		return nil, fmt.Errorf("load trending window: %w", err)
	}
	cached, cacheErr := s.interactions.RecentAll(ctx, since)
	if cacheErr != nil {
		s.log.Warn("Interaction cache read failed, trending uses persisted log only", "error", cacheErr)
	}

	// Merge deduplicates by interaction id, so an interaction present in
	// both the cache and the log counts once.
	scores := make(map[uuid.UUID]float64)
	for _, in := range MergeInteractions(persisted, cached) {
		scores[in.ContentID] += InteractionWeights[in.Type]
	}

	candidates, err := s.contentRepo.ListPublished(ctx, nil, s.candidatePool)
	if err != nil {
		return nil, fmt.Errorf("load candidate pool: %w", err)
	}

	ranked := make([]*types.RecommendedItem, 0, len(candidates))
	for _, c := range candidates {
		if category != "" && c.Metadata.Data().Category != category {
			continue
		}
		score := scores[c.ID]
		if score == 0 {
			score = s.trendingFallback(c)
		}
		ranked = append(ranked, s.toRecommended(c, score))
	}
	sortByScore(ranked)
	return truncate(ranked, limit), nil
}

// trendingFallback keeps brand-new untouched content above old untouched
// content.
func (s *recommendationService) trendingFallback(item *types.ContentItem) float64 {
	if item.PublishedAt == nil {
		return 0
	}
	days := s.now().Sub(*item.PublishedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	if days >= trendingFallbackBase {
		return 0
	}
	return trendingFallbackBase - days
}

// RecommendPersonalized blends the user feed with trending 70/30, user items
// first, deduplicated by id. Slots the floor split leaves open are backfilled
// from the remaining user-based candidates.
func (s *recommendationService) RecommendPersonalized(ctx context.Context, userID uuid.UUID, limit int) ([]*types.RecommendedItem, error) {
	if limit <= 0 {
		return []*types.RecommendedItem{}, nil
	}

	userCount := int(float64(limit) * personalizedUserShare)
	trendCount := int(float64(limit) * personalizedTrendShare)

	userBased, err := s.RecommendForUser(ctx, userID, limit, true)
	if err != nil {
		return nil, err
	}
	trending, err := s.RecommendTrending(ctx, "", trendCount)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, limit)
	out := make([]*types.RecommendedItem, 0, limit)
	appendUnseen := func(items []*types.RecommendedItem, max int) {
		for _, item := range items {
			if len(out) >= max {
				return
			}
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			out = append(out, item)
		}
	}

	appendUnseen(userBased, min(userCount, limit))
	appendUnseen(trending, min(userCount+trendCount, limit))
	appendUnseen(userBased, limit)
	return out, nil
}

// RecordInteraction is the only mutating operation in this core. The cache
// write-through and the persisted append are both best-effort: a storage
// failure is logged and swallowed because interaction logging is telemetry,
// not a transactional requirement.
func (s *recommendationService) RecordInteraction(ctx context.Context, in RecordInteractionInput) error {
	if !types.ValidInteractionType(in.Type) {
		return fmt.Errorf("invalid interaction type %q", in.Type)
	}
	if (in.UserID == nil || *in.UserID == uuid.Nil) && in.SessionID == "" {
		return fmt.Errorf("interaction requires a user id or session id")
	}
	if in.ContentID == uuid.Nil {
		return fmt.Errorf("interaction requires a content id")
	}

	data := types.InteractionData{}
	if in.Data != nil {
		data = *in.Data
	} else if items, err := s.contentRepo.GetByIDs(ctx, nil, []uuid.UUID{in.ContentID}); err == nil && len(items) > 0 {
		meta := items[0].Metadata.Data()
		data = types.InteractionData{Category: meta.Category, Tags: meta.Tags}
	}

	interaction := &types.Interaction{
		ID:        uuid.New(),
		UserID:    in.UserID,
		ContentID: in.ContentID,
		Type:      in.Type,
		CreatedAt: s.now(),
	}
	interaction.Data = datatypes.NewJSONType(data)
	if in.SessionID != "" {
		sessionID := in.SessionID
		interaction.SessionID = &sessionID
	}

	if in.UserID != nil && *in.UserID != uuid.Nil {
		if err := s.interactions.Add(ctx, cache.UserKey(*in.UserID), interaction); err != nil {
			s.log.Warn("Interaction cache write failed", "user_id", *in.UserID, "error", err)
		}
	} else {
		if err := s.interactions.Add(ctx, cache.SessionKey(in.SessionID), interaction); err != nil {
			s.log.Warn("Interaction cache write failed", "session_id", in.SessionID, "error", err)
		}
	}

	if _, err := s.interactionRepo.Create(ctx, nil, []*types.Interaction{interaction}); err != nil {
		s.log.Warn("Interaction append failed, keeping cached copy only", "content_id", in.ContentID, "error", err)
	}
	return nil
}

func (s *recommendationService) toRecommended(item *types.ContentItem, score float64) *types.RecommendedItem {
	return &types.RecommendedItem{
		ID:          item.ID,
		Title:       item.Title,
		Slug:        item.Slug,
		Summary:     item.Summary,
		Score:       score,
		PublishedAt: item.PublishedAt,
	}
}

// sortByScore is stable: equal scores keep candidate pool order, which is
// most-recent-published first.
func sortByScore(items []*types.RecommendedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

func truncate(items []*types.RecommendedItem, limit int) []*types.RecommendedItem {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
