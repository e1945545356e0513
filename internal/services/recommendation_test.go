package services

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/devpulse/devpulse-backend/internal/cache"
	"github.com/devpulse/devpulse-backend/internal/logger"
	"github.com/devpulse/devpulse-backend/internal/repos"
	"github.com/devpulse/devpulse-backend/internal/types"
)

type recTestEnv struct {
	db              *gorm.DB
	contentRepo     repos.ContentItemRepo
	interactionRepo repos.InteractionRepo
	interactions    *cache.MemoryInteractions
	profileService  ProfileService
	recService      RecommendationService
}

func newRecTestEnv(t *testing.T) *recTestEnv {
	t.Helper()

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&types.ContentItem{}, &types.Interaction{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	contentRepo := repos.NewContentItemRepo(gdb, log)
	interactionRepo := repos.NewInteractionRepo(gdb, log)
	interactions := cache.NewMemoryInteractions(time.Hour, 100)
	t.Cleanup(func() { _ = interactions.Close() })

	profileService := NewProfileService(gdb, log, interactionRepo, interactions)
	recService := NewRecommendationService(gdb, log, contentRepo, interactionRepo, interactions, profileService, 100)

	return &recTestEnv{
		db:              gdb,
		contentRepo:     contentRepo,
		interactionRepo: interactionRepo,
		interactions:    interactions,
		profileService:  profileService,
		recService:      recService,
	}
}

func (e *recTestEnv) seedItem(t *testing.T, title, category string, tags []string, daysOld float64, quality float64) *types.ContentItem {
	t.Helper()
	published := time.Now().Add(-time.Duration(daysOld * 24 * float64(time.Hour)))
	item := &types.ContentItem{
		Title:        title,
		Slug:         fmt.Sprintf("%s-%s", title, uuid.NewString()[:8]),
		Summary:      title,
		Status:       types.ContentStatusPublished,
		PublishedAt:  &published,
		QualityScore: quality,
		Metadata:     datatypes.NewJSONType(types.ContentMetadata{Category: category, Tags: tags}),
		SEO:          datatypes.NewJSONType(types.SEOData{Keywords: tags}),
	}
	if _, err := e.contentRepo.Create(context.Background(), nil, []*types.ContentItem{item}); err != nil {
		t.Fatalf("seed item %q: %v", title, err)
	}
	return item
}

func TestRecommendForUserExcludesViewed(t *testing.T) {
	env := newRecTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	viewedItem := env.seedItem(t, "viewed article", "framework", []string{"react"}, 1, 50)
	env.seedItem(t, "fresh article", "framework", []string{"react"}, 1, 50)
	env.seedItem(t, "other article", "tooling", []string{"vite"}, 2, 50)

	if _, err := env.interactionRepo.Create(ctx, nil, []*types.Interaction{{
		UserID:    &userID,
		ContentID: viewedItem.ID,
		Type:      types.InteractionView,
		Data:      datatypes.NewJSONType(types.InteractionData{Category: "framework", Tags: []string{"react"}}),
		CreatedAt: time.Now(),
	}}); err != nil {
		t.Fatalf("record view: %v", err)
	}

	got, err := env.recService.RecommendForUser(ctx, userID, 10, true)
	if err != nil {
		t.Fatalf("RecommendForUser: %v", err)
	}
	for _, item := range got {
		if item.ID == viewedItem.ID {
			t.Fatalf("viewed item %s leaked into exclude_viewed feed", item.ID)
		}
	}

	withViewed, err := env.recService.RecommendForUser(ctx, userID, 10, false)
	if err != nil {
		t.Fatalf("RecommendForUser(exclude=false): %v", err)
	}
	found := false
	for _, item := range withViewed {
		if item.ID == viewedItem.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("viewed item missing when exclude_viewed=false")
	}
}

func TestRecommendForUserNoHistory(t *testing.T) {
	env := newRecTestEnv(t)
	ctx := context.Background()

	env.seedItem(t, "good recent", "language", nil, 1, 90)
	env.seedItem(t, "weak old", "language", nil, 25, 10)

	got, err := env.recService.RecommendForUser(ctx, uuid.New(), 10, true)
	if err != nil {
		t.Fatalf("RecommendForUser with no history: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Degenerate ranking: quality + recency only.
	if got[0].Title != "good recent" {
		t.Fatalf("expected quality+recency ordering, got %q first", got[0].Title)
	}
}

func TestRecommendForUserPrefersProfileMatches(t *testing.T) {
	env := newRecTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	match := env.seedItem(t, "typescript generics guide", "language", []string{"typescript"}, 5, 10)
	env.seedItem(t, "css grid tricks", "styling", []string{"css"}, 5, 10)

	if err := env.recService.RecordInteraction(ctx, RecordInteractionInput{
		UserID:    &userID,
		ContentID: match.ID,
		Type:      types.InteractionLike,
	}); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	got, err := env.recService.RecommendForUser(ctx, userID, 10, false)
	if err != nil {
		t.Fatalf("RecommendForUser: %v", err)
	}
	if len(got) == 0 || got[0].ID != match.ID {
		t.Fatalf("expected liked-category item first, got %+v", got)
	}
}

func TestRecommendSimilar(t *testing.T) {
	env := newRecTestEnv(t)
	ctx := context.Background()

	target := env.seedItem(t, "react server components", "framework", []string{"react", "ssr"}, 1, 50)
	sibling := env.seedItem(t, "react hooks patterns", "framework", []string{"react"}, 2, 50)
	env.seedItem(t, "postgres indexing", "database", []string{"postgres"}, 2, 50)

	got, err := env.recService.RecommendSimilar(ctx, target.ID, 5)
	if err != nil {
		t.Fatalf("RecommendSimilar: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("expected similar items")
	}
	for _, item := range got {
		if item.ID == target.ID {
			t.Fatalf("target item leaked into its own similarity list")
		}
	}
	if got[0].ID != sibling.ID {
		t.Fatalf("expected sibling first, got %q", got[0].Title)
	}
	if got[0].Similarity <= 0 || got[0].Similarity > 1 {
		t.Fatalf("similarity = %v, want (0,1]", got[0].Similarity)
	}
}

func TestRecommendSimilarMissingTarget(t *testing.T) {
	env := newRecTestEnv(t)
	env.seedItem(t, "anything", "api", nil, 1, 50)

	got, err := env.recService.RecommendSimilar(context.Background(), uuid.New(), 5)
	if err != nil {
		t.Fatalf("RecommendSimilar(missing) should not error, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("missing target should yield empty list, got %d items", len(got))
	}
}

func TestRecommendTrendingEmptyLogFallback(t *testing.T) {
	env := newRecTestEnv(t)
	ctx := context.Background()

	env.seedItem(t, "three days old", "api", nil, 3, 50)
	env.seedItem(t, "one day old", "api", nil, 1, 50)
	env.seedItem(t, "ancient", "api", nil, 40, 50)

	got, err := env.recService.RecommendTrending(ctx, "", 5)
	if err != nil {
		t.Fatalf("RecommendTrending: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Title != "one day old" || got[1].Title != "three days old" {
		t.Fatalf("expected recency fallback ordering, got [%q, %q, %q]", got[0].Title, got[1].Title, got[2].Title)
	}
	// max(0, 10 - days_old)
	if math.Abs(got[0].Score-9) > 0.1 || math.Abs(got[1].Score-7) > 0.1 {
		t.Fatalf("fallback scores = %v / %v, want ~9 / ~7", got[0].Score, got[1].Score)
	}
	if got[2].Score != 0 {
		t.Fatalf("ancient item score = %v, want 0", got[2].Score)
	}
}

func TestRecommendTrendingCountsInteractionsOnce(t *testing.T) {
	env := newRecTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	liked := env.seedItem(t, "liked item", "framework", nil, 20, 0)
	viewed := env.seedItem(t, "viewed item", "framework", nil, 20, 0)

	// RecordInteraction writes the same interaction to both the cache and
	// the log; trending must merge them without double counting.
	if err := env.recService.RecordInteraction(ctx, RecordInteractionInput{UserID: &userID, ContentID: liked.ID, Type: types.InteractionLike}); err != nil {
		t.Fatalf("record like: %v", err)
	}
	if err := env.recService.RecordInteraction(ctx, RecordInteractionInput{UserID: &userID, ContentID: viewed.ID, Type: types.InteractionView}); err != nil {
		t.Fatalf("record view: %v", err)
	}

	got, err := env.recService.RecommendTrending(ctx, "", 5)
	if err != nil {
		t.Fatalf("RecommendTrending: %v", err)
	}
	scores := map[uuid.UUID]float64{}
	for _, item := range got {
		scores[item.ID] = item.Score
	}
	if scores[liked.ID] != 3 {
		t.Fatalf("liked score = %v, want 3 (counted once)", scores[liked.ID])
	}
	if scores[viewed.ID] != 1 {
		t.Fatalf("viewed score = %v, want 1 (counted once)", scores[viewed.ID])
	}
}

func TestRecommendTrendingCategoryFilter(t *testing.T) {
	env := newRecTestEnv(t)
	ctx := context.Background()

	env.seedItem(t, "framework item", "framework", nil, 1, 50)
	env.seedItem(t, "database item", "database", nil, 1, 50)

	got, err := env.recService.RecommendTrending(ctx, "database", 5)
	if err != nil {
		t.Fatalf("RecommendTrending(category): %v", err)
	}
	if len(got) != 1 || got[0].Title != "database item" {
		t.Fatalf("category filter failed, got %+v", got)
	}
}

func TestRecommendPersonalized(t *testing.T) {
	env := newRecTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 15; i++ {
		env.seedItem(t, fmt.Sprintf("article %02d", i), "framework", []string{"react"}, float64(i)+1, 50)
	}

	got, err := env.recService.RecommendPersonalized(ctx, userID, 10)
	if err != nil {
		t.Fatalf("RecommendPersonalized: %v", err)
	}
	if len(got) > 10 {
		t.Fatalf("len = %d, want at most 10", len(got))
	}
	seen := map[uuid.UUID]bool{}
	for _, item := range got {
		if seen[item.ID] {
			t.Fatalf("duplicate id %s in personalized feed", item.ID)
		}
		seen[item.ID] = true
	}
	// Backfill should fill every slot when enough candidates exist.
	if len(got) != 10 {
		t.Fatalf("len = %d, want backfilled 10", len(got))
	}
}

func TestRecordInteractionReadAfterWrite(t *testing.T) {
	env := newRecTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	item := env.seedItem(t, "react 19 overview", "framework", []string{"react"}, 1, 50)

	if err := env.recService.RecordInteraction(ctx, RecordInteractionInput{
		UserID:    &userID,
		ContentID: item.ID,
		Type:      types.InteractionLike,
	}); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	profile, err := env.profileService.BuildProfile(ctx, userID, "")
	if err != nil {
		t.Fatalf("BuildProfile: %v", err)
	}
	if got := profile.Categories["framework"]; got != 3.0 {
		t.Fatalf("categories[framework] = %v, want 3.0", got)
	}
	if got := profile.Tags["react"]; got != 3.0 {
		t.Fatalf("tags[react] = %v, want 3.0", got)
	}
	if profile.InteractionCount != 1 {
		t.Fatalf("interaction_count = %d, want 1 (no double count across cache and log)", profile.InteractionCount)
	}
}

func TestRecordInteractionValidation(t *testing.T) {
	env := newRecTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	cases := []struct {
		name  string
		input RecordInteractionInput
	}{
		{name: "bad_type", input: RecordInteractionInput{UserID: &userID, ContentID: uuid.New(), Type: "hover"}},
		{name: "no_identity", input: RecordInteractionInput{ContentID: uuid.New(), Type: types.InteractionView}},
		{name: "no_content", input: RecordInteractionInput{UserID: &userID, Type: types.InteractionView}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := env.recService.RecordInteraction(ctx, tc.input); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestRecordInteractionSessionOnly(t *testing.T) {
	env := newRecTestEnv(t)
	ctx := context.Background()

	item := env.seedItem(t, "session article", "tooling", []string{"vite"}, 1, 50)
	if err := env.recService.RecordInteraction(ctx, RecordInteractionInput{
		SessionID: "anon-session-1",
		ContentID: item.ID,
		Type:      types.InteractionBookmark,
	}); err != nil {
		t.Fatalf("RecordInteraction(session): %v", err)
	}

	profile, err := env.profileService.BuildProfile(ctx, uuid.Nil, "anon-session-1")
	if err != nil {
		t.Fatalf("BuildProfile(session): %v", err)
	}
	if got := profile.Categories["tooling"]; got != 4.0 {
		t.Fatalf("categories[tooling] = %v, want bookmark weight 4.0", got)
	}
}
