package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/devpulse/devpulse-backend/internal/types"
)

func interactionWith(id uuid.UUID, kind string, createdAt time.Time, data types.InteractionData) *types.Interaction {
	return &types.Interaction{
		ID:        id,
		ContentID: uuid.New(),
		Type:      kind,
		Data:      datatypes.NewJSONType(data),
		CreatedAt: createdAt,
	}
}

func TestBuildProfileFromInteractions(t *testing.T) {
	now := time.Now()

	t.Run("single_like_on_framework_react", func(t *testing.T) {
		profile := BuildProfileFromInteractions([]*types.Interaction{
			interactionWith(uuid.New(), types.InteractionLike, now, types.InteractionData{
				Category: "framework",
				Tags:     []string{"react"},
			}),
		})

		if got := profile.Categories["framework"]; got != 3.0 {
			t.Fatalf("categories[framework] = %v, want 3.0", got)
		}
		if got := profile.Tags["react"]; got != 3.0 {
			t.Fatalf("tags[react] = %v, want 3.0", got)
		}
		if profile.InteractionCount != 1 {
			t.Fatalf("interaction_count = %d, want 1", profile.InteractionCount)
		}
		if profile.LastInteraction == nil {
			t.Fatalf("expected last_interaction to be set")
		}
	})

	t.Run("type_weights_accumulate", func(t *testing.T) {
		data := types.InteractionData{Category: "tooling"}
		profile := BuildProfileFromInteractions([]*types.Interaction{
			interactionWith(uuid.New(), types.InteractionView, now, data),
			interactionWith(uuid.New(), types.InteractionShare, now, data),
			interactionWith(uuid.New(), types.InteractionBookmark, now, data),
		})

		// view=1 + share=5 + bookmark=4
		if got := profile.Categories["tooling"]; got != 10.0 {
			t.Fatalf("categories[tooling] = %v, want 10.0", got)
		}
	})

	t.Run("missing_metadata_counts_only", func(t *testing.T) {
		profile := BuildProfileFromInteractions([]*types.Interaction{
			interactionWith(uuid.New(), types.InteractionView, now, types.InteractionData{}),
		})

		if profile.InteractionCount != 1 {
			t.Fatalf("interaction_count = %d, want 1", profile.InteractionCount)
		}
		if len(profile.Categories) != 0 || len(profile.Tags) != 0 {
			t.Fatalf("expected empty affinity maps, got %v / %v", profile.Categories, profile.Tags)
		}
	})

	t.Run("unknown_type_ignored", func(t *testing.T) {
		profile := BuildProfileFromInteractions([]*types.Interaction{
			interactionWith(uuid.New(), "hover", now, types.InteractionData{Category: "api"}),
		})

		if profile.InteractionCount != 0 {
			t.Fatalf("unknown type should not count, got %d", profile.InteractionCount)
		}
	})

	t.Run("empty_history_yields_zero_profile", func(t *testing.T) {
		profile := BuildProfileFromInteractions(nil)
		if profile == nil {
			t.Fatalf("expected non-nil profile for empty history")
		}
		if profile.InteractionCount != 0 || profile.LastInteraction != nil {
			t.Fatalf("expected zero profile, got %+v", profile)
		}
	})
}

func TestMergeInteractions(t *testing.T) {
	now := time.Now()
	shared := interactionWith(uuid.New(), types.InteractionLike, now, types.InteractionData{Category: "framework"})
	other := interactionWith(uuid.New(), types.InteractionView, now, types.InteractionData{Category: "framework"})

	t.Run("dedup_by_id", func(t *testing.T) {
		merged := MergeInteractions([]*types.Interaction{shared, other}, []*types.Interaction{shared})
		if len(merged) != 2 {
			t.Fatalf("merged length = %d, want 2", len(merged))
		}
	})

	t.Run("dedup_without_ids_uses_composite", func(t *testing.T) {
		contentID := uuid.New()
		a := &types.Interaction{ContentID: contentID, Type: types.InteractionView, CreatedAt: now}
		b := &types.Interaction{ContentID: contentID, Type: types.InteractionView, CreatedAt: now}
		merged := MergeInteractions([]*types.Interaction{a}, []*types.Interaction{b})
		if len(merged) != 1 {
			t.Fatalf("merged length = %d, want 1", len(merged))
		}
	})

	t.Run("nil_entries_skipped", func(t *testing.T) {
		merged := MergeInteractions([]*types.Interaction{nil, other})
		if len(merged) != 1 {
			t.Fatalf("merged length = %d, want 1", len(merged))
		}
	})
}
