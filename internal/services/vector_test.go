package services

import (
	"math"
	"testing"

	"gorm.io/datatypes"

	"github.com/devpulse/devpulse-backend/internal/types"
)

func vectorItem(title, summary, category string, tags, keywords []string) *types.ContentItem {
	return &types.ContentItem{
		Title:    title,
		Summary:  summary,
		Metadata: datatypes.NewJSONType(types.ContentMetadata{Category: category, Tags: tags}),
		SEO:      datatypes.NewJSONType(types.SEOData{Keywords: keywords}),
	}
}

func TestCosineSimilarityIdentity(t *testing.T) {
	v := buildContentVector(vectorItem("TypeScript generics deep dive", "react hooks and vite", "language", []string{"typescript"}, []string{"generics"}))
	if len(v) == 0 {
		t.Fatalf("expected non-empty vector")
	}
	got := cosineSimilarity(v, v)
	if math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("cosineSimilarity(v, v) = %v, want 1.0", got)
	}
}

func TestCosineSimilarityEmpty(t *testing.T) {
	v := map[string]float64{"tag:react": 2}
	if got := cosineSimilarity(v, map[string]float64{}); got != 0 {
		t.Fatalf("cosineSimilarity(v, {}) = %v, want 0", got)
	}
	if got := cosineSimilarity(map[string]float64{}, v); got != 0 {
		t.Fatalf("cosineSimilarity({}, v) = %v, want 0", got)
	}
}

func TestCosineSimilarityDisjoint(t *testing.T) {
	// Same shape of content, zero shared features: identical titles would
	// share term features, so the titles avoid technical terms entirely.
	a := buildContentVector(vectorItem("weekly roundup", "assorted links", "styling", []string{"tailwind"}, []string{"sass"}))
	b := buildContentVector(vectorItem("weekly roundup", "assorted links", "database", []string{"prisma"}, []string{"sqlite"}))
	if got := cosineSimilarity(a, b); got != 0 {
		t.Fatalf("disjoint vectors similarity = %v, want 0", got)
	}
}

func TestBuildContentVectorFeatures(t *testing.T) {
	v := buildContentVector(vectorItem("React state management", "", "framework", []string{"react", "hooks"}, []string{"state"}))

	for _, key := range []string{"category:framework", "tag:react", "tag:hooks", "keyword:state", "term:react"} {
		if v[key] <= 0 {
			t.Fatalf("expected feature %q in vector, got %v", key, v)
		}
	}
}

func TestBuildContentVectorNilItem(t *testing.T) {
	if v := buildContentVector(nil); len(v) != 0 {
		t.Fatalf("nil item should produce empty vector, got %v", v)
	}
}
