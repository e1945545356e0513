package services

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/devpulse/devpulse-backend/internal/logger"
	"github.com/devpulse/devpulse-backend/internal/types"
)

func newTestScoring(t *testing.T) ScoringService {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return NewScoringService(log)
}

func TestClassify(t *testing.T) {
	s := newTestScoring(t)

	cases := []struct {
		name         string
		text         string
		wantCategory string
	}{
		{
			name:         "framework_text",
			text:         "React 19 ships new hooks and server component improvements",
			wantCategory: "framework",
		},
		{
			name:         "tooling_text",
			text:         "Vite and esbuild cut bundler times in half",
			wantCategory: "tooling",
		},
		{
			name:         "security_text",
			text:         "New CVE discovered: XSS vulnerability in template rendering",
			wantCategory: "security",
		},
		{
			name:         "no_keywords_falls_back",
			text:         "musings about gardening and sourdough",
			wantCategory: "general",
		},
		{
			name:         "empty_text_falls_back",
			text:         "",
			wantCategory: "general",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.Classify(tc.text)
			if got.Category != tc.wantCategory {
				t.Fatalf("Classify(%q).Category = %q, want %q", tc.text, got.Category, tc.wantCategory)
			}
			if tc.wantCategory == "general" && got.Subcategory != "other" {
				t.Fatalf("fallback subcategory = %q, want %q", got.Subcategory, "other")
			}
			if tc.wantCategory != "general" && got.Subcategory == "" {
				t.Fatalf("expected non-empty subcategory for %q", tc.text)
			}
		})
	}
}

func TestClassifyFallbackIffNoKeyword(t *testing.T) {
	s := newTestScoring(t)

	// A single category keyword anywhere in the text must prevent the
	// general/other fallback.
	got := s.Classify("a long irrelevant sentence that happens to mention webpack once")
	if got.Category == "general" {
		t.Fatalf("expected a concrete category, got general/other")
	}
}

func TestImportanceScoreBounds(t *testing.T) {
	s := newTestScoring(t)
	now := time.Now()
	old := now.Add(-365 * 24 * time.Hour)

	cases := []struct {
		name string
		in   ScoreInput
	}{
		{name: "zero_input", in: ScoreInput{}},
		{name: "old_item", in: ScoreInput{Title: "t", PublishedAt: &old}},
		{
			name: "maxed_signals",
			in: ScoreInput{
				Title:       strings.Repeat("typescript ", 5),
				Summary:     "typescript typescript",
				Source:      "github.com/microsoft/TypeScript",
				PublishedAt: &now,
				Keywords:    []string{"typescript"},
				Stars:       50000,
				Engagements: 10000,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.ImportanceScore(tc.in)
			if got < 0 || got > 1 {
				t.Fatalf("ImportanceScore = %v, want within [0,1]", got)
			}
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Fatalf("ImportanceScore = %v, want finite", got)
			}
		})
	}
}

func TestImportanceScoreDefaultsToLowAuthority(t *testing.T) {
	s := newTestScoring(t)

	known := s.ImportanceScore(ScoreInput{Source: "github"})
	unknown := s.ImportanceScore(ScoreInput{Source: "random-blog.example"})
	if known <= unknown {
		t.Fatalf("github authority (%v) should outrank default authority (%v)", known, unknown)
	}
}

func TestTrendScore(t *testing.T) {
	s := newTestScoring(t)
	fresh := time.Now().Add(-1 * time.Hour)
	stale := time.Now().Add(-14 * 24 * time.Hour)

	freshScore := s.TrendScore(ScoreInput{Title: "New release: v3 beta out", PublishedAt: &fresh})
	staleScore := s.TrendScore(ScoreInput{Title: "New release: v3 beta out", PublishedAt: &stale})
	if freshScore <= staleScore {
		t.Fatalf("fresh trend score (%v) should exceed stale (%v)", freshScore, staleScore)
	}

	for _, score := range []float64{freshScore, staleScore} {
		if score < 0 || score > 1 {
			t.Fatalf("TrendScore = %v, want within [0,1]", score)
		}
	}

	// 7-day decay: recency contributes nothing after a week, trending
	// keywords still do.
	if staleScore == 0 {
		t.Fatalf("trending keywords should keep stale score above zero")
	}
	noKeywords := s.TrendScore(ScoreInput{Title: "quiet maintenance notes", PublishedAt: &stale})
	if noKeywords != 0 {
		t.Fatalf("stale item without trending keywords = %v, want 0", noKeywords)
	}
}

func TestScoreBatch(t *testing.T) {
	s := newTestScoring(t)
	published := time.Now().Add(-2 * time.Hour)
	items := []*types.ContentItem{
		nil,
		{Title: "TypeScript 6 beta release", Source: "github", PublishedAt: &published},
	}

	scored := s.ScoreBatch(context.Background(), items)
	if scored != 1 {
		t.Fatalf("ScoreBatch = %d, want 1", scored)
	}
	if items[1].ImportanceScore <= 0 || items[1].TrendScore <= 0 {
		t.Fatalf("expected positive scores, got importance=%v trend=%v", items[1].ImportanceScore, items[1].TrendScore)
	}
}
