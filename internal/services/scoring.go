package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devpulse/devpulse-backend/internal/logger"
	"github.com/devpulse/devpulse-backend/internal/types"
)

// Classification is a coarse category label for a piece of text. Subcategory
// is the strongest keyword inside the winning category.
type Classification struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// ScoreInput carries the signals the scoring functions read. Zero values
// degrade gracefully: a missing field contributes 0 to the score.
type ScoreInput struct {
	Title       string
	Summary     string
	Source      string
	PublishedAt *time.Time
	Keywords    []string
	Stars       int
	Engagements int
}

type ScoringService interface {
	Classify(text string) Classification
	ImportanceScore(in ScoreInput) float64
	TrendScore(in ScoreInput) float64
	ScoreContentItem(item *types.ContentItem) (importance, trend float64)
	ScoreBatch(ctx context.Context, items []*types.ContentItem) int
}

// Signal weights for the importance score. The constants are part of the
// scoring contract: the score is explainable only while these stay fixed.
const (
	weightRecentActivity  = 0.25
	weightKeywordDensity  = 0.20
	weightSourceAuthority = 0.15
	weightEngagement      = 0.10
	weightStars           = 0.30

	importanceDecayDays = 30.0
	trendDecayDays      = 7.0

	trendRecencyWeight = 0.7
	trendKeywordWeight = 0.3
)

// categoryOrder fixes the tie-break: the first declared category wins on
// equal keyword counts.
var categoryOrder = []string{
	"framework", "language", "tooling", "database", "api",
	"styling", "deployment", "testing", "security", "performance",
}

var defaultCategoryKeywords = map[string][]string{
	"framework": {
		"react", "vue", "angular", "svelte", "solid", "next.js", "nextjs",
		"nuxt", "remix", "astro", "component", "hooks", "ssr",
	},
	"language": {
		"typescript", "javascript", "ecmascript", "tsc", "type system",
		"generics", "decorators", "type inference", "strict mode", "es2024",
	},
	"tooling": {
		"webpack", "vite", "esbuild", "rollup", "turbopack", "babel",
		"eslint", "prettier", "bundler", "monorepo", "pnpm", "npm", "yarn",
	},
	"database": {
		"postgres", "postgresql", "mysql", "sqlite", "mongodb", "redis",
		"prisma", "typeorm", "drizzle", "sql", "migration", "schema",
	},
	"api": {
		"rest", "graphql", "grpc", "trpc", "openapi", "endpoint",
		"websocket", "api design", "sdk", "webhook",
	},
	"styling": {
		"css", "tailwind", "sass", "scss", "styled-components",
		"css-in-js", "design system", "responsive",
	},
	"deployment": {
		"docker", "kubernetes", "vercel", "netlify", "serverless",
		"deploy", "ci/cd", "aws", "cloudflare", "edge function",
	},
	"testing": {
		"jest", "vitest", "playwright", "cypress", "unit test",
		"integration test", "coverage", "mocking", "e2e",
	},
	"security": {
		"vulnerability", "cve", "security", "xss", "csrf", "injection",
		"authentication", "authorization", "encryption", "supply chain",
	},
	"performance": {
		"performance", "optimization", "benchmark", "latency",
		"bundle size", "memory", "profiling", "lazy loading", "caching",
	},
}

// trendingKeywords is the fixed release-chatter list for the trend score.
var trendingKeywords = []string{"new", "latest", "update", "release", "v2", "v3", "beta", "alpha"}

// sourceAuthority is matched by substring against the lowercased source name.
var sourceAuthority = []struct {
	match  string
	weight float64
}{
	{"github", 0.9},
	{"mozilla", 0.85},
	{"microsoft", 0.8},
	{"stackoverflow", 0.75},
	{"hacker news", 0.7},
	{"dev.to", 0.6},
	{"medium", 0.5},
	{"reddit", 0.45},
}

const defaultSourceAuthority = 0.3

type scoringService struct {
	log              *logger.Logger
	categoryKeywords map[string][]string
	now              func() time.Time
}

func NewScoringService(log *logger.Logger) ScoringService {
	s := &scoringService{
		log:              log.With("service", "ScoringService"),
		categoryKeywords: defaultCategoryKeywords,
		now:              time.Now,
	}
	if path := strings.TrimSpace(os.Getenv("SCORING_KEYWORDS_FILE")); path != "" {
		if err := s.loadKeywordOverrides(path); err != nil {
			s.log.Warn("Keyword override file ignored", "path", path, "error", err)
		}
	}
	return s
}

// loadKeywordOverrides replaces keyword lists for categories present in the
// YAML file. Unknown categories are rejected so the canonical order holds.
func (s *scoringService) loadKeywordOverrides(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var overrides map[string][]string
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return err
	}
	merged := make(map[string][]string, len(s.categoryKeywords))
	for cat, kws := range s.categoryKeywords {
		merged[cat] = kws
	}
	for cat, kws := range overrides {
		if _, ok := merged[cat]; !ok {
			return fmt.Errorf("unknown category %q in keyword overrides", cat)
		}
		if len(kws) > 0 {
			merged[cat] = kws
		}
	}
	s.categoryKeywords = merged
	return nil
}

func (s *scoringService) Classify(text string) Classification {
	lower := strings.ToLower(text)

	bestCategory := ""
	bestCount := 0
	bestKeyword := ""
	for _, cat := range categoryOrder {
		count := 0
		topKeyword := ""
		topKeywordCount := 0
		for _, kw := range s.categoryKeywords[cat] {
			n := strings.Count(lower, kw)
			count += n
			if n > topKeywordCount {
				topKeywordCount = n
				topKeyword = kw
			}
		}
		if count > bestCount {
			bestCount = count
			bestCategory = cat
			bestKeyword = topKeyword
		}
	}

	if bestCount == 0 {
		return Classification{Category: "general", Subcategory: "other"}
	}
	return Classification{Category: bestCategory, Subcategory: bestKeyword}
}

func (s *scoringService) ImportanceScore(in ScoreInput) float64 {
	score := weightRecentActivity*s.recencySignal(in.PublishedAt, importanceDecayDays) +
		weightKeywordDensity*keywordDensitySignal(in.Title+" "+in.Summary, in.Keywords) +
		weightSourceAuthority*sourceAuthoritySignal(in.Source) +
		weightEngagement*clamp01(float64(in.Engagements)/100.0) +
		weightStars*clamp01(float64(in.Stars)/1000.0)
	return clamp01(score)
}

func (s *scoringService) TrendScore(in ScoreInput) float64 {
	recency := s.recencySignal(in.PublishedAt, trendDecayDays)

	lower := strings.ToLower(in.Title + " " + in.Summary)
	hits := 0
	for _, kw := range trendingKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	density := float64(hits) / float64(len(trendingKeywords))

	return clamp01(trendRecencyWeight*recency + trendKeywordWeight*density)
}

func (s *scoringService) ScoreContentItem(item *types.ContentItem) (float64, float64) {
	in := ScoreInput{
		Title:       item.Title,
		Summary:     item.Summary,
		Source:      item.Source,
		PublishedAt: item.PublishedAt,
		Keywords:    item.SEO.Data().Keywords,
		Stars:       item.Stars,
	}
	return s.ImportanceScore(in), s.TrendScore(in)
}

// ScoreBatch scores items in place and returns how many succeeded. A failing
// item is logged and skipped; the batch always continues.
func (s *scoringService) ScoreBatch(ctx context.Context, items []*types.ContentItem) int {
	scored := 0
	for _, item := range items {
		if item == nil {
			continue
		}
		if err := s.scoreOne(item); err != nil {
			s.log.Warn("Skipping item in scoring batch", "content_id", item.ID, "error", err)
			continue
		}
		scored++
	}
	return scored
}

func (s *scoringService) scoreOne(item *types.ContentItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scoring panic: %v", r)
		}
	}()
	item.ImportanceScore, item.TrendScore = s.ScoreContentItem(item)
	return nil
}

func (s *scoringService) recencySignal(publishedAt *time.Time, decayDays float64) float64 {
	if publishedAt == nil || publishedAt.IsZero() {
		return 0
	}
	days := s.now().Sub(*publishedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	return clamp01(1 - days/decayDays)
}

// keywordDensitySignal is keyword occurrences over word count, scaled so a
// 10% density saturates the signal.
func keywordDensitySignal(text string, keywords []string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 || len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		hits += strings.Count(lower, kw)
	}
	return clamp01(float64(hits) / float64(len(words)) * 10)
}

func sourceAuthoritySignal(source string) float64 {
	lower := strings.ToLower(source)
	for _, entry := range sourceAuthority {
		if strings.Contains(lower, entry.match) {
			return entry.weight
		}
	}
	return defaultSourceAuthority
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
