package ingest

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/devpulse/devpulse-backend/internal/logger"
	"github.com/devpulse/devpulse-backend/internal/repos"
	"github.com/devpulse/devpulse-backend/internal/services"
	"github.com/devpulse/devpulse-backend/internal/types"
)

const (
	fetchConcurrency = 4
	maxSummaryRunes  = 600
)

// Service pulls RSS feeds, classifies and scores each entry with the scoring
// engine, and stores new entries as draft content items. Re-running a feed is
// idempotent: entries are deduplicated by slug.
type Service struct {
	log         *logger.Logger
	parser      *gofeed.Parser
	contentRepo repos.ContentItemRepo
	scoring     services.ScoringService
}

func NewService(log *logger.Logger, contentRepo repos.ContentItemRepo, scoring services.ScoringService) *Service {
	return &Service{
		log:         log.With("service", "IngestService"),
		parser:      gofeed.NewParser(),
		contentRepo: contentRepo,
		scoring:     scoring,
	}
}

// Run fetches all feeds concurrently and returns how many new items were
// stored. A failing feed is logged and skipped; Run only errors when the
// context is cancelled.
func (s *Service) Run(ctx context.Context, feeds []FeedSource) (int, error) {
	var mu sync.Mutex
	var collected []*gofeed.Item
	sourceByLink := make(map[string]string)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, feed := range feeds {
		feed := feed
		g.Go(func() error {
			parsed, err := s.parser.ParseURLWithContext(feed.URL, gctx)
			if err != nil {
				s.log.Warn("Skipping unreachable feed", "feed", feed.Name, "error", err)
				return nil
			}
			mu.Lock()
			for _, item := range parsed.Items {
				collected = append(collected, item)
				sourceByLink[item.Link] = feed.Name
			}
			mu.Unlock()
			s.log.Info("Fetched feed", "feed", feed.Name, "items", len(parsed.Items))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	stored := 0
	for _, raw := range collected {
		item, err := s.buildContentItem(ctx, raw, sourceByLink[raw.Link])
		if err != nil {
			s.log.Warn("Skipping feed entry", "link", raw.Link, "error", err)
			continue
		}
		if item == nil {
			continue // already ingested
		}
		if _, err := s.contentRepo.Create(ctx, nil, []*types.ContentItem{item}); err != nil {
			s.log.Warn("Failed to store feed entry", "slug", item.Slug, "error", err)
			continue
		}
		stored++
	}
	s.log.Info("Ingestion run finished", "fetched", len(collected), "stored", stored)
	return stored, nil
}

// buildContentItem returns (nil, nil) for entries whose slug already exists.
func (s *Service) buildContentItem(ctx context.Context, raw *gofeed.Item, source string) (*types.ContentItem, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return nil, nil
	}

	slug := Slugify(title)
	exists, err := s.contentRepo.SlugExists(ctx, nil, slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	summary := StripHTML(raw.Description)
	if summary == "" {
		summary = StripHTML(raw.Content)
	}
	if runes := []rune(summary); len(runes) > maxSummaryRunes {
		summary = string(runes[:maxSummaryRunes])
	}

	classification := s.scoring.Classify(title + " " + summary)
	tags := make([]string, 0, len(raw.Categories))
	for _, c := range raw.Categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			tags = append(tags, c)
		}
	}

	item := &types.ContentItem{
		Title:     title,
		Slug:      slug,
		Summary:   summary,
		Source:    source,
		SourceURL: raw.Link,
		Status:    types.ContentStatusDraft,
		Metadata: datatypes.NewJSONType(types.ContentMetadata{
			Category: classification.Category,
			Tags:     tags,
		}),
		SEO: datatypes.NewJSONType(types.SEOData{Keywords: tags}),
	}
	if raw.PublishedParsed != nil {
		t := *raw.PublishedParsed
		item.PublishedAt = &t
	} else {
		now := time.Now()
		item.PublishedAt = &now
	}

	item.ImportanceScore, item.TrendScore = s.scoring.ScoreContentItem(item)
	return item, nil
}

// Rescore refreshes importance and trend scores for the newest published
// items. Both scores decay with age, so stored values go stale between runs.
func (s *Service) Rescore(ctx context.Context, limit int) (int, error) {
	items, err := s.contentRepo.ListPublished(ctx, nil, limit)
	if err != nil {
		return 0, err
	}
	s.scoring.ScoreBatch(ctx, items)

	updated := 0
	for _, item := range items {
		if err := s.contentRepo.UpdateScores(ctx, nil, item.ID, item.ImportanceScore, item.TrendScore); err != nil {
			s.log.Warn("Failed to persist refreshed scores", "content_id", item.ID, "error", err)
			continue
		}
		updated++
	}
	return updated, nil
}

// StripHTML reduces feed HTML to plain text.
func StripHTML(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Slugify lowercases, strips punctuation and joins words with dashes.
func Slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
