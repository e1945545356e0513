package services

import (
	"math"
	"strings"
	"unicode"

	"github.com/devpulse/devpulse-backend/internal/types"
)

// Feature weights for content vectors. Structured metadata outweighs free
// text: a shared category says more about two items than a shared token.
const (
	featureWeightKeyword  = 2.0
	featureWeightCategory = 3.0
	featureWeightTag      = 2.0
	featureWeightTerm     = 1.0
)

// technicalTerms is the fixed term list matched against title/summary tokens
// when building content vectors.
var technicalTerms = map[string]bool{
	"typescript": true, "javascript": true, "node": true, "deno": true,
	"bun": true, "react": true, "vue": true, "angular": true, "svelte": true,
	"nextjs": true, "vite": true, "webpack": true, "esbuild": true,
	"graphql": true, "rest": true, "grpc": true, "trpc": true,
	"postgres": true, "mongodb": true, "redis": true, "prisma": true,
	"docker": true, "kubernetes": true, "serverless": true, "vercel": true,
	"jest": true, "vitest": true, "playwright": true, "cypress": true,
	"tailwind": true, "css": true, "wasm": true, "compiler": true,
	"bundler": true, "runtime": true, "framework": true, "migration": true,
	"performance": true, "security": true, "async": true, "streaming": true,
}

// buildContentVector turns an item's SEO keywords, metadata and text tokens
// into a sparse feature-weight vector. Recomputed on every call; vectors are
// never persisted.
func buildContentVector(item *types.ContentItem) map[string]float64 {
	v := make(map[string]float64)
	if item == nil {
		return v
	}

	for _, kw := range item.SEO.Data().Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			v["keyword:"+kw] += featureWeightKeyword
		}
	}

	meta := item.Metadata.Data()
	if meta.Category != "" {
		v["category:"+strings.ToLower(meta.Category)] += featureWeightCategory
	}
	for _, tag := range meta.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			v["tag:"+tag] += featureWeightTag
		}
	}

	for _, token := range tokenize(item.Title + " " + item.Summary) {
		if technicalTerms[token] {
			v["term:"+token] += featureWeightTerm
		}
	}
	return v
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// cosineSimilarity is 0.0 when either vector has zero norm or the vectors
// share no feature keys.
func cosineSimilarity(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for key, av := range a {
		normA += av * av
		if bv, ok := b[key]; ok {
			dot += av * bv
		}
	}
	for _, bv := range b {
		normB += bv * bv
	}

	if normA == 0 || normB == 0 || dot == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
