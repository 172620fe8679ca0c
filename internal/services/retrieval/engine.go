// Package retrieval answers natural-language questions over the stored
// highlights by combining vector similarity and keyword search.
package retrieval

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/killallgit/highlight-api/internal/models"
	"github.com/killallgit/highlight-api/internal/services/embeddings"
	"github.com/killallgit/highlight-api/internal/services/highlights"
	"github.com/killallgit/highlight-api/pkg/timefmt"
)

// Search modes
const (
	ModeVector  = "vector"
	ModeKeyword = "keyword"
	ModeHybrid  = "hybrid"
)

// NoMatchAnswer is returned verbatim when nothing relevant is stored
const NoMatchAnswer = "I couldn't find any highlights matching your question in the database."

const (
	minTopK = 1
	maxTopK = 20
)

// Config holds retrieval engine settings
type Config struct {
	Mode        string  // vector, keyword, or hybrid
	DefaultTopK int     // Used when a request does not specify top_k
	MaxDistance float64 // Vector distance cutoff; <= 0 disables it
}

// Engine resolves questions against the highlight store
type Engine struct {
	repo     highlights.Repository
	embedder embeddings.Embedder
	config   Config
}

// NewEngine creates a retrieval engine
func NewEngine(repo highlights.Repository, embedder embeddings.Embedder, cfg Config) *Engine {
	if cfg.Mode == "" {
		cfg.Mode = ModeHybrid
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	return &Engine{repo: repo, embedder: embedder, config: cfg}
}

// Ask answers a question about the stored highlights. topK <= 0 selects the
// configured default; out-of-range values are clamped, never rejected.
func (e *Engine) Ask(ctx context.Context, query string, topK int) (models.AskResponse, error) {
	topK = e.clampTopK(topK)

	matches, err := e.search(ctx, query, topK)
	if err != nil {
		return models.AskResponse{}, err
	}

	matches = dedupe(matches)
	sortMatches(matches)

	return models.AskResponse{
		Answer:  formatAnswer(matches),
		Matches: matches,
	}, nil
}

func (e *Engine) clampTopK(topK int) int {
	if topK <= 0 {
		topK = e.config.DefaultTopK
	}
	if topK < minTopK {
		return minTopK
	}
	if topK > maxTopK {
		return maxTopK
	}
	return topK
}

// search runs the configured retrieval legs. In hybrid mode vector results
// come first so they win the dedup pass.
func (e *Engine) search(ctx context.Context, query string, topK int) ([]models.Match, error) {
	var matches []models.Match

	if e.config.Mode == ModeVector || e.config.Mode == ModeHybrid {
		vectorMatches, err := e.vectorSearch(ctx, query, topK)
		if err != nil {
			return nil, err
		}
		matches = append(matches, vectorMatches...)
	}

	if e.config.Mode == ModeKeyword || e.config.Mode == ModeHybrid {
		keywordMatches, err := e.keywordSearch(ctx, query, topK)
		if err != nil {
			// In hybrid mode the vector leg may already have answers
			if e.config.Mode == ModeHybrid && len(matches) > 0 {
				log.Printf("[WARN] Keyword search failed, serving vector results only: %v", err)
				return matches, nil
			}
			return nil, err
		}
		matches = append(matches, keywordMatches...)
	}

	return matches, nil
}

func (e *Engine) vectorSearch(ctx context.Context, query string, topK int) ([]models.Match, error) {
	queryVec, err := e.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := e.repo.SearchByVector(ctx, queryVec, topK, e.config.MaxDistance)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	matches := make([]models.Match, 0, len(results))
	for _, r := range results {
		distance := r.Distance
		matches = append(matches, models.Match{
			HighlightID:  r.Highlight.ID,
			VideoID:      r.Highlight.VideoID,
			Filename:     r.Filename,
			StartSeconds: r.Highlight.StartSeconds,
			EndSeconds:   r.Highlight.EndSeconds,
			Title:        r.Highlight.Title,
			Summary:      r.Highlight.Summary,
			Distance:     &distance,
		})
	}
	return matches, nil
}

func (e *Engine) keywordSearch(ctx context.Context, query string, topK int) ([]models.Match, error) {
	results, err := e.repo.SearchByKeyword(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	matches := make([]models.Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, models.Match{
			HighlightID:  r.Highlight.ID,
			VideoID:      r.Highlight.VideoID,
			Filename:     r.Filename,
			StartSeconds: r.Highlight.StartSeconds,
			EndSeconds:   r.Highlight.EndSeconds,
			Title:        r.Highlight.Title,
			Summary:      r.Highlight.Summary,
		})
	}
	return matches, nil
}

type matchKey struct {
	highlightID uint
	start       float64
	end         float64
}

// dedupe drops duplicate matches, keeping the first occurrence. A highlight
// found by both search legs keeps its vector result and distance.
func dedupe(matches []models.Match) []models.Match {
	seen := make(map[matchKey]bool, len(matches))
	out := matches[:0]
	for _, m := range matches {
		key := matchKey{m.HighlightID, m.StartSeconds, m.EndSeconds}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

// sortMatches orders results for presentation: by filename, then start time
func sortMatches(matches []models.Match) {
	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Filename != matches[b].Filename {
			return matches[a].Filename < matches[b].Filename
		}
		return matches[a].StartSeconds < matches[b].StartSeconds
	})
}

// formatAnswer renders matches as one bullet line per highlight
func formatAnswer(matches []models.Match) string {
	if len(matches) == 0 {
		return NoMatchAnswer
	}

	var b strings.Builder
	b.WriteString("Here are the highlights that match your question:\n")
	for _, m := range matches {
		b.WriteString(fmt.Sprintf("• %s [%s]: %s\n",
			m.Filename,
			timefmt.Span(m.StartSeconds, m.EndSeconds),
			m.Summary,
		))
	}
	return strings.TrimRight(b.String(), "\n")
}
