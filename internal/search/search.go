// Package search ranks profile chunks with a hybrid of semantic distance
// and lexical relevance, then collapses chunks to distinct profiles.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/uniwebdev/staffsearch/internal/metrics"
)

const (
	// DefaultLimit is the page size when the caller does not ask for one.
	DefaultLimit = 8
	// MaxLimit caps the page size.
	MaxLimit = 50

	// candidateOversample is how many chunk rows the store returns before
	// profile dedup; deep pages stay stable because every page draws from
	// the same candidate pool.
	candidateOversample = 200

	// snippetRunes caps the snippet carried in API payloads; chunks run to
	// hundreds of tokens.
	snippetRunes = 280

	semanticWeight = 0.6
	lexicalWeight  = 0.4
)

// Filters narrows a search to org units, matched case-insensitively by name.
// Empty fields are ignored.
type Filters struct {
	Faculty    string
	Institute  string
	Department string
}

// Candidate is one chunk row scored against a query.
type Candidate struct {
	ProfileID  int64
	ProfileURL string
	Name       string
	Title      string
	Suffix     string
	Faculty    string
	Institute  string
	Department string
	ChunkText  string
	Distance   float64
	Rank       float64
}

// Result is one profile in a search response, carrying its best chunk.
type Result struct {
	ProfileID  int64   `json:"profile_id"`
	ProfileURL string  `json:"profile_url"`
	Name       string  `json:"name"`
	Title      string  `json:"title,omitempty"`
	Suffix     string  `json:"suffix,omitempty"`
	Faculty    string  `json:"faculty,omitempty"`
	Institute  string  `json:"institute,omitempty"`
	Department string  `json:"department,omitempty"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`

	// ChunkText keeps the full matched chunk for chat context; the API
	// payload only carries the truncated Snippet.
	ChunkText string `json:"-"`
}

// CandidateStore returns the top chunk candidates for an embedded query.
type CandidateStore interface {
	TopCandidates(ctx context.Context, embedding []float32, query string, filters Filters, limit int) ([]Candidate, error)
}

// QueryEmbedder embeds free-text queries.
type QueryEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// CombineScore blends cosine distance and ts_rank into one ranking value.
// Both terms map into (0, 1]; lower distance and higher rank both raise
// the score.
func CombineScore(distance, rank float64) float64 {
	return semanticWeight*(1/(1+distance)) + lexicalWeight*(rank/(1+rank))
}

// Searcher runs hybrid queries against the chunk index.
type Searcher struct {
	embed  QueryEmbedder
	store  CandidateStore
	logger *zap.Logger
}

func NewSearcher(embed QueryEmbedder, store CandidateStore, logger *zap.Logger) *Searcher {
	return &Searcher{embed: embed, store: store, logger: logger}
}

// Search embeds the query, pulls the candidate pool, deduplicates chunks to
// their best-ranked profile, and returns the requested page. Limit is
// clamped to [1, MaxLimit]; a non-positive limit means DefaultLimit.
func (s *Searcher) Search(ctx context.Context, query string, filters Filters, limit, offset int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	vectors, err := s.embed.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vectors))
	}

	candidates, err := s.store.TopCandidates(ctx, vectors[0], query, filters, candidateOversample)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	results := dedupByProfile(candidates)
	metrics.ObserveSearch("search")

	s.logger.Debug("search executed",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)),
		zap.Int("profiles", len(results)))

	if offset >= len(results) {
		return []Result{}, nil
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end], nil
}

// dedupByProfile keeps each profile's first (best-ranked) candidate,
// preserving candidate order.
func dedupByProfile(candidates []Candidate) []Result {
	seen := make(map[int64]struct{}, len(candidates))
	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.ProfileID]; ok {
			continue
		}
		seen[c.ProfileID] = struct{}{}
		results = append(results, Result{
			ProfileID:  c.ProfileID,
			ProfileURL: c.ProfileURL,
			Name:       c.Name,
			Title:      c.Title,
			Suffix:     c.Suffix,
			Faculty:    c.Faculty,
			Institute:  c.Institute,
			Department: c.Department,
			Snippet:    snippet(c.ChunkText),
			Score:      CombineScore(c.Distance, c.Rank),
			ChunkText:  c.ChunkText,
		})
	}
	return results
}

// snippet truncates chunk text to snippetRunes characters.
func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetRunes {
		return text
	}
	return string(runes[:snippetRunes])
}
