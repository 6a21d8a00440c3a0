package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEmbedder struct {
	err error
}

func (f fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

type fakeCandidateStore struct {
	candidates []Candidate
	filters    Filters
	limit      int
	err        error
}

func (f *fakeCandidateStore) TopCandidates(_ context.Context, _ []float32, _ string, filters Filters, limit int) ([]Candidate, error) {
	f.filters = filters
	f.limit = limit
	return f.candidates, f.err
}

func TestCombineScore(t *testing.T) {
	t.Parallel()

	// The blend is deterministic: identical inputs give identical bits.
	a := CombineScore(0.25, 0.5)
	b := CombineScore(0.25, 0.5)
	require.Equal(t, math.Float64bits(a), math.Float64bits(b))

	// Exact value for a hand-checked pair.
	require.Equal(t, 0.6*(1.0/1.25)+0.4*(0.5/1.5), a)

	// Closer vectors score higher; stronger lexical rank scores higher.
	require.Greater(t, CombineScore(0.1, 0.5), CombineScore(0.5, 0.5))
	require.Greater(t, CombineScore(0.25, 0.9), CombineScore(0.25, 0.1))

	// Zero rank leaves only the semantic term.
	require.InDelta(t, 0.6, CombineScore(0, 0), 1e-12)
}

func TestSearchDedupesByProfile(t *testing.T) {
	t.Parallel()

	// Three chunks of profile 9 in the pool; only its best-ranked chunk
	// survives, at its original position.
	store := &fakeCandidateStore{candidates: []Candidate{
		{ProfileID: 9, Name: "Jane Doe", ChunkText: "best chunk", Distance: 0.1, Rank: 0.5},
		{ProfileID: 10, Name: "John Smith", ChunkText: "other person", Distance: 0.2, Rank: 0.3},
		{ProfileID: 9, Name: "Jane Doe", ChunkText: "second chunk", Distance: 0.3, Rank: 0.2},
		{ProfileID: 9, Name: "Jane Doe", ChunkText: "third chunk", Distance: 0.4, Rank: 0.1},
	}}
	s := NewSearcher(fakeEmbedder{}, store, zap.NewNop())

	results, err := s.Search(context.Background(), "oceans", Filters{}, 8, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, int64(9), results[0].ProfileID)
	require.Equal(t, "best chunk", results[0].Snippet)
	require.Equal(t, int64(10), results[1].ProfileID)
	require.Equal(t, CombineScore(0.1, 0.5), results[0].Score)
}

func TestSearchSnippetTruncation(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("marine biology ", 40)
	require.Greater(t, len(long), snippetRunes)

	store := &fakeCandidateStore{candidates: []Candidate{
		{ProfileID: 9, Name: "Jane Doe", ChunkText: long, Distance: 0.1, Rank: 0.5},
	}}
	s := NewSearcher(fakeEmbedder{}, store, zap.NewNop())

	results, err := s.Search(context.Background(), "oceans", Filters{}, 8, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, long[:snippetRunes], results[0].Snippet)
	// The full chunk survives off the wire for chat context.
	require.Equal(t, long, results[0].ChunkText)
}

func TestSearchPagination(t *testing.T) {
	t.Parallel()

	var candidates []Candidate
	for i := 1; i <= 20; i++ {
		candidates = append(candidates, Candidate{
			ProfileID: int64(i),
			Name:      fmt.Sprintf("Person %d", i),
			Distance:  float64(i) * 0.01,
		})
	}
	store := &fakeCandidateStore{candidates: candidates}
	s := NewSearcher(fakeEmbedder{}, store, zap.NewNop())

	page, err := s.Search(context.Background(), "oceans", Filters{}, 5, 5)
	require.NoError(t, err)
	require.Len(t, page, 5)
	require.Equal(t, int64(6), page[0].ProfileID)
	require.Equal(t, int64(10), page[4].ProfileID)

	// Offsets past the end return an empty page, not an error.
	empty, err := s.Search(context.Background(), "oceans", Filters{}, 5, 100)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestSearchLimitClamping(t *testing.T) {
	t.Parallel()

	store := &fakeCandidateStore{candidates: []Candidate{{ProfileID: 1, Name: "Jane Doe"}}}
	s := NewSearcher(fakeEmbedder{}, store, zap.NewNop())

	_, err := s.Search(context.Background(), "oceans", Filters{}, 0, 0)
	require.NoError(t, err)
	require.Equal(t, candidateOversample, store.limit)

	results, err := s.Search(context.Background(), "oceans", Filters{}, 500, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestSearchPassesFilters(t *testing.T) {
	t.Parallel()

	store := &fakeCandidateStore{}
	s := NewSearcher(fakeEmbedder{}, store, zap.NewNop())

	filters := Filters{Faculty: "Faculty of Science and Engineering"}
	_, err := s.Search(context.Background(), "oceans", filters, 8, 0)
	require.NoError(t, err)
	require.Equal(t, filters, store.filters)
}

func TestSearchErrors(t *testing.T) {
	t.Parallel()

	s := NewSearcher(fakeEmbedder{err: errors.New("quota")}, &fakeCandidateStore{}, zap.NewNop())
	_, err := s.Search(context.Background(), "oceans", Filters{}, 8, 0)
	require.ErrorContains(t, err, "embed query")

	s = NewSearcher(fakeEmbedder{}, &fakeCandidateStore{err: errors.New("down")}, zap.NewNop())
	_, err = s.Search(context.Background(), "oceans", Filters{}, 8, 0)
	require.ErrorContains(t, err, "fetch candidates")
}
