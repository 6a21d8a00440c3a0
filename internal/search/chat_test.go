package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uniwebdev/staffsearch/internal/ai"
)

type fakeAnswerer struct {
	question string
	blocks   []string
	answer   ai.Answer
	err      error
}

func (f *fakeAnswerer) ChatWithContext(_ context.Context, question string, blocks []string) (ai.Answer, error) {
	f.question = question
	f.blocks = blocks
	if f.err != nil {
		return ai.Answer{}, f.err
	}
	return f.answer, nil
}

func TestAskBuildsContextFromSources(t *testing.T) {
	t.Parallel()

	store := &fakeCandidateStore{candidates: []Candidate{
		{ProfileID: 9, ProfileURL: "https://liverpool.ac.uk/people/jane-doe",
			Name: "Jane Doe", Title: "Prof",
			Faculty:   "Faculty of Science and Engineering",
			Institute: "Institute of Ocean Science", Department: "Department of Earth Sciences",
			ChunkText: "Jane studies marine biology.", Distance: 0.1, Rank: 0.5},
		{ProfileID: 10, ProfileURL: "https://liverpool.ac.uk/people/john-smith",
			Name: "John Smith", ChunkText: "John models coastal erosion.", Distance: 0.2, Rank: 0.3},
	}}
	answerer := &fakeAnswerer{answer: ai.Answer{Summary: "Jane Doe studies marine biology.", People: []string{}}}
	chatter := NewChatter(NewSearcher(fakeEmbedder{}, store, zap.NewNop()), answerer, zap.NewNop())

	resp, err := chatter.Ask(context.Background(), "who studies marine biology?", Filters{})
	require.NoError(t, err)

	require.Equal(t, "who studies marine biology?", answerer.question)
	require.Len(t, answerer.blocks, 2)
	require.Equal(t,
		"Name: Jane Doe\nTitle: Prof\nFaculty: Faculty of Science and Engineering\n"+
			"Institute: Institute of Ocean Science\nDepartment: Department of Earth Sciences\n"+
			"Profile URL: https://liverpool.ac.uk/people/jane-doe\nContent: Jane studies marine biology.",
		answerer.blocks[0])
	require.Equal(t,
		"Name: John Smith\nTitle: \nFaculty: \nInstitute: \nDepartment: \n"+
			"Profile URL: https://liverpool.ac.uk/people/john-smith\nContent: John models coastal erosion.",
		answerer.blocks[1])

	require.Equal(t, "Jane Doe studies marine biology.", resp.Summary)
	require.Len(t, resp.Sources, 2)
	require.Equal(t, int64(9), resp.Sources[0].ProfileID)
}

func TestAskEmptyIndexShortCircuits(t *testing.T) {
	t.Parallel()

	answerer := &fakeAnswerer{}
	chatter := NewChatter(NewSearcher(fakeEmbedder{}, &fakeCandidateStore{}, zap.NewNop()), answerer, zap.NewNop())

	resp, err := chatter.Ask(context.Background(), "who teaches alchemy?", Filters{})
	require.NoError(t, err)
	require.Equal(t, ai.NoAnswer, resp.Summary)
	require.Empty(t, resp.Sources)
	require.NotNil(t, resp.People)

	// The model is never called without context.
	require.Empty(t, answerer.question)
}

func TestAskModelFailure(t *testing.T) {
	t.Parallel()

	store := &fakeCandidateStore{candidates: []Candidate{{ProfileID: 9, Name: "Jane Doe"}}}
	answerer := &fakeAnswerer{err: errors.New("timeout")}
	chatter := NewChatter(NewSearcher(fakeEmbedder{}, store, zap.NewNop()), answerer, zap.NewNop())

	_, err := chatter.Ask(context.Background(), "who studies oceans?", Filters{})
	require.ErrorContains(t, err, "answer question")
}
