package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/uniwebdev/staffsearch/internal/ai"
	"github.com/uniwebdev/staffsearch/internal/metrics"
)

// contextLimit is how many top profiles feed the chat model as context.
const contextLimit = 8

// ContextAnswerer answers a question over retrieved context blocks.
type ContextAnswerer interface {
	ChatWithContext(ctx context.Context, question string, contextBlocks []string) (ai.Answer, error)
}

// ChatResponse is the chat answer plus the profiles it drew from.
type ChatResponse struct {
	Summary string   `json:"summary"`
	People  []string `json:"people"`
	Sources []Result `json:"sources"`
}

// Chatter runs retrieval-augmented question answering over the index.
type Chatter struct {
	searcher *Searcher
	answerer ContextAnswerer
	logger   *zap.Logger
}

func NewChatter(searcher *Searcher, answerer ContextAnswerer, logger *zap.Logger) *Chatter {
	return &Chatter{searcher: searcher, answerer: answerer, logger: logger}
}

// Ask retrieves the best-matching profiles for the question, feeds their
// chunks to the chat model, and returns the grounded answer with sources.
// A question matching nothing in the index short-circuits to the no-answer
// response without calling the model.
func (c *Chatter) Ask(ctx context.Context, question string, filters Filters) (ChatResponse, error) {
	sources, err := c.searcher.Search(ctx, question, filters, contextLimit, 0)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("retrieve context: %w", err)
	}
	metrics.ObserveSearch("chat")

	if len(sources) == 0 {
		return ChatResponse{Summary: ai.NoAnswer, People: []string{}, Sources: []Result{}}, nil
	}

	blocks := make([]string, 0, len(sources))
	for _, src := range sources {
		blocks = append(blocks, fmt.Sprintf(
			"Name: %s\nTitle: %s\nFaculty: %s\nInstitute: %s\nDepartment: %s\nProfile URL: %s\nContent: %s",
			src.Name, src.Title, src.Faculty, src.Institute, src.Department,
			src.ProfileURL, src.ChunkText))
	}

	answer, err := c.answerer.ChatWithContext(ctx, question, blocks)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("answer question: %w", err)
	}

	c.logger.Debug("chat answered",
		zap.String("question", question),
		zap.Int("sources", len(sources)))

	return ChatResponse{Summary: answer.Summary, People: answer.People, Sources: sources}, nil
}
