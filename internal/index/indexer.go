package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/uniwebdev/staffsearch/internal/metrics"
)

// Chunk is one embedded token window of a profile's text.
type Chunk struct {
	Ordinal   int
	Text      string
	Embedding []float32
}

// Embedder produces one embedding vector per input text.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkStore atomically replaces a profile's chunk set.
type ChunkStore interface {
	Replace(ctx context.Context, profileID int64, chunks []Chunk) error
}

// embedBatchSize bounds the number of texts sent per embedding request.
const embedBatchSize = 64

// Indexer chunks profile text, embeds the chunks, and persists them.
type Indexer struct {
	chunker *Chunker
	embed   Embedder
	store   ChunkStore
	logger  *zap.Logger
}

func NewIndexer(chunker *Chunker, embed Embedder, store ChunkStore, logger *zap.Logger) *Indexer {
	return &Indexer{chunker: chunker, embed: embed, store: store, logger: logger}
}

// IndexProfile rebuilds the chunk set for one profile from its cleaned text.
// Empty text clears any existing chunks. The store swap is all-or-nothing;
// an embedding failure leaves the previous chunk set in place.
func (ix *Indexer) IndexProfile(ctx context.Context, profileID int64, text string) (int, error) {
	texts := ix.chunker.Split(text)
	if len(texts) == 0 {
		if err := ix.store.Replace(ctx, profileID, nil); err != nil {
			return 0, fmt.Errorf("clear chunks for profile %d: %w", profileID, err)
		}
		return 0, nil
	}

	chunks := make([]Chunk, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vectors, err := ix.embed.EmbedTexts(ctx, batch)
		if err != nil {
			return 0, fmt.Errorf("embed chunks for profile %d: %w", profileID, err)
		}
		if len(vectors) != len(batch) {
			return 0, fmt.Errorf("embed chunks for profile %d: got %d vectors for %d texts", profileID, len(vectors), len(batch))
		}
		metrics.ObserveEmbeddingBatch()

		for i, vec := range vectors {
			chunks = append(chunks, Chunk{Ordinal: start + i, Text: batch[i], Embedding: vec})
		}
	}

	if err := ix.store.Replace(ctx, profileID, chunks); err != nil {
		return 0, fmt.Errorf("store chunks for profile %d: %w", profileID, err)
	}

	ix.logger.Debug("profile indexed",
		zap.Int64("profile_id", profileID),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}
