package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/uniwebdev/staffsearch/internal/index"
	"github.com/uniwebdev/staffsearch/internal/search"
)

// ChunkStore persists embedded profile chunks and serves hybrid retrieval.
type ChunkStore struct {
	pool Querier
}

// NewChunkStore constructs a store from an existing pool.
func NewChunkStore(pool Querier) (*ChunkStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &ChunkStore{pool: pool}, nil
}

// Replace swaps a profile's chunk set in one transaction: readers see the
// old set or the new set, never a mix. A nil chunk slice just clears.
func (s *ChunkStore) Replace(ctx context.Context, profileID int64, chunks []index.Chunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin chunk replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE profile_id = $1`, profileID); err != nil {
		return fmt.Errorf("delete chunks for profile %d: %w", profileID, err)
	}

	if len(chunks) > 0 {
		batch := &pgx.Batch{}
		for _, c := range chunks {
			batch.Queue(`
INSERT INTO chunks (profile_id, ordinal, text, embedding)
VALUES ($1, $2, $3, $4)`,
				profileID, c.Ordinal, c.Text, pgvector.NewVector(c.Embedding))
		}

		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert chunk %d for profile %d: %w", i, profileID, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("close chunk batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunk replace: %w", err)
	}
	return nil
}

// TopCandidates runs the hybrid query: cosine distance against the query
// embedding blended with lexical ts_rank, filtered by org unit names, best
// chunks first. The pool is oversampled; profile dedup happens in the
// caller.
func (s *ChunkStore) TopCandidates(ctx context.Context, embedding []float32, query string, filters search.Filters, limit int) ([]search.Candidate, error) {
	rows, err := s.pool.Query(ctx, `
SELECT
	p.id, p.profile_url, p.name, p.title, p.suffix,
	COALESCE(f.name, p.faculty_text, ''),
	COALESCE(i.name, p.institute_text, ''),
	COALESCE(d.name, p.department_text, ''),
	c.text,
	c.embedding <=> $1 AS distance,
	ts_rank(c.tsv, plainto_tsquery('english', $2)) AS rank
FROM chunks c
JOIN staff_profiles p ON p.id = c.profile_id
LEFT JOIN faculties f ON f.id = p.faculty_id
LEFT JOIN institutes i ON i.id = p.institute_id
LEFT JOIN departments d ON d.id = p.department_id
WHERE ($3 = '' OR LOWER(COALESCE(f.name, p.faculty_text, '')) = LOWER($3))
  AND ($4 = '' OR LOWER(COALESCE(i.name, p.institute_text, '')) = LOWER($4))
  AND ($5 = '' OR LOWER(COALESCE(d.name, p.department_text, '')) = LOWER($5))
ORDER BY 0.6 * (1 / (1 + (c.embedding <=> $1))) +
         0.4 * (ts_rank(c.tsv, plainto_tsquery('english', $2)) /
                (1 + ts_rank(c.tsv, plainto_tsquery('english', $2)))) DESC,
         c.profile_id, c.ordinal
LIMIT $6`,
		pgvector.NewVector(embedding), query,
		filters.Faculty, filters.Institute, filters.Department, limit)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []search.Candidate
	for rows.Next() {
		var c search.Candidate
		if err := rows.Scan(&c.ProfileID, &c.ProfileURL, &c.Name, &c.Title, &c.Suffix,
			&c.Faculty, &c.Institute, &c.Department,
			&c.ChunkText, &c.Distance, &c.Rank); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}
	return candidates, nil
}
