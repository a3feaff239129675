package vector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lumen-edu/lumen/pkg/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgVectorIndex implements store.VectorIndex on a Postgres table with a
// pgvector embedding column.
type PgVectorIndex struct {
	pool *pgxpool.Pool
}

// NewPgVectorIndex creates an index over the given connection pool. The
// pool must have pgvector types registered on its connections.
func NewPgVectorIndex(pool *pgxpool.Pool) *PgVectorIndex {
	return &PgVectorIndex{pool: pool}
}

// Upsert writes the entries in a single batch, replacing embedding and
// metadata for ids that already exist.
func (v *PgVectorIndex) Upsert(ctx context.Context, entries []store.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, entry := range entries {
		metadata, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for %s: %w", entry.ID, err)
		}
		batch.Queue(
			`INSERT INTO concept_embeddings (id, embedding, metadata)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE
			 SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata`,
			entry.ID,
			pgvector.NewVector(entry.Embedding),
			metadata,
		)
	}

	results := v.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert embedding: %w", err)
		}
	}
	return nil
}

// Query returns the topK entries closest to the embedding by cosine
// distance, best match first.
func (v *PgVectorIndex) Query(ctx context.Context, embedding []float32, topK int) ([]store.VectorMatch, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	rows, err := v.pool.Query(
		ctx,
		`SELECT id, metadata, 1 - (embedding <=> $1) AS score
		 FROM concept_embeddings
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding),
		topK,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]store.VectorMatch, 0, topK)
	for rows.Next() {
		var (
			match store.VectorMatch
			raw   []byte
		)
		if err := rows.Scan(&match.ID, &raw, &match.Score); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &match.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for %s: %w", match.ID, err)
			}
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return matches, nil
}
