// Package repository holds the Postgres-backed persistence layer. It is
// optional: the daemon falls back to in-memory equivalents when no
// DATABASE_URL is configured.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/cloo-solutions/goalsight/internal/domain"
	"github.com/cloo-solutions/goalsight/internal/semantic"
)

// RecordIndexRepository implements vector search over record embeddings
// using pgvector. It satisfies the semantic VectorIndex interface.
type RecordIndexRepository struct {
	pool *pgxpool.Pool
}

func NewRecordIndexRepository(pool *pgxpool.Pool) *RecordIndexRepository {
	return &RecordIndexRepository{pool: pool}
}

// Build replaces the stored embeddings with the given entries atomically.
func (r *RecordIndexRepository) Build(ctx context.Context, entries []semantic.IndexEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin index build: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM record_embeddings`); err != nil {
		return fmt.Errorf("failed to clear record embeddings: %w", err)
	}

	batch := &pgx.Batch{}
	for _, entry := range entries {
		batch.Queue(
			`INSERT INTO record_embeddings (record_id, embedding) VALUES ($1, $2)`,
			entry.RecordID,
			pgvector.NewVector(entry.Vector),
		)
	}
	results := tx.SendBatch(ctx, batch)
	for range entries {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert record embedding: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to flush embedding batch: %w", err)
	}

	return tx.Commit(ctx)
}

// Search returns up to k nearest records by cosine similarity, ties broken
// by record_id ascending.
func (r *RecordIndexRepository) Search(ctx context.Context, query []float32, k int) ([]semantic.Hit, error) {
	if k <= 0 {
		return nil, domain.ErrInvalidK
	}

	rows, err := r.pool.Query(ctx,
		`SELECT record_id, 1 - (embedding <=> $1) AS score
		 FROM record_embeddings
		 ORDER BY embedding <=> $1, record_id
		 LIMIT $2`,
		pgvector.NewVector(query),
		k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search record embeddings: %w", err)
	}
	defer rows.Close()

	hits := make([]semantic.Hit, 0, k)
	for rows.Next() {
		var hit semantic.Hit
		if err := rows.Scan(&hit.RecordID, &hit.Score); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(hits) == 0 {
		return nil, domain.ErrIndexUnavailable
	}
	return hits, nil
}
