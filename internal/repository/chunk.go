package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/cloo-solutions/askdsa/internal/domain"
)

// ChunkRepository persists document chunks and their embeddings
type ChunkRepository struct {
	pool *pgxpool.Pool
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

// Upsert writes a chunk and its embedding. Chunk IDs are deterministic per
// source and index, so re-ingesting a document overwrites in place.
func (r *ChunkRepository) Upsert(ctx context.Context, chunk domain.Chunk, embedding []float32) error {
	query := `
		INSERT INTO chunks (id, source, page, chunk_index, content, embedding, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			page = EXCLUDED.page,
			chunk_index = EXCLUDED.chunk_index,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			updated_at = now()`

	_, err := r.pool.Exec(ctx, query,
		chunk.ID,
		chunk.Source,
		chunk.Page,
		chunk.Index,
		chunk.Content,
		pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}

	return nil
}

// DeleteSource removes every chunk belonging to a source document
func (r *ChunkRepository) DeleteSource(ctx context.Context, source string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM chunks WHERE source = $1`, source)
	if err != nil {
		return fmt.Errorf("failed to delete chunks for source: %w", err)
	}

	return nil
}

// Query returns the chunks nearest to the embedding, most similar first.
// Score maps cosine distance into (0, 1].
func (r *ChunkRepository) Query(ctx context.Context, embedding []float32, limit int) ([]domain.RetrievedChunk, error) {
	query := `
		SELECT id, source, page, chunk_index, content, created_at, updated_at,
			1.0 / (1.0 + (embedding <=> $1)) AS score
		FROM chunks
		ORDER BY embedding <=> $1
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var results []domain.RetrievedChunk
	for rows.Next() {
		var rc domain.RetrievedChunk
		if err := rows.Scan(
			&rc.ID,
			&rc.Source,
			&rc.Page,
			&rc.Index,
			&rc.Content,
			&rc.CreatedAt,
			&rc.UpdatedAt,
			&rc.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		results = append(results, rc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunk rows: %w", err)
	}

	return results, nil
}

// CountBySource returns the number of stored chunks for a source
func (r *ChunkRepository) CountBySource(ctx context.Context, source string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM chunks WHERE source = $1`, source).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}

	return count, nil
}

// GetByID fetches a single chunk without its embedding
func (r *ChunkRepository) GetByID(ctx context.Context, id string) (*domain.Chunk, error) {
	query := `
		SELECT id, source, page, chunk_index, content, created_at, updated_at
		FROM chunks
		WHERE id = $1`

	var chunk domain.Chunk
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&chunk.ID,
		&chunk.Source,
		&chunk.Page,
		&chunk.Index,
		&chunk.Content,
		&chunk.CreatedAt,
		&chunk.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}

	return &chunk, nil
}
