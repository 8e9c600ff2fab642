package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloo-solutions/askdsa/internal/domain"
	"golang.org/x/sync/errgroup"
)

const upsertMaxRetries = 3

// Embedder generates an embedding vector for a text. The same model must be
// used for ingestion and querying, or similarity scores are meaningless.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkUpserter persists chunk vectors. Upserts are idempotent by chunk id.
type ChunkUpserter interface {
	Upsert(ctx context.Context, chunk domain.Chunk, embedding []float32) error
	DeleteSource(ctx context.Context, source string) error
}

// Indexer embeds chunks and writes them to the vector store with a bounded
// number of operations in flight. The bound is backpressure for the
// embedding and store services, not a correctness requirement.
type Indexer struct {
	embedder    Embedder
	store       ChunkUpserter
	concurrency int
}

func NewIndexer(embedder Embedder, store ChunkUpserter, concurrency int) *Indexer {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Indexer{
		embedder:    embedder,
		store:       store,
		concurrency: concurrency,
	}
}

// Index replaces the stored vectors for the chunks' source. Any failure
// aborts the run; re-running reindexes from scratch (same ids, overwritten
// vectors).
func (ix *Indexer) Index(ctx context.Context, source string, chunks []domain.Chunk) error {
	if err := ix.store.DeleteSource(ctx, source); err != nil {
		return fmt.Errorf("failed to clear prior index for %s: %w", source, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.concurrency)

	for _, chunk := range chunks {
		g.Go(func() error {
			embedding, err := ix.embedder.GenerateEmbedding(ctx, chunk.Content)
			if err != nil {
				return domain.ErrEmbeddingFailed.WithCause(fmt.Errorf("chunk %s: %w", chunk.ID, err))
			}
			return ix.upsertWithRetry(ctx, chunk, embedding)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	log.Printf("indexed %d chunks for %s", len(chunks), source)
	return nil
}

// upsertWithRetry retries transient store failures. Safe because upserts by
// chunk id are idempotent.
func (ix *Indexer) upsertWithRetry(ctx context.Context, chunk domain.Chunk, embedding []float32) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 2 * time.Second

	op := func() error {
		return ix.store.Upsert(ctx, chunk, embedding)
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, upsertMaxRetries), ctx))
	if err != nil {
		return domain.ErrVectorStoreFailed.WithCause(fmt.Errorf("chunk %s: %w", chunk.ID, err))
	}
	return nil
}
