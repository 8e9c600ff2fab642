package service

import (
	"context"

	"github.com/cloo-solutions/askdsa/internal/domain"
	"github.com/cloo-solutions/askdsa/internal/telemetry"
)

// DefaultTopK is the number of nearest chunks fetched per query
const DefaultTopK = 10

// Embedder converts text into an embedding vector
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkSearcher finds the chunks nearest to an embedding
type ChunkSearcher interface {
	Query(ctx context.Context, embedding []float32, limit int) ([]domain.RetrievedChunk, error)
}

// Retriever embeds a standalone query and fetches the nearest chunks from
// the vector store. Results come back in store order, most similar first; no
// local re-ranking is applied. An empty result set is a valid outcome.
type Retriever struct {
	embedder Embedder
	searcher ChunkSearcher
	topK     int
}

func NewRetriever(embedder Embedder, searcher ChunkSearcher, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, searcher: searcher, topK: topK}
}

// Retrieve returns the chunks most relevant to the query
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.RetrievedChunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.retrieve", telemetry.SpanAttributes{
		Operation: "retrieve_context",
	})
	defer span.End()

	embedding, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, domain.ErrEmbeddingFailed.WithCause(err)
	}

	chunks, err := r.searcher.Query(ctx, embedding, r.topK)
	if err != nil {
		span.SetError(err)
		return nil, domain.ErrVectorStoreFailed.WithCause(err)
	}

	return chunks, nil
}
