package e2e

import (
	"context"
	"math"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cloo-solutions/askdsa/internal/api/handlers"
	"github.com/cloo-solutions/askdsa/internal/domain"
	"github.com/cloo-solutions/askdsa/internal/server"
	"github.com/cloo-solutions/askdsa/internal/service"
	"github.com/cloo-solutions/askdsa/internal/session"
)

// keywordEmbedder maps text onto a fixed keyword vocabulary. Texts that share
// vocabulary land close together; texts with no overlap embed to the zero
// vector and match nothing.
type keywordEmbedder struct {
	vocab []string
}

func newKeywordEmbedder() *keywordEmbedder {
	return &keywordEmbedder{
		vocab: []string{"binary", "search", "sorted", "logarithmic", "array", "tree", "complexity"},
	}
}

func (e *keywordEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.vocab))
	for i, word := range e.vocab {
		vec[i] = float32(strings.Count(lower, word))
	}
	return vec, nil
}

// cosineStore is an in-memory vector store ranked by cosine similarity
type cosineStore struct {
	mu      sync.Mutex
	entries map[string]storeEntry
}

type storeEntry struct {
	chunk     domain.Chunk
	embedding []float32
}

func newCosineStore() *cosineStore {
	return &cosineStore{entries: make(map[string]storeEntry)}
}

func (s *cosineStore) Upsert(_ context.Context, chunk domain.Chunk, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[chunk.ID] = storeEntry{chunk: chunk, embedding: embedding}
	return nil
}

func (s *cosineStore) DeleteSource(_ context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.entries {
		if entry.chunk.Source == source {
			delete(s.entries, id)
		}
	}
	return nil
}

func (s *cosineStore) Query(_ context.Context, embedding []float32, limit int) ([]domain.RetrievedChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []domain.RetrievedChunk
	for _, entry := range s.entries {
		score := cosine(embedding, entry.embedding)
		if score <= 0 {
			continue
		}
		results = append(results, domain.RetrievedChunk{Chunk: entry.chunk, Score: score})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func cosine(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// scriptedGenerator answers synthesis calls from the supplied context and
// resolves follow-up pronouns during rewrites. It keeps the pipeline
// deterministic without a live model.
type scriptedGenerator struct {
	topic string
}

func (g *scriptedGenerator) GenerateText(_ context.Context, systemInstruction string, turns []domain.Turn) (string, error) {
	question := turns[len(turns)-1].Text

	if strings.Contains(systemInstruction, "query rewriting expert") {
		words := strings.Fields(question)
		for i, word := range words {
			if strings.TrimRight(word, "?.!,") == "it" {
				words[i] = g.topic + strings.TrimLeft(word, "it")
			}
		}
		return strings.Join(words, " "), nil
	}

	// Synthesis: echo the highest-ranked passage from the instruction.
	_, rest, found := strings.Cut(systemInstruction, "Context: ")
	if !found || strings.TrimSpace(rest) == "" {
		return "", nil
	}
	first, _, _ := strings.Cut(rest, "\n\n---\n\n")
	return strings.TrimSpace(first), nil
}

// testEnv runs the full HTTP stack with stub collaborators
type testEnv struct {
	Server   *httptest.Server
	Embedder *keywordEmbedder
	Store    *cosineStore
	Sessions *session.MemoryStore
}

func newTestEnv(topic string) *testEnv {
	embedder := newKeywordEmbedder()
	store := newCosineStore()
	sessions := session.NewMemoryStore()
	generator := &scriptedGenerator{topic: topic}

	chatSvc := service.NewChatService(
		service.NewRewriter(generator),
		service.NewRetriever(embedder, store, 10),
		service.NewSynthesizer(generator),
		sessions,
		5*time.Second,
	)

	router := server.NewRouter(server.RouterConfig{
		ChatHandler: handlers.NewChatHandler(chatSvc),
	})

	return &testEnv{
		Server:   httptest.NewServer(router),
		Embedder: embedder,
		Store:    store,
		Sessions: sessions,
	}
}

func (env *testEnv) Close() {
	env.Server.Close()
}
