package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/askdsa/internal/domain"
	"github.com/cloo-solutions/askdsa/internal/session"
)

// MockQueryRewriter is a mock implementation of QueryRewriter
type MockQueryRewriter struct {
	mock.Mock
}

func (m *MockQueryRewriter) Rewrite(ctx context.Context, history []domain.Turn, question string) (string, error) {
	args := m.Called(ctx, history, question)
	return args.String(0), args.Error(1)
}

// MockContextRetriever is a mock implementation of ContextRetriever
type MockContextRetriever struct {
	mock.Mock
}

func (m *MockContextRetriever) Retrieve(ctx context.Context, query string) ([]domain.RetrievedChunk, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedChunk), args.Error(1)
}

// MockAnswerSynthesizer is a mock implementation of AnswerSynthesizer
type MockAnswerSynthesizer struct {
	mock.Mock
}

func (m *MockAnswerSynthesizer) Synthesize(ctx context.Context, history []domain.Turn, question string, chunks []domain.RetrievedChunk) (string, error) {
	args := m.Called(ctx, history, question, chunks)
	return args.String(0), args.Error(1)
}

func newChatService(rewriter *MockQueryRewriter, retriever *MockContextRetriever, synthesizer *MockAnswerSynthesizer, sessions session.Store) *ChatService {
	return NewChatService(rewriter, retriever, synthesizer, sessions, time.Second)
}

func TestChatServiceAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("runs the full pipeline and records the exchange", func(t *testing.T) {
		rewriter := new(MockQueryRewriter)
		retriever := new(MockContextRetriever)
		synthesizer := new(MockAnswerSynthesizer)
		sessions := session.NewMemoryStore()
		svc := newChatService(rewriter, retriever, synthesizer, sessions)

		chunks := []domain.RetrievedChunk{retrieved("A heap is a complete binary tree.", 0.9)}

		rewriter.On("Rewrite", mock.Anything, []domain.Turn{}, "what is a heap?").
			Return("what is a heap?", nil)
		retriever.On("Retrieve", mock.Anything, "what is a heap?").Return(chunks, nil)
		synthesizer.On("Synthesize", mock.Anything, []domain.Turn{}, "what is a heap?", chunks).
			Return("A heap is a complete binary tree.", nil)

		answer, err := svc.Answer(ctx, "s1", "what is a heap?")

		require.NoError(t, err)
		assert.Equal(t, "A heap is a complete binary tree.", answer)

		history, err := sessions.History(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, domain.UserTurn("what is a heap?"), history[0])
		assert.Equal(t, domain.ModelTurn("A heap is a complete binary tree."), history[1])
	})

	t.Run("feeds rewritten query to retrieval but original question to synthesis", func(t *testing.T) {
		rewriter := new(MockQueryRewriter)
		retriever := new(MockContextRetriever)
		synthesizer := new(MockAnswerSynthesizer)
		sessions := session.NewMemoryStore()
		svc := newChatService(rewriter, retriever, synthesizer, sessions)

		require.NoError(t, sessions.AppendExchange(ctx, "s1",
			domain.UserTurn("what is a heap?"),
			domain.ModelTurn("A heap is a complete binary tree.")))
		priorHistory := []domain.Turn{
			domain.UserTurn("what is a heap?"),
			domain.ModelTurn("A heap is a complete binary tree."),
		}

		chunks := []domain.RetrievedChunk{retrieved("Heapify runs in O(n).", 0.8)}

		rewriter.On("Rewrite", mock.Anything, priorHistory, "how fast is building one?").
			Return("What is the time complexity of building a heap?", nil)
		retriever.On("Retrieve", mock.Anything, "What is the time complexity of building a heap?").
			Return(chunks, nil)
		synthesizer.On("Synthesize", mock.Anything, priorHistory, "how fast is building one?", chunks).
			Return("Building a heap takes O(n).", nil)

		answer, err := svc.Answer(ctx, "s1", "how fast is building one?")

		require.NoError(t, err)
		assert.Equal(t, "Building a heap takes O(n).", answer)

		history, err := sessions.History(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, history, 4)
		assert.Equal(t, "how fast is building one?", history[2].Text)
		rewriter.AssertExpectations(t)
		retriever.AssertExpectations(t)
		synthesizer.AssertExpectations(t)
	})

	t.Run("rejects empty question", func(t *testing.T) {
		svc := newChatService(new(MockQueryRewriter), new(MockContextRetriever), new(MockAnswerSynthesizer), session.NewMemoryStore())

		_, err := svc.Answer(ctx, "s1", "")

		assert.ErrorIs(t, err, domain.ErrMissingQuestion)
	})

	t.Run("rejects empty session id", func(t *testing.T) {
		svc := newChatService(new(MockQueryRewriter), new(MockContextRetriever), new(MockAnswerSynthesizer), session.NewMemoryStore())

		_, err := svc.Answer(ctx, "", "what is a heap?")

		assert.ErrorIs(t, err, domain.ErrMissingSessionID)
	})

	t.Run("rewrite failure leaves history untouched", func(t *testing.T) {
		rewriter := new(MockQueryRewriter)
		retriever := new(MockContextRetriever)
		synthesizer := new(MockAnswerSynthesizer)
		sessions := session.NewMemoryStore()
		svc := newChatService(rewriter, retriever, synthesizer, sessions)

		rewriter.On("Rewrite", mock.Anything, mock.Anything, mock.Anything).
			Return("", domain.ErrGenerationFailed)

		_, err := svc.Answer(ctx, "s1", "what is a heap?")

		assert.Error(t, err)
		history, herr := sessions.History(ctx, "s1")
		require.NoError(t, herr)
		assert.Empty(t, history)
		retriever.AssertNotCalled(t, "Retrieve")
	})

	t.Run("retrieval failure leaves history untouched", func(t *testing.T) {
		rewriter := new(MockQueryRewriter)
		retriever := new(MockContextRetriever)
		synthesizer := new(MockAnswerSynthesizer)
		sessions := session.NewMemoryStore()
		svc := newChatService(rewriter, retriever, synthesizer, sessions)

		rewriter.On("Rewrite", mock.Anything, mock.Anything, mock.Anything).
			Return("standalone", nil)
		retriever.On("Retrieve", mock.Anything, "standalone").
			Return(nil, domain.ErrVectorStoreFailed)

		_, err := svc.Answer(ctx, "s1", "what is a heap?")

		assert.Error(t, err)
		history, herr := sessions.History(ctx, "s1")
		require.NoError(t, herr)
		assert.Empty(t, history)
		synthesizer.AssertNotCalled(t, "Synthesize")
	})

	t.Run("synthesis failure leaves history untouched", func(t *testing.T) {
		rewriter := new(MockQueryRewriter)
		retriever := new(MockContextRetriever)
		synthesizer := new(MockAnswerSynthesizer)
		sessions := session.NewMemoryStore()
		svc := newChatService(rewriter, retriever, synthesizer, sessions)

		rewriter.On("Rewrite", mock.Anything, mock.Anything, mock.Anything).
			Return("standalone", nil)
		retriever.On("Retrieve", mock.Anything, "standalone").
			Return([]domain.RetrievedChunk{retrieved("chunk", 0.9)}, nil)
		synthesizer.On("Synthesize", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("model unavailable"))

		_, err := svc.Answer(ctx, "s1", "what is a heap?")

		assert.Error(t, err)
		history, herr := sessions.History(ctx, "s1")
		require.NoError(t, herr)
		assert.Empty(t, history)
	})

	t.Run("refusal answers still join the history", func(t *testing.T) {
		rewriter := new(MockQueryRewriter)
		retriever := new(MockContextRetriever)
		synthesizer := NewSynthesizer(new(MockTextGenerator))
		sessions := session.NewMemoryStore()
		svc := NewChatService(rewriter, retriever, synthesizer, sessions, time.Second)

		rewriter.On("Rewrite", mock.Anything, mock.Anything, mock.Anything).
			Return("what's the weather today?", nil)
		retriever.On("Retrieve", mock.Anything, "what's the weather today?").
			Return([]domain.RetrievedChunk{}, nil)

		answer, err := svc.Answer(ctx, "s1", "what's the weather today?")

		require.NoError(t, err)
		assert.Equal(t, ScopeRefusal, answer)

		history, herr := sessions.History(ctx, "s1")
		require.NoError(t, herr)
		require.Len(t, history, 2)
		assert.Equal(t, ScopeRefusal, history[1].Text)
	})
}
