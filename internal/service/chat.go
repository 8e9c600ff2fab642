package service

import (
	"context"
	"log"
	"time"

	"github.com/cloo-solutions/askdsa/internal/domain"
	"github.com/cloo-solutions/askdsa/internal/session"
	"github.com/cloo-solutions/askdsa/internal/telemetry"
)

// DefaultCollaboratorTimeout bounds each external call in the pipeline
const DefaultCollaboratorTimeout = 30 * time.Second

// QueryRewriter resolves a follow-up question into a standalone one
type QueryRewriter interface {
	Rewrite(ctx context.Context, history []domain.Turn, question string) (string, error)
}

// ContextRetriever fetches the chunks relevant to a standalone query
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.RetrievedChunk, error)
}

// AnswerSynthesizer produces a grounded answer from context and history
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, history []domain.Turn, question string, chunks []domain.RetrievedChunk) (string, error)
}

// ChatService runs the query pipeline: read history, rewrite, retrieve,
// synthesize, then record the exchange. History is only appended after the
// whole pipeline succeeds, so a failed request leaves no stray turns.
type ChatService struct {
	rewriter    QueryRewriter
	retriever   ContextRetriever
	synthesizer AnswerSynthesizer
	sessions    session.Store
	timeout     time.Duration
}

func NewChatService(rewriter QueryRewriter, retriever ContextRetriever, synthesizer AnswerSynthesizer, sessions session.Store, timeout time.Duration) *ChatService {
	if timeout <= 0 {
		timeout = DefaultCollaboratorTimeout
	}
	return &ChatService{
		rewriter:    rewriter,
		retriever:   retriever,
		synthesizer: synthesizer,
		sessions:    sessions,
		timeout:     timeout,
	}
}

// Answer responds to a question within a session
func (s *ChatService) Answer(ctx context.Context, sessionID, question string) (string, error) {
	if question == "" {
		return "", domain.ErrMissingQuestion
	}
	if sessionID == "" {
		return "", domain.ErrMissingSessionID
	}

	ctx, span := telemetry.StartSpan(ctx, "service.chat", telemetry.SpanAttributes{
		SessionID: sessionID,
		Operation: "answer_question",
	})
	defer span.End()

	history, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		span.SetError(err)
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to load session history", err)
	}

	rewriteCtx, cancel := context.WithTimeout(ctx, s.timeout)
	query, err := s.rewriter.Rewrite(rewriteCtx, history, question)
	cancel()
	if err != nil {
		span.SetError(err)
		return "", err
	}

	retrieveCtx, cancel := context.WithTimeout(ctx, s.timeout)
	chunks, err := s.retriever.Retrieve(retrieveCtx, query)
	cancel()
	if err != nil {
		span.SetError(err)
		return "", err
	}

	synthCtx, cancel := context.WithTimeout(ctx, s.timeout)
	answer, err := s.synthesizer.Synthesize(synthCtx, history, question, chunks)
	cancel()
	if err != nil {
		span.SetError(err)
		return "", err
	}

	if err := s.sessions.AppendExchange(ctx, sessionID, domain.UserTurn(question), domain.ModelTurn(answer)); err != nil {
		// The answer exists; losing the history write degrades future
		// rewrites but should not fail this request.
		log.Printf("failed to record exchange for session %s: %v", sessionID, err)
		telemetry.CaptureError(ctx, err)
	}

	return answer, nil
}
