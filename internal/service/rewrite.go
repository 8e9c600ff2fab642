package service

import (
	"context"
	"strings"

	"github.com/cloo-solutions/askdsa/internal/domain"
	"github.com/cloo-solutions/askdsa/internal/telemetry"
)

const rewriteInstruction = `You are a query rewriting expert. Based on the provided chat history, rephrase the "Follow Up user Question" into a complete, standalone question that can be understood without the chat history.
Only output the rewritten question and nothing else.`

// TextGenerator produces text from a conversation and a system instruction
type TextGenerator interface {
	GenerateText(ctx context.Context, systemInstruction string, turns []domain.Turn) (string, error)
}

// Rewriter turns a follow-up question into a standalone one using the
// session's history. The history itself is never modified; the question is
// folded in as a trailing user turn for the duration of the call.
type Rewriter struct {
	generator TextGenerator
}

func NewRewriter(generator TextGenerator) *Rewriter {
	return &Rewriter{generator: generator}
}

// Rewrite returns the standalone form of the question. With no history there
// is nothing to resolve, so the question passes through unchanged without a
// generation call.
func (r *Rewriter) Rewrite(ctx context.Context, history []domain.Turn, question string) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	ctx, span := telemetry.StartSpan(ctx, "service.rewrite", telemetry.SpanAttributes{
		Operation: "rewrite_query",
	})
	defer span.End()

	turns := make([]domain.Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, domain.UserTurn(question))

	rewritten, err := r.generator.GenerateText(ctx, rewriteInstruction, turns)
	if err != nil {
		span.SetError(err)
		return "", domain.ErrGenerationFailed.WithCause(err)
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		rewritten = question
	}

	return rewritten, nil
}
