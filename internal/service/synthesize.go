package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/askdsa/internal/domain"
	"github.com/cloo-solutions/askdsa/internal/telemetry"
)

// ScopeRefusal is the fixed answer for questions the indexed material cannot
// answer. It must stay byte-identical across turns so clients and tests can
// distinguish it from a free-form answer.
const ScopeRefusal = `I am a data structures and algorithms assistant. I can only answer questions covered by my study material. Please ask me something about data structures or algorithms.`

// contextDelimiter separates retrieved passages inside the system instruction
const contextDelimiter = "\n\n---\n\n"

const synthesisInstructionFormat = `You have to behave like a Data Structure and Algorithm Expert.
You will be given a context of relevant information and a user question.
Your task is to answer the user's question based ONLY on the provided context.
If the answer is not in the context, you must say "%s"
Keep your answers clear, concise, and educational.

Context: %s`

// Synthesizer produces a grounded answer from retrieved context and the
// conversation so far.
type Synthesizer struct {
	generator TextGenerator
}

func NewSynthesizer(generator TextGenerator) *Synthesizer {
	return &Synthesizer{generator: generator}
}

// Synthesize answers the question using only the supplied chunks. The
// original (not rewritten) question is what joins the conversation. With no
// retrieved context there is nothing to ground an answer in, so the refusal
// is returned directly without a generation call.
func (s *Synthesizer) Synthesize(ctx context.Context, history []domain.Turn, question string, chunks []domain.RetrievedChunk) (string, error) {
	if len(chunks) == 0 {
		return ScopeRefusal, nil
	}

	ctx, span := telemetry.StartSpan(ctx, "service.synthesize", telemetry.SpanAttributes{
		Operation: "synthesize_answer",
	})
	defer span.End()

	passages := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		passages = append(passages, chunk.Content)
	}
	instruction := fmt.Sprintf(synthesisInstructionFormat, ScopeRefusal, strings.Join(passages, contextDelimiter))

	turns := make([]domain.Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, domain.UserTurn(question))

	answer, err := s.generator.GenerateText(ctx, instruction, turns)
	if err != nil {
		span.SetError(err)
		return "", domain.ErrGenerationFailed.WithCause(err)
	}

	return strings.TrimSpace(answer), nil
}
