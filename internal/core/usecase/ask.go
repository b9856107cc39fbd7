package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
	"github.com/dkrasniqi/campus-assistant/internal/core/ports"
)

const (
	greetingAnswer = "Hello! I'm the campus assistant. I can help you with information about programs, admissions, fees, scholarships, and more. What would you like to know?"
	farewellAnswer = "You're welcome! If you have more questions, feel free to ask. For additional assistance, contact the admissions office."
	noInfoAnswer   = "I couldn't find specific information about that in the available documents. Please contact the admissions office or check the official website for direct assistance."

	// Context shorter than this is treated as no usable retrieval.
	minUsableContextChars = 30
)

// AskUseCase answers a question by retrieving grounded context and handing
// it to the answer generator. Small-talk and empty-retrieval cases are
// answered from fixed templates without calling the generator.
type AskUseCase struct {
	retriever ports.ContextRetriever
	generator ports.AnswerGenerator

	topK           int
	semanticWeight float64
	maxChars       int
}

func NewAskUseCase(
	retriever ports.ContextRetriever,
	generator ports.AnswerGenerator,
	topK int,
	semanticWeight float64,
	maxChars int,
) *AskUseCase {
	def := DefaultRetrievalParams()
	if topK <= 0 {
		topK = def.TopK
	}
	if semanticWeight < 0 || semanticWeight > 1 {
		semanticWeight = def.SemanticWeight
	}
	if maxChars <= 0 {
		maxChars = def.MaxContextChars
	}
	return &AskUseCase{
		retriever:      retriever,
		generator:      generator,
		topK:           topK,
		semanticWeight: semanticWeight,
		maxChars:       maxChars,
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("empty question"))
	}

	if answer, ok := smallTalkAnswer(question); ok {
		return &domain.Answer{Text: answer, Citations: []domain.Citation{}}, nil
	}

	result, err := uc.retriever.Retrieve(ctx, question, uc.topK, uc.semanticWeight, uc.maxChars)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	if len(strings.TrimSpace(result.Context)) < minUsableContextChars {
		return &domain.Answer{Text: noInfoAnswer, Citations: []domain.Citation{}}, nil
	}

	text, err := uc.generator.GenerateAnswer(ctx, question, result.Context)
	if err != nil {
		slog.Warn("answer_generation_failed", "error", err, "fallback", "extractive")
		text = extractiveFallback(result.Context)
	}

	return &domain.Answer{Text: text, Citations: result.Citations}, nil
}

func smallTalkAnswer(question string) (string, bool) {
	lower := strings.ToLower(question)
	words := strings.Fields(lower)

	head := words
	if len(head) > 2 {
		head = head[:2]
	}
	for _, word := range head {
		switch strings.Trim(word, ".,!?") {
		case "hello", "hi", "hey":
			return greetingAnswer, true
		}
	}

	if len(words) < 5 && containsAny(lower, []string{"bye", "goodbye", "thanks", "thank you"}) {
		return farewellAnswer, true
	}
	return "", false
}

// extractiveFallback surfaces the top-ranked context block when the
// generator is unavailable, so the caller still gets grounded text.
func extractiveFallback(contextText string) string {
	block, _, _ := strings.Cut(contextText, contextSeparator)
	block = strings.TrimSpace(block)
	if idx := strings.Index(block, "] "); idx >= 0 && idx < 8 {
		block = block[idx+2:]
	}
	const maxFallbackChars = 400
	if len(block) > maxFallbackChars {
		block = truncateToRuneBoundary(block, maxFallbackChars) + excerptMarker
	}
	return "From the university documents: " + block
}
