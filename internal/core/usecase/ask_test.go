package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
)

type retrieverFake struct {
	result domain.RetrievalResult
	err    error
	calls  int
	lastK  int
}

func (f *retrieverFake) Retrieve(_ context.Context, _ string, k int, _ float64, _ int) (domain.RetrievalResult, error) {
	f.calls++
	f.lastK = k
	return f.result, f.err
}

type generatorFake struct {
	answer string
	err    error
	calls  int
}

func (f *generatorFake) GenerateAnswer(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func usableResult() domain.RetrievalResult {
	return domain.RetrievalResult{
		Context: "[1] The winter break runs from December 23rd until January 8th.",
		Citations: []domain.Citation{{
			Rank: 1, Excerpt: "The winter break runs", Source: "calendar.pdf",
			Page: "2", DocType: domain.DocTypePDF, Score: 0.71, Origin: domain.OriginHybrid,
		}},
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	uc := NewAskUseCase(&retrieverFake{}, &generatorFake{}, 0, 0.5, 0)
	_, err := uc.Ask(context.Background(), "   ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAskGreetingSkipsRetrieval(t *testing.T) {
	retriever := &retrieverFake{}
	generator := &generatorFake{}
	uc := NewAskUseCase(retriever, generator, 0, 0.5, 0)

	answer, err := uc.Ask(context.Background(), "Hello there!")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Text != greetingAnswer {
		t.Fatalf("expected greeting template, got %q", answer.Text)
	}
	if retriever.calls != 0 || generator.calls != 0 {
		t.Fatalf("greeting must not hit retrieval or generation")
	}
}

func TestAskFarewellShortMessage(t *testing.T) {
	uc := NewAskUseCase(&retrieverFake{}, &generatorFake{}, 0, 0.5, 0)
	answer, err := uc.Ask(context.Background(), "ok thanks a lot")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Text != farewellAnswer {
		t.Fatalf("expected farewell template, got %q", answer.Text)
	}
}

func TestAskLongThanksStillRetrieves(t *testing.T) {
	retriever := &retrieverFake{result: usableResult()}
	uc := NewAskUseCase(retriever, &generatorFake{answer: "grounded"}, 0, 0.5, 0)

	if _, err := uc.Ask(context.Background(), "thanks, but when does the winter break actually start"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if retriever.calls != 1 {
		t.Fatalf("long question with thanks must still retrieve")
	}
}

func TestAskNoContextAnswersFromTemplate(t *testing.T) {
	generator := &generatorFake{answer: "should not be used"}
	uc := NewAskUseCase(&retrieverFake{}, generator, 0, 0.5, 0)

	answer, err := uc.Ask(context.Background(), "what color is the dean's office")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Text != noInfoAnswer {
		t.Fatalf("expected no-info template, got %q", answer.Text)
	}
	if len(answer.Citations) != 0 {
		t.Fatalf("no-info answer must carry no citations")
	}
	if generator.calls != 0 {
		t.Fatalf("generator must not run without usable context")
	}
}

func TestAskGeneratesGroundedAnswer(t *testing.T) {
	retriever := &retrieverFake{result: usableResult()}
	generator := &generatorFake{answer: "The winter break starts December 23rd."}
	uc := NewAskUseCase(retriever, generator, 6, 0.5, 0)

	answer, err := uc.Ask(context.Background(), "when does winter break start")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Text != "The winter break starts December 23rd." {
		t.Fatalf("unexpected answer: %q", answer.Text)
	}
	if len(answer.Citations) != 1 {
		t.Fatalf("expected retrieval citations on the answer")
	}
	if retriever.lastK != 6 {
		t.Fatalf("expected configured top-k=6, got %d", retriever.lastK)
	}
}

func TestAskGenerationFailureFallsBackToExtract(t *testing.T) {
	retriever := &retrieverFake{result: usableResult()}
	generator := &generatorFake{err: errors.New("llm unreachable")}
	uc := NewAskUseCase(retriever, generator, 0, 0.5, 0)

	answer, err := uc.Ask(context.Background(), "when does winter break start")
	if err != nil {
		t.Fatalf("expected extractive fallback, got error %v", err)
	}
	if !strings.Contains(answer.Text, "The winter break runs from December 23rd") {
		t.Fatalf("fallback must surface top context block, got %q", answer.Text)
	}
	if len(answer.Citations) != 1 {
		t.Fatalf("fallback keeps citations")
	}
}

func TestAskRetrievalErrorPropagates(t *testing.T) {
	retriever := &retrieverFake{err: domain.ErrRetrievalUnavailable}
	uc := NewAskUseCase(retriever, &generatorFake{}, 0, 0.5, 0)

	_, err := uc.Ask(context.Background(), "when is registration")
	if !domain.IsKind(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
}
