package ports

import (
	"context"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
)

// ContextRetriever is the single retrieval entry point the rest of the
// system calls.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, k int, semanticWeight float64, maxChars int) (domain.RetrievalResult, error)
}

// QuestionAnswerer is the inbound contract for grounded question answering.
type QuestionAnswerer interface {
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}

// CorpusRebuilder rebuilds the persisted corpus snapshot from raw sources.
type CorpusRebuilder interface {
	Rebuild(ctx context.Context) (string, error)
}

// CorpusReloader swaps in a freshly loaded corpus snapshot.
type CorpusReloader interface {
	Reload(ctx context.Context) error
}
