package usecase

import (
	"context"
	"testing"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
)

func TestReloadSwapsSnapshot(t *testing.T) {
	store := &storeFake{chunks: testChunks("first chunk", "second chunk")}
	retriever := NewRetriever(&embedderFake{}, &denseSearcherFake{}, nil, DefaultRetrievalParams())
	uc := NewReloadCorpusUseCase(store, retriever)

	if err := uc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if retriever.CorpusSize() != 2 {
		t.Fatalf("expected snapshot of 2 chunks, got %d", retriever.CorpusSize())
	}
}

func TestReloadEmptyStore(t *testing.T) {
	retriever := NewRetriever(&embedderFake{}, &denseSearcherFake{}, nil, DefaultRetrievalParams())
	uc := NewReloadCorpusUseCase(&storeFake{}, retriever)

	err := uc.Reload(context.Background())
	if !domain.IsKind(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
	if retriever.CorpusSize() != 0 {
		t.Fatalf("retriever must stay empty after failed reload")
	}
}
