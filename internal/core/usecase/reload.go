package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
	"github.com/dkrasniqi/campus-assistant/internal/core/ports"
)

// ReloadCorpusUseCase loads the persisted corpus snapshot and swaps it
// into the retriever atomically.
type ReloadCorpusUseCase struct {
	store     ports.ChunkStore
	retriever *Retriever
}

func NewReloadCorpusUseCase(store ports.ChunkStore, retriever *Retriever) *ReloadCorpusUseCase {
	return &ReloadCorpusUseCase{store: store, retriever: retriever}
}

func (uc *ReloadCorpusUseCase) Reload(ctx context.Context) error {
	chunks, err := uc.store.ListChunks(ctx)
	if err != nil {
		return fmt.Errorf("list corpus chunks: %w", err)
	}
	if len(chunks) == 0 {
		return domain.WrapError(domain.ErrEmptyCorpus, "reload corpus", errors.New("chunk store is empty"))
	}

	if err := uc.retriever.SetCorpus(chunks); err != nil {
		return fmt.Errorf("swap corpus snapshot: %w", err)
	}
	slog.Info("corpus_reloaded", "chunks", len(chunks))
	return nil
}
