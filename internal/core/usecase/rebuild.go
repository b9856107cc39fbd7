package usecase

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
	"github.com/dkrasniqi/campus-assistant/internal/core/ports"
)

const embedBatchSize = 32

// RebuildCorpusUseCase builds a complete corpus snapshot off to the side:
// load sources, chunk, persist the chunk sequence, embed, rebuild the
// dense index, then announce the new snapshot. Readers keep serving the
// previous snapshot until they pick up the announcement.
type RebuildCorpusUseCase struct {
	loader   ports.CorpusLoader
	chunker  ports.Chunker
	store    ports.ChunkStore
	embedder ports.Embedder
	vectors  ports.VectorIndexer
	queue    ports.MessageQueue
}

func NewRebuildCorpusUseCase(
	loader ports.CorpusLoader,
	chunker ports.Chunker,
	store ports.ChunkStore,
	embedder ports.Embedder,
	vectors ports.VectorIndexer,
	queue ports.MessageQueue,
) *RebuildCorpusUseCase {
	return &RebuildCorpusUseCase{
		loader:   loader,
		chunker:  chunker,
		store:    store,
		embedder: embedder,
		vectors:  vectors,
		queue:    queue,
	}
}

// Rebuild returns the snapshot id it published.
func (uc *RebuildCorpusUseCase) Rebuild(ctx context.Context) (string, error) {
	sources, err := uc.loader.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load corpus sources: %w", err)
	}
	if len(sources) == 0 {
		return "", domain.WrapError(domain.ErrEmptyCorpus, "rebuild corpus", errors.New("no source documents found"))
	}

	docs, chunks := buildChunks(uc.chunker, sources)
	if len(chunks) == 0 {
		return "", domain.WrapError(domain.ErrEmptyCorpus, "rebuild corpus", errors.New("sources produced no chunks"))
	}

	if err := uc.store.ReplaceCorpus(ctx, docs, chunks); err != nil {
		return "", fmt.Errorf("persist corpus snapshot: %w", err)
	}

	vectors, err := uc.embedChunks(ctx, chunks)
	if err != nil {
		return "", fmt.Errorf("embed chunks: %w", err)
	}
	if err := uc.vectors.IndexChunks(ctx, chunks, vectors); err != nil {
		return "", fmt.Errorf("index chunk vectors: %w", err)
	}

	snapshotID := uuid.NewString()
	if err := uc.queue.PublishCorpusRebuilt(ctx, snapshotID); err != nil {
		return "", fmt.Errorf("publish corpus rebuilt: %w", err)
	}
	return snapshotID, nil
}

func buildChunks(chunker ports.Chunker, sources []domain.SourceText) ([]domain.Document, []domain.Chunk) {
	chunks := make([]domain.Chunk, 0, len(sources))
	docIndex := make(map[string]int)
	docs := make([]domain.Document, 0, 8)
	now := time.Now().UTC()

	for _, src := range sources {
		parts := chunker.Split(src.Text)
		for i, part := range parts {
			chunks = append(chunks, domain.Chunk{
				ID:      chunkID(src.Source, src.Ordinal, i),
				Text:    part,
				Source:  src.Source,
				Page:    src.Page,
				DocType: src.DocType,
			})
		}

		idx, ok := docIndex[src.Source]
		if !ok {
			idx = len(docs)
			docIndex[src.Source] = idx
			docs = append(docs, domain.Document{
				ID:         uuid.NewString(),
				Filename:   src.Source,
				DocType:    src.DocType,
				IngestedAt: now,
			})
		}
		docs[idx].Pages++
		docs[idx].ChunkCount += len(parts)
	}
	return docs, chunks
}

// chunkID derives a stable id from source, unit ordinal, and chunk
// position. Two rebuilds of the same sources assign the same ids; this is
// the contract deduplication relies on.
func chunkID(source string, ordinal, position int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%d|%d", source, ordinal, position)))
	return hex.EncodeToString(sum[:])[:12]
}

func (uc *RebuildCorpusUseCase) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-start)
		for _, chunk := range chunks[start:end] {
			texts = append(texts, chunk.Text)
		}

		batch, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embed batch at %d: got %d vectors for %d texts", start, len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
