package ports

import (
	"context"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
)

// Embedder builds vectors for chunk and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// DenseSearcher is the nearest-neighbor capability the retrieval core
// consumes. Hits arrive sorted by descending similarity; Index points into
// the corpus snapshot the vectors were built from and Similarity lies in
// cosine/inner-product space [-1, 1].
type DenseSearcher interface {
	Search(ctx context.Context, queryVector []float32, k int) ([]domain.DenseHit, error)
}

// VectorIndexer rebuilds the dense index for a corpus snapshot.
type VectorIndexer interface {
	IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
}

// ChunkStore persists the corpus snapshot the API serves from.
type ChunkStore interface {
	ReplaceCorpus(ctx context.Context, docs []domain.Document, chunks []domain.Chunk) error
	ListChunks(ctx context.Context) ([]domain.Chunk, error)
}

// CorpusLoader reads raw source files into extracted text units.
type CorpusLoader interface {
	Load(ctx context.Context) ([]domain.SourceText, error)
}

// Chunker splits extracted text into overlapping windows.
type Chunker interface {
	Split(text string) []string
}

// MessageQueue signals corpus rebuilds between the indexer and the API.
type MessageQueue interface {
	PublishCorpusRebuilt(ctx context.Context, snapshotID string) error
	SubscribeCorpusRebuilt(ctx context.Context, handler func(context.Context, string) error) error
}

// AnswerGenerator composes the final user-facing answer from retrieved
// context.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question, context string) (string, error)
}
