package usecase

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
	"github.com/dkrasniqi/campus-assistant/internal/core/ports"
)

// RetrievalParams carries the calibration constants of the retrieval core.
// All values have fixed defaults and are overridable through config.
type RetrievalParams struct {
	TopK               int
	SemanticWeight     float64
	MaxContextChars    int
	MinDenseSimilarity float64
	LexicalScoreScale  float64
	ExcerptMaxChars    int
	OverfetchFactor    int
}

func DefaultRetrievalParams() RetrievalParams {
	return RetrievalParams{
		TopK:               8,
		SemanticWeight:     0.5,
		MaxContextChars:    3000,
		MinDenseSimilarity: 0.25,
		LexicalScoreScale:  defaultLexicalScoreScale,
		ExcerptMaxChars:    150,
		OverfetchFactor:    2,
	}
}

func (p RetrievalParams) normalize() RetrievalParams {
	def := DefaultRetrievalParams()
	out := p
	if out.TopK <= 0 {
		out.TopK = def.TopK
	}
	if out.SemanticWeight < 0 || out.SemanticWeight > 1 {
		out.SemanticWeight = def.SemanticWeight
	}
	if out.MaxContextChars <= 0 {
		out.MaxContextChars = def.MaxContextChars
	}
	if out.MinDenseSimilarity <= 0 {
		out.MinDenseSimilarity = def.MinDenseSimilarity
	}
	if out.LexicalScoreScale <= 0 {
		out.LexicalScoreScale = def.LexicalScoreScale
	}
	if out.ExcerptMaxChars <= 0 {
		out.ExcerptMaxChars = def.ExcerptMaxChars
	}
	if out.OverfetchFactor <= 0 {
		out.OverfetchFactor = def.OverfetchFactor
	}
	return out
}

// corpusSnapshot pairs a chunk sequence with its lexical index. Snapshots
// are immutable after construction; rebuilds publish a fresh snapshot via
// atomic swap so concurrent queries never observe partial state.
type corpusSnapshot struct {
	chunks  []domain.Chunk
	lexical *LexicalIndex
}

// Retriever fuses dense and lexical search over the current corpus
// snapshot and assembles budgeted, citation-bearing context.
type Retriever struct {
	embedder ports.Embedder
	dense    ports.DenseSearcher
	enhancer *QueryEnhancer
	params   RetrievalParams

	snapshot atomic.Pointer[corpusSnapshot]
}

func NewRetriever(
	embedder ports.Embedder,
	dense ports.DenseSearcher,
	enhancer *QueryEnhancer,
	params RetrievalParams,
) *Retriever {
	if enhancer == nil {
		enhancer = NewQueryEnhancer(nil)
	}
	return &Retriever{
		embedder: embedder,
		dense:    dense,
		enhancer: enhancer,
		params:   params.normalize(),
	}
}

// SetCorpus builds a lexical index for the given chunks and atomically
// swaps the snapshot in. The previous snapshot stays live for queries
// already in flight.
func (r *Retriever) SetCorpus(chunks []domain.Chunk) error {
	lexical, err := NewLexicalIndex(chunks, r.params.LexicalScoreScale)
	if err != nil {
		return fmt.Errorf("build lexical index: %w", err)
	}
	r.snapshot.Store(&corpusSnapshot{chunks: chunks, lexical: lexical})
	return nil
}

// CorpusSize reports the chunk count of the current snapshot.
func (r *Retriever) CorpusSize() int {
	snap := r.snapshot.Load()
	if snap == nil {
		return 0
	}
	return len(snap.chunks)
}

// Retrieve is the single retrieval entry point. Zero or negative k and
// maxChars fall back to configured defaults; retrieval without a loaded
// corpus returns an empty result rather than failing.
func (r *Retriever) Retrieve(
	ctx context.Context,
	query string,
	k int,
	semanticWeight float64,
	maxChars int,
) (domain.RetrievalResult, error) {
	if math.IsNaN(semanticWeight) || semanticWeight < 0 || semanticWeight > 1 {
		return domain.RetrievalResult{}, domain.WrapError(
			domain.ErrInvalidWeight,
			"retrieve",
			fmt.Errorf("semantic_weight=%v", semanticWeight),
		)
	}
	if k < 0 {
		k = r.params.TopK
	}
	if maxChars <= 0 {
		maxChars = r.params.MaxContextChars
	}

	snap := r.snapshot.Load()
	if k == 0 || snap == nil || len(snap.chunks) == 0 {
		return domain.RetrievalResult{}, nil
	}

	ranked, err := r.hybridSearch(ctx, snap, query, k, semanticWeight)
	if err != nil {
		return domain.RetrievalResult{}, err
	}

	return assembleContext(ranked, maxChars, r.params.ExcerptMaxChars), nil
}
