package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
)

type embedderFake struct {
	lastQuery string
	err       error
	calls     int
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.calls++
	f.lastQuery = text
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type denseSearcherFake struct {
	hits  []domain.DenseHit
	err   error
	lastK int
	calls int
}

func (f *denseSearcherFake) Search(_ context.Context, _ []float32, k int) ([]domain.DenseHit, error) {
	f.calls++
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func newTestRetriever(t *testing.T, dense *denseSearcherFake, texts ...string) *Retriever {
	t.Helper()
	r := NewRetriever(&embedderFake{}, dense, nil, DefaultRetrievalParams())
	if len(texts) > 0 {
		if err := r.SetCorpus(testChunks(texts...)); err != nil {
			t.Fatalf("SetCorpus() error = %v", err)
		}
	}
	return r
}

func TestRetrieveInvalidWeightRejectedBeforeSearch(t *testing.T) {
	embedder := &embedderFake{}
	dense := &denseSearcherFake{}
	r := NewRetriever(embedder, dense, nil, DefaultRetrievalParams())
	if err := r.SetCorpus(testChunks("some chunk text")); err != nil {
		t.Fatalf("SetCorpus() error = %v", err)
	}

	_, err := r.Retrieve(context.Background(), "query", 5, 1.5, 3000)
	if !domain.IsKind(err, domain.ErrInvalidWeight) {
		t.Fatalf("expected ErrInvalidWeight, got %v", err)
	}
	if embedder.calls != 0 || dense.calls != 0 {
		t.Fatalf("no search may run with an invalid weight")
	}
}

func TestRetrieveEmptyCorpusReturnsEmptyResult(t *testing.T) {
	r := newTestRetriever(t, &denseSearcherFake{})

	result, err := r.Retrieve(context.Background(), "anything", 5, 0.5, 3000)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if result.Context != "" || len(result.Citations) != 0 {
		t.Fatalf("expected empty result on empty corpus, got %+v", result)
	}
}

func TestRetrieveZeroKReturnsNothing(t *testing.T) {
	dense := &denseSearcherFake{hits: []domain.DenseHit{{Index: 0, Similarity: 0.9}}}
	r := newTestRetriever(t, dense, "tuition fee details")

	result, err := r.Retrieve(context.Background(), "tuition", 0, 0.5, 3000)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(result.Citations) != 0 {
		t.Fatalf("k=0 must surface nothing, got %d citations", len(result.Citations))
	}
}

func TestRetrieveCitationCountBoundedByK(t *testing.T) {
	dense := &denseSearcherFake{hits: []domain.DenseHit{
		{Index: 0, Similarity: 0.9},
		{Index: 1, Similarity: 0.8},
		{Index: 2, Similarity: 0.7},
	}}
	r := newTestRetriever(t, dense,
		"exam schedule spring",
		"exam schedule fall",
		"exam regulations",
	)

	result, err := r.Retrieve(context.Background(), "exam schedule", 2, 0.5, 3000)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(result.Citations) > 2 {
		t.Fatalf("citations exceed k: %d", len(result.Citations))
	}
	for i, citation := range result.Citations {
		if citation.Rank != i+1 {
			t.Fatalf("rank sequence broken at %d: %+v", i, citation)
		}
	}
}

func TestRetrieveRequestsOverfetchedCandidates(t *testing.T) {
	dense := &denseSearcherFake{}
	r := newTestRetriever(t, dense, "campus housing options")

	if _, err := r.Retrieve(context.Background(), "housing", 4, 0.5, 3000); err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	// Each branch over-fetches 2k and the dense adapter is probed with up
	// to twice that to tolerate below-threshold entries.
	if dense.lastK != 16 {
		t.Fatalf("expected dense adapter asked for 16 candidates, got %d", dense.lastK)
	}
}

func TestRetrieveDenseFailureFallsBackToLexical(t *testing.T) {
	dense := &denseSearcherFake{err: errors.New("vector store down")}
	r := newTestRetriever(t, dense,
		"scholarship deadline is in june",
		"library opening hours",
	)

	result, err := r.Retrieve(context.Background(), "scholarship deadline", 5, 0.5, 3000)
	if err != nil {
		t.Fatalf("expected lexical-only fallback, got error %v", err)
	}
	if len(result.Citations) == 0 {
		t.Fatalf("expected lexical results despite dense failure")
	}
	for _, citation := range result.Citations {
		if citation.Origin != domain.OriginLexical {
			t.Fatalf("fallback results must be lexical, got %s", citation.Origin)
		}
	}
}

func TestRetrieveBothBranchesFailing(t *testing.T) {
	dense := &denseSearcherFake{err: errors.New("vector store down")}
	r := newTestRetriever(t, dense, "nothing matches this corpus")

	_, err := r.Retrieve(context.Background(), "zzzz qqqq", 5, 0.5, 3000)
	if !domain.IsKind(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
}

func TestRetrieveEnhancedQueryReachesBothBranches(t *testing.T) {
	embedder := &embedderFake{}
	dense := &denseSearcherFake{}
	r := NewRetriever(embedder, dense, nil, DefaultRetrievalParams())
	if err := r.SetCorpus(testChunks("presence class participation requirement policy text")); err != nil {
		t.Fatalf("SetCorpus() error = %v", err)
	}

	result, err := r.Retrieve(context.Background(), "what is the attendance rule", 5, 0.5, 3000)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !strings.Contains(embedder.lastQuery, "presence class participation") {
		t.Fatalf("dense branch did not see the enhanced query: %q", embedder.lastQuery)
	}
	// The lexical branch sees the same enhanced query, so the synonym
	// terms alone produce a match here.
	if len(result.Citations) == 0 {
		t.Fatalf("expected lexical hit via enhanced query")
	}
}

func TestRetrieveContextNeverExceedsBudget(t *testing.T) {
	dense := &denseSearcherFake{hits: []domain.DenseHit{
		{Index: 0, Similarity: 0.9},
		{Index: 1, Similarity: 0.8},
	}}
	r := newTestRetriever(t, dense,
		strings.Repeat("tuition ", 100),
		strings.Repeat("payment ", 100),
	)

	for _, budget := range []int{50, 200, 900} {
		result, err := r.Retrieve(context.Background(), "tuition payment", 5, 0.5, budget)
		if err != nil {
			t.Fatalf("Retrieve() error = %v", err)
		}
		if len(result.Context) > budget {
			t.Fatalf("budget %d exceeded: context length %d", budget, len(result.Context))
		}
	}
}

func TestSetCorpusRejectsEmptyAndKeepsPreviousSnapshot(t *testing.T) {
	r := newTestRetriever(t, &denseSearcherFake{}, "existing corpus chunk")

	if err := r.SetCorpus(nil); !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
	if r.CorpusSize() != 1 {
		t.Fatalf("previous snapshot must survive a rejected swap, size=%d", r.CorpusSize())
	}
}

func TestRetrieveHybridOriginForDoubleMatch(t *testing.T) {
	// Chunk 0 is returned by the dense fake and also matches lexically.
	dense := &denseSearcherFake{hits: []domain.DenseHit{{Index: 0, Similarity: 0.6}}}
	r := newTestRetriever(t, dense,
		"winter break vacation dates",
		"unrelated catering menu",
	)

	result, err := r.Retrieve(context.Background(), "winter break", 5, 0.5, 3000)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(result.Citations) == 0 {
		t.Fatalf("expected results")
	}
	if result.Citations[0].Origin != domain.OriginHybrid {
		t.Fatalf("double-matched chunk must be hybrid, got %s", result.Citations[0].Origin)
	}
}
