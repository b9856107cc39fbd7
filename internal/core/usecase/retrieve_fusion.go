package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
)

// searchHit is one branch result: a corpus index with a normalized [0,1]
// score.
type searchHit struct {
	index int
	score float64
}

type fusedHit struct {
	index  int
	score  float64
	origin domain.Origin
}

// hybridSearch runs both branches against the same enhanced query and
// merges their scores. A failed dense branch degrades to lexical-only
// results with a warning; only both branches coming back empty-handed
// after a failure surfaces an error.
func (r *Retriever) hybridSearch(
	ctx context.Context,
	snap *corpusSnapshot,
	query string,
	k int,
	semanticWeight float64,
) ([]domain.ScoredChunk, error) {
	enhanced := r.enhancer.Enhance(query)

	// Over-fetch from each branch so deduplication and threshold loss
	// still leave k candidates.
	fetch := k * r.params.OverfetchFactor

	denseHits, denseErr := r.denseSearch(ctx, snap, enhanced, fetch)
	if denseErr != nil {
		slog.Warn("dense_search_failed", "error", denseErr, "fallback", "lexical_only")
	}
	lexicalHits := snap.lexical.KeywordSearch(enhanced, fetch)

	if denseErr != nil && len(lexicalHits) == 0 {
		return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "hybrid search", denseErr)
	}

	fused := fuseSearchHits(denseHits, lexicalHits, semanticWeight, k, len(snap.chunks))

	out := make([]domain.ScoredChunk, 0, len(fused))
	for _, hit := range fused {
		out = append(out, domain.ScoredChunk{
			Chunk:  &snap.chunks[hit.index],
			Score:  hit.score,
			Origin: hit.origin,
		})
	}
	return out, nil
}

// fuseSearchHits merges the two branch result lists with additive weighted
// scoring, deduplicating by chunk. Chunk ids are unique within a snapshot,
// so the corpus index stands in for the id as deduplication key. The merge
// is symmetric in branch completion order and fully deterministic.
func fuseSearchHits(denseHits, lexicalHits []searchHit, semanticWeight float64, k, corpusLen int) []fusedHit {
	type fusedScore struct {
		dense   float64
		lexical float64
		origin  domain.Origin
	}

	acc := make(map[int]*fusedScore, len(denseHits)+len(lexicalHits))
	for _, hit := range denseHits {
		if hit.index < 0 || hit.index >= corpusLen {
			continue
		}
		if _, ok := acc[hit.index]; ok {
			continue
		}
		acc[hit.index] = &fusedScore{
			dense:  hit.score * semanticWeight,
			origin: domain.OriginDense,
		}
	}
	for _, hit := range lexicalHits {
		if hit.index < 0 || hit.index >= corpusLen {
			continue
		}
		if entry, ok := acc[hit.index]; ok {
			entry.lexical = hit.score * (1 - semanticWeight)
			entry.origin = domain.OriginHybrid
			continue
		}
		acc[hit.index] = &fusedScore{
			lexical: hit.score * (1 - semanticWeight),
			origin:  domain.OriginLexical,
		}
	}

	fused := make([]fusedHit, 0, len(acc))
	for index, entry := range acc {
		combined := entry.dense + entry.lexical
		if combined <= 0 {
			// Matched a branch but every contribution clamped to zero.
			continue
		}
		fused = append(fused, fusedHit{index: index, score: combined, origin: entry.origin})
	}

	// Ties break by corpus order so results stay deterministic across
	// runs and branch completion order.
	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].index < fused[j].index
	})
	if len(fused) > k {
		fused = fused[:k]
	}
	return fused
}

// denseSearch embeds the query, asks the adapter for up to 2k candidates,
// converts raw similarity into [0,1] via (s+1)/2, and keeps the first k
// that clear the minimum-similarity threshold.
func (r *Retriever) denseSearch(
	ctx context.Context,
	snap *corpusSnapshot,
	query string,
	k int,
) ([]searchHit, error) {
	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.dense.Search(ctx, queryVector, 2*k)
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}

	out := make([]searchHit, 0, k)
	for _, hit := range hits {
		if hit.Index < 0 || hit.Index >= len(snap.chunks) {
			continue
		}
		similarity := (hit.Similarity + 1) / 2
		if similarity < r.params.MinDenseSimilarity {
			continue
		}
		out = append(out, searchHit{index: hit.Index, score: similarity})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}
