package usecase

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
)

const (
	bm25K1 = 1.5
	bm25B  = 0.75

	// defaultLexicalScoreScale maps raw BM25 scores into [0,1]. It is a
	// calibration constant, not a derived bound; scores above the scale
	// clamp to 1.0.
	defaultLexicalScoreScale = 10.0
)

type posting struct {
	chunk int
	freq  int
}

// LexicalIndex is a BM25 term-frequency index over one corpus snapshot.
// It is built once at construction and never mutated; rebuilding the
// corpus means building a new index.
type LexicalIndex struct {
	postings   map[string][]posting
	docLengths []int
	avgDocLen  float64
	scoreScale float64
}

// NewLexicalIndex builds the index from the full chunk sequence. A zero
// scoreScale falls back to the default calibration constant.
func NewLexicalIndex(chunks []domain.Chunk, scoreScale float64) (*LexicalIndex, error) {
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	if scoreScale <= 0 {
		scoreScale = defaultLexicalScoreScale
	}

	idx := &LexicalIndex{
		postings:   make(map[string][]posting),
		docLengths: make([]int, len(chunks)),
		scoreScale: scoreScale,
	}

	totalLen := 0
	for i, chunk := range chunks {
		tokens := tokenize(chunk.Text)
		idx.docLengths[i] = len(tokens)
		totalLen += len(tokens)

		freq := make(map[string]int, len(tokens))
		for _, token := range tokens {
			freq[token]++
		}
		for token, n := range freq {
			idx.postings[token] = append(idx.postings[token], posting{chunk: i, freq: n})
		}
	}
	idx.avgDocLen = float64(totalLen) / float64(len(chunks))

	return idx, nil
}

// Size reports the number of indexed chunks.
func (idx *LexicalIndex) Size() int {
	return len(idx.docLengths)
}

// Score computes raw BM25 scores for every chunk with nonzero term overlap.
func (idx *LexicalIndex) Score(query string) map[int]float64 {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(tokens))
	scores := make(map[int]float64)
	n := float64(len(idx.docLengths))

	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}

		plist := idx.postings[token]
		if len(plist) == 0 {
			continue
		}
		idf := math.Log(1 + (n-float64(len(plist))+0.5)/(float64(len(plist))+0.5))
		for _, p := range plist {
			tf := float64(p.freq)
			norm := 1 - bm25B + bm25B*float64(idx.docLengths[p.chunk])/idx.avgDocLen
			scores[p.chunk] += idf * tf * (bm25K1 + 1) / (tf + bm25K1*norm)
		}
	}
	return scores
}

// KeywordSearch scores the corpus against the query, keeps the top k
// nonzero entries, and normalizes each into [0,1] by the fixed score
// scale, clamped at 1.0. Deterministic for a fixed index and query.
func (idx *LexicalIndex) KeywordSearch(query string, k int) []searchHit {
	if k <= 0 {
		return nil
	}

	scores := idx.Score(query)
	if len(scores) == 0 {
		return nil
	}

	hits := make([]searchHit, 0, len(scores))
	for chunk, raw := range scores {
		if raw <= 0 {
			continue
		}
		hits = append(hits, searchHit{index: chunk, score: raw})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].index < hits[j].index
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	for i := range hits {
		hits[i].score = math.Min(hits[i].score/idx.scoreScale, 1.0)
	}
	return hits
}

// tokenize lowercases the input and extracts maximal alphanumeric runs;
// every non-alphanumeric rune is a separator. Both indexing and querying
// use this same rule.
func tokenize(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
