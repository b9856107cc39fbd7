package domain

// Origin records which search branch surfaced a chunk.
type Origin string

const (
	OriginDense   Origin = "dense"
	OriginLexical Origin = "lexical"
	OriginHybrid  Origin = "hybrid"
)

// DenseHit is one nearest-neighbor result from the dense search adapter.
// Index points into the corpus snapshot; Similarity is raw cosine/inner
// product space in [-1, 1].
type DenseHit struct {
	Index      int
	Similarity float64
}

// ScoredChunk is a per-query transient pairing of a corpus chunk with its
// normalized [0,1] score. The chunk is referenced, not copied; the corpus
// snapshot outlives it.
type ScoredChunk struct {
	Chunk  *Chunk
	Score  float64
	Origin Origin
}

// Citation is the consumer-facing reference for one surfaced chunk.
type Citation struct {
	Rank    int     `json:"rank"`
	Excerpt string  `json:"excerpt"`
	Source  string  `json:"source"`
	Page    string  `json:"page"`
	DocType DocType `json:"doc_type"`
	Score   float64 `json:"score"`
	Origin  Origin  `json:"origin"`
}

// RetrievalResult is the core output boundary: budgeted context text plus
// citations in rank order.
type RetrievalResult struct {
	Context   string     `json:"context"`
	Citations []Citation `json:"citations"`
}

// Answer is the user-facing response composed from retrieved context.
type Answer struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}
