package domain

import "time"

// SourceText is one extracted unit of raw text before chunking: a PDF page,
// a whole txt file, an FAQ section, or a spreadsheet sheet. Ordinal is the
// unit's position within its source file and feeds stable chunk ids; Page
// is the citation-facing page number, PageNone for non-paginated sources.
type SourceText struct {
	Source  string  `json:"source"`
	DocType DocType `json:"doc_type"`
	Page    int     `json:"page"`
	Ordinal int     `json:"ordinal"`
	Text    string  `json:"text"`
}

// Document summarizes one ingested source file within a corpus snapshot.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	DocType    DocType   `json:"doc_type"`
	Pages      int       `json:"pages"`
	ChunkCount int       `json:"chunk_count"`
	IngestedAt time.Time `json:"ingested_at"`
}
