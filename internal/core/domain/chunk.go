package domain

import "strconv"

// PageNone marks chunks from non-paginated sources (txt, faq, xlsx).
const PageNone = -1

type DocType string

const (
	DocTypePDF  DocType = "pdf"
	DocTypeTXT  DocType = "txt"
	DocTypeFAQ  DocType = "faq"
	DocTypeXLSX DocType = "xlsx"
)

// Chunk is the atomic retrievable unit of corpus text. Its ID is stable
// for the lifetime of a corpus snapshot and unique within it.
type Chunk struct {
	ID      string  `json:"id"`
	Text    string  `json:"text"`
	Source  string  `json:"source"`
	Page    int     `json:"page"`
	DocType DocType `json:"doc_type"`
}

// PageLabel renders the page for citations; non-paginated sources show N/A.
func (c Chunk) PageLabel() string {
	if c.Page < 0 {
		return "N/A"
	}
	return strconv.Itoa(c.Page)
}
