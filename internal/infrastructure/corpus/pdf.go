package corpus

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
)

// loadPDF extracts one text unit per page so citations can point at the
// page the text came from. Pages without extractable text are skipped.
func loadPDF(path, name string) ([]domain.SourceText, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	var out []domain.SourceText
	ordinal := 0
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", pageNum, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		out = append(out, domain.SourceText{
			Source:  name,
			DocType: domain.DocTypePDF,
			Page:    pageNum,
			Ordinal: ordinal,
			Text:    text,
		})
		ordinal++
	}
	return out, nil
}
