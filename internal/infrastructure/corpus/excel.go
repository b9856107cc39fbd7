package corpus

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
)

// loadWorkbook flattens each sheet of an xlsx file into one text unit.
// Rows become lines and cells are joined with a separator, which keeps
// question/answer style sheets readable after chunking.
func loadWorkbook(path, name string) ([]domain.SourceText, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer file.Close()

	var out []domain.SourceText
	ordinal := 0
	for _, sheet := range file.GetSheetList() {
		rows, err := file.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		var lines []string
		for _, row := range rows {
			var cells []string
			for _, cell := range row {
				trimmed := strings.TrimSpace(cell)
				if trimmed != "" {
					cells = append(cells, trimmed)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, " | "))
			}
		}
		if len(lines) == 0 {
			continue
		}

		out = append(out, domain.SourceText{
			Source:  name,
			DocType: domain.DocTypeXLSX,
			Page:    domain.PageNone,
			Ordinal: ordinal,
			Text:    strings.Join(lines, "\n"),
		})
		ordinal++
	}
	return out, nil
}
