package usecase

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
)

// contextSeparator joins rank-prefixed context blocks. Changing it breaks
// the context-reconstruction property consumers rely on.
const contextSeparator = "\n\n"

const excerptMarker = "..."

// assembleContext walks the ranked results in order and accumulates
// rank-prefixed chunk text under the character budget. Only the current
// chunk is ever truncated; once the budget is reached the remaining
// results are dropped. The budget counts prefixes and separators, so the
// emitted context never exceeds maxChars.
func assembleContext(ranked []domain.ScoredChunk, maxChars, excerptMax int) domain.RetrievalResult {
	if len(ranked) == 0 {
		return domain.RetrievalResult{}
	}

	var b strings.Builder
	citations := make([]domain.Citation, 0, len(ranked))

	for _, scored := range ranked {
		rank := len(citations) + 1
		prefix := fmt.Sprintf("[%d] ", rank)
		separator := ""
		if b.Len() > 0 {
			separator = contextSeparator
		}

		remaining := maxChars - b.Len() - len(separator) - len(prefix)
		if remaining <= 0 {
			break
		}

		text := scored.Chunk.Text
		truncated := false
		if len(text) > remaining {
			text = truncateToRuneBoundary(text, remaining)
			truncated = true
		}
		if text == "" {
			break
		}

		b.WriteString(separator)
		b.WriteString(prefix)
		b.WriteString(text)

		citations = append(citations, domain.Citation{
			Rank:    rank,
			Excerpt: excerpt(text, excerptMax),
			Source:  scored.Chunk.Source,
			Page:    scored.Chunk.PageLabel(),
			DocType: scored.Chunk.DocType,
			Score:   round3(scored.Score),
			Origin:  scored.Origin,
		})

		if truncated || b.Len() >= maxChars {
			break
		}
	}

	return domain.RetrievalResult{Context: b.String(), Citations: citations}
}

func excerpt(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return truncateToRuneBoundary(text, max) + excerptMarker
}

// truncateToRuneBoundary cuts s to at most n bytes without splitting a
// multi-byte rune.
func truncateToRuneBoundary(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
