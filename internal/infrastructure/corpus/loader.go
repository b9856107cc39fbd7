package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
)

// Loader walks the raw document directory and the FAQ directory and
// extracts text units ready for chunking. Unsupported or unreadable files
// are logged and skipped so one broken upload cannot block a rebuild.
type Loader struct {
	docsDir string
	faqDir  string
}

func NewLoader(docsDir, faqDir string) *Loader {
	return &Loader{docsDir: docsDir, faqDir: faqDir}
}

func (l *Loader) Load(ctx context.Context) ([]domain.SourceText, error) {
	var out []domain.SourceText

	docs, err := l.loadDocuments(ctx)
	if err != nil {
		return nil, err
	}
	out = append(out, docs...)

	faqs, err := l.loadFAQs(ctx)
	if err != nil {
		return nil, err
	}
	out = append(out, faqs...)

	return out, nil
}

func (l *Loader) loadDocuments(ctx context.Context) ([]domain.SourceText, error) {
	files, err := listFiles(l.docsDir)
	if err != nil {
		return nil, fmt.Errorf("list document dir: %w", err)
	}

	var out []domain.SourceText
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := filepath.Base(path)
		var (
			units   []domain.SourceText
			loadErr error
		)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".pdf":
			units, loadErr = loadPDF(path, name)
		case ".txt":
			units, loadErr = loadPlainText(path, name)
		case ".xlsx":
			units, loadErr = loadWorkbook(path, name)
		default:
			slog.Debug("skipping unsupported corpus file", "file", name)
			continue
		}
		if loadErr != nil {
			slog.Warn("corpus_file_skipped", "file", name, "error", loadErr)
			continue
		}
		out = append(out, units...)
	}
	return out, nil
}

func (l *Loader) loadFAQs(ctx context.Context) ([]domain.SourceText, error) {
	files, err := listFiles(l.faqDir)
	if err != nil {
		return nil, fmt.Errorf("list faq dir: %w", err)
	}

	var out []domain.SourceText
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.ToLower(filepath.Ext(path)) != ".txt" {
			continue
		}

		name := filepath.Base(path)
		raw, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("faq_file_skipped", "file", name, "error", err)
			continue
		}

		for ordinal, section := range splitFAQSections(string(raw)) {
			out = append(out, domain.SourceText{
				Source:  name,
				DocType: domain.DocTypeFAQ,
				Page:    domain.PageNone,
				Ordinal: ordinal,
				Text:    section,
			})
		}
	}
	return out, nil
}

func loadPlainText(path, name string) ([]domain.SourceText, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, nil
	}
	return []domain.SourceText{{
		Source:  name,
		DocType: domain.DocTypeTXT,
		Page:    domain.PageNone,
		Ordinal: 0,
		Text:    text,
	}}, nil
}

// splitFAQSections cuts an FAQ file into blank-line separated sections.
// Decorative separator lines made of = characters are dropped.
func splitFAQSections(raw string) []string {
	var out []string
	for _, block := range strings.Split(raw, "\n\n") {
		var lines []string
		for _, line := range strings.Split(block, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "===") {
				continue
			}
			lines = append(lines, trimmed)
		}
		if len(lines) == 0 {
			continue
		}
		out = append(out, strings.Join(lines, "\n"))
	}
	return out
}

// listFiles returns the regular files directly inside dir in name order.
// A missing directory yields no files rather than an error so fresh
// deployments start with an empty corpus.
func listFiles(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("corpus_dir_missing", "dir", dir)
			return nil, nil
		}
		return nil, err
	}

	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(out)
	return out, nil
}
