package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*ChunkRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ChunkRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestReplaceCorpusRunsInOneTransaction(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now()
	docs := []domain.Document{
		{ID: "doc-1", Filename: "handbook.pdf", DocType: domain.DocTypePDF, Pages: 3, ChunkCount: 2, IngestedAt: now},
	}
	chunks := []domain.Chunk{
		{ID: "c0", Text: "first", Source: "handbook.pdf", Page: 1, DocType: domain.DocTypePDF},
		{ID: "c1", Text: "second", Source: "handbook.pdf", Page: 2, DocType: domain.DocTypePDF},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM chunks").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM documents").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("doc-1", "handbook.pdf", "pdf", 3, 2, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO chunks").
		WithArgs("c0", 0, "first", "handbook.pdf", 1, "pdf").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO chunks").
		WithArgs("c1", 1, "second", "handbook.pdf", 2, "pdf").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.ReplaceCorpus(context.Background(), docs, chunks); err != nil {
		t.Fatalf("ReplaceCorpus() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceCorpusRollsBackOnInsertFailure(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	boom := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM chunks").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM documents").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO chunks").
		WithArgs("c0", 0, "first", "handbook.pdf", 1, "pdf").
		WillReturnError(boom)
	mock.ExpectRollback()

	chunks := []domain.Chunk{
		{ID: "c0", Text: "first", Source: "handbook.pdf", Page: 1, DocType: domain.DocTypePDF},
	}
	err := repo.ReplaceCorpus(context.Background(), nil, chunks)
	if !errors.Is(err, boom) {
		t.Fatalf("expected insert failure, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListChunksPreservesPositionOrder(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "text", "source", "page", "doc_type"}).
		AddRow("c0", "first", "handbook.pdf", 1, "pdf").
		AddRow("c1", "faq section", "general.txt", -1, "faq")
	mock.ExpectQuery("SELECT id, text, source, page, doc_type").WillReturnRows(rows)

	chunks, err := repo.ListChunks(context.Background())
	if err != nil {
		t.Fatalf("ListChunks() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].ID != "c0" || chunks[1].ID != "c1" {
		t.Fatalf("order not preserved: %+v", chunks)
	}
	if chunks[1].DocType != domain.DocTypeFAQ {
		t.Fatalf("doc type not mapped, got %q", chunks[1].DocType)
	}
	if chunks[1].Page != domain.PageNone {
		t.Fatalf("expected PageNone for faq chunk, got %d", chunks[1].Page)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListChunksEmptyCorpus(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "text", "source", "page", "doc_type"})
	mock.ExpectQuery("SELECT id, text, source, page, doc_type").WillReturnRows(rows)

	chunks, err := repo.ListChunks(context.Background())
	if err != nil {
		t.Fatalf("ListChunks() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected empty result, got %d", len(chunks))
	}
}
