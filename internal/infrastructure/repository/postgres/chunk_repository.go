package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
)

// ChunkRepository persists corpus snapshots. Chunk rows keep an explicit
// position column; ListChunks returns them in that order so positions in
// the dense index line up with the in-memory snapshot.
type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ChunkRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/indexer startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	doc_type TEXT NOT NULL,
	pages INTEGER NOT NULL DEFAULT 0,
	chunk_count INTEGER NOT NULL DEFAULT 0,
	ingested_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	position INTEGER NOT NULL UNIQUE,
	text TEXT NOT NULL,
	source TEXT NOT NULL,
	page INTEGER NOT NULL,
	doc_type TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// ReplaceCorpus swaps the stored snapshot in a single transaction so
// readers never observe a half-written corpus.
func (r *ChunkRepository) ReplaceCorpus(ctx context.Context, docs []domain.Document, chunks []domain.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}

	for _, doc := range docs {
		_, err := tx.ExecContext(ctx, `
INSERT INTO documents (id, filename, doc_type, pages, chunk_count, ingested_at)
VALUES ($1,$2,$3,$4,$5,$6)
`,
			doc.ID, doc.Filename, string(doc.DocType), doc.Pages, doc.ChunkCount, doc.IngestedAt,
		)
		if err != nil {
			return fmt.Errorf("insert document %s: %w", doc.Filename, err)
		}
	}

	for position, chunk := range chunks {
		_, err := tx.ExecContext(ctx, `
INSERT INTO chunks (id, position, text, source, page, doc_type)
VALUES ($1,$2,$3,$4,$5,$6)
`,
			chunk.ID, position, chunk.Text, chunk.Source, chunk.Page, string(chunk.DocType),
		)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tx: %w", err)
	}
	return nil
}

func (r *ChunkRepository) ListChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, text, source, page, doc_type
FROM chunks
ORDER BY position ASC
`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var out []domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		var docType string
		if err := rows.Scan(&chunk.ID, &chunk.Text, &chunk.Source, &chunk.Page, &docType); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunk.DocType = domain.DocType(docType)
		out = append(out, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}

func (r *ChunkRepository) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, filename, doc_type, pages, chunk_count, ingested_at
FROM documents
ORDER BY filename ASC
`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		var doc domain.Document
		var docType string
		if err := rows.Scan(&doc.ID, &doc.Filename, &docType, &doc.Pages, &doc.ChunkCount, &doc.IngestedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.DocType = domain.DocType(docType)
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}
