// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index persists ranked paper metadata in a queryable SQLite database.
// The index is a post-run reporting surface; the pipeline itself never
// reads from it.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/topcited/pkg/types"
)

// Store manages the paper index SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the SQLite database at cfg.DBPath, creating
// the schema and any parent directories as needed.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("index: no database path configured")
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			arxiv_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			authors TEXT,
			published TEXT,
			citations INTEGER NOT NULL DEFAULT 0,
			semantic_scholar_id TEXT,
			indexed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_citations ON papers(citations DESC)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Ingest upserts the records into the papers table. Re-ingesting the
// same metadata file is idempotent: rows are keyed by arXiv ID and
// replaced in place. It returns the number of records written.
func (s *Store) Ingest(ctx context.Context, records []types.PaperRecord, w io.Writer) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO papers
		(arxiv_id, title, authors, published, citations, semantic_scholar_id, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	written := 0
	for _, rec := range records {
		authors, err := json.Marshal(rec.Authors)
		if err != nil {
			return written, fmt.Errorf("marshaling authors for %s: %w", rec.ID, err)
		}
		published := ""
		if !rec.Published.IsZero() {
			published = rec.Published.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Title, string(authors),
			published, rec.CitationCount, rec.ExternalID, now); err != nil {
			return written, fmt.Errorf("inserting %s: %w", rec.ID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return written, fmt.Errorf("committing transaction: %w", err)
	}
	fmt.Fprintf(w, "indexed %d papers\n", written)
	return written, nil
}

// Top returns the n most-cited papers in the index, ordered by citation
// count descending. When n is zero the store's configured maximum applies.
func (s *Store) Top(ctx context.Context, n int) ([]types.PaperRecord, error) {
	if n <= 0 {
		n = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx, `SELECT arxiv_id, title, authors, published,
		citations, semantic_scholar_id FROM papers
		ORDER BY citations DESC, arxiv_id ASC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Count returns the number of papers in the index.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

// Search returns papers whose title contains the given term,
// case-insensitively, ordered by citation count descending.
func (s *Store) Search(ctx context.Context, term string, n int) ([]types.PaperRecord, error) {
	if strings.TrimSpace(term) == "" {
		return s.Top(ctx, n)
	}
	if n <= 0 {
		n = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx, `SELECT arxiv_id, title, authors, published,
		citations, semantic_scholar_id FROM papers
		WHERE title LIKE ? COLLATE NOCASE
		ORDER BY citations DESC, arxiv_id ASC LIMIT ?`, "%"+term+"%", n)
	if err != nil {
		return nil, fmt.Errorf("searching papers: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// scanRecords converts query rows back into PaperRecords.
func scanRecords(rows *sql.Rows) ([]types.PaperRecord, error) {
	var records []types.PaperRecord
	for rows.Next() {
		var rec types.PaperRecord
		var authors, published string
		if err := rows.Scan(&rec.ID, &rec.Title, &authors, &published,
			&rec.CitationCount, &rec.ExternalID); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if authors != "" {
			if err := json.Unmarshal([]byte(authors), &rec.Authors); err != nil {
				return nil, fmt.Errorf("parsing authors for %s: %w", rec.ID, err)
			}
		}
		if published != "" {
			if t, parseErr := time.Parse(time.RFC3339, published); parseErr == nil {
				rec.Published = t
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
