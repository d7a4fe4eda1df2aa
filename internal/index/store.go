// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "ycmtex.db"

// Store persists a built index to a SQLite database for external
// tooling. The in-process scan cache stays authoritative; the store
// only ever receives wholesale snapshots.
type Store struct {
	db  *sql.DB
	dir string
}

// NewStore opens or creates the export database at exportDir/ycmtex.db,
// creating the schema if it does not exist.
func NewStore(exportDir string) (*Store, error) {
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	dbPath := filepath.Join(exportDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: exportDir}
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
		`CREATE TABLE IF NOT EXISTS labels (
			key TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			caption TEXT,
			file TEXT NOT NULL,
			line INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS citations (
			key TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			author TEXT,
			title TEXT,
			year TEXT,
			fields TEXT,
			file TEXT NOT NULL,
			line INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_labels_kind ON labels(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_citations_type ON citations(type)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save replaces the stored snapshot with idx in one transaction.
func (s *Store) Save(ctx context.Context, idx *Index) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"labels", "citations"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	labelStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO labels (key, kind, caption, file, line) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing label insert: %w", err)
	}
	defer labelStmt.Close()

	for _, key := range idx.ReferenceKeys() {
		e := idx.References[key]
		if _, err := labelStmt.ExecContext(ctx, e.Key, string(e.Kind), e.Caption, e.File, e.Line); err != nil {
			return fmt.Errorf("inserting label %s: %w", e.Key, err)
		}
	}

	citeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO citations (key, type, author, title, year, fields, file, line)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing citation insert: %w", err)
	}
	defer citeStmt.Close()

	for _, key := range idx.CitationKeys() {
		e := idx.Citations[key]
		fieldsJSON, _ := json.Marshal(e.Fields)
		_, err := citeStmt.ExecContext(ctx,
			e.Key, e.Type, e.Field("author"), e.Field("title"), e.Field("year"),
			string(fieldsJSON), e.File, e.Line)
		if err != nil {
			return fmt.Errorf("inserting citation %s: %w", e.Key, err)
		}
	}

	return tx.Commit()
}

// Counts returns the stored label and citation counts.
func (s *Store) Counts(ctx context.Context) (labels, citations int, err error) {
	if err = s.db.QueryRowContext(ctx, `SELECT count(*) FROM labels`).Scan(&labels); err != nil {
		return 0, 0, fmt.Errorf("counting labels: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, `SELECT count(*) FROM citations`).Scan(&citations); err != nil {
		return 0, 0, fmt.Errorf("counting citations: %w", err)
	}
	return labels, citations, nil
}
