// Package storage persists articles, project membership, documents, and
// citations in SQLite, and provides JSONL export/import of the article
// corpus for git-versionable backup.
package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			pmid TEXT,
			doi TEXT,
			title TEXT,
			abstract TEXT,
			journal TEXT,
			pub_year INTEGER,
			source TEXT,
			authors_json TEXT,
			reference_pmids_json TEXT,
			reference_dois_json TEXT,
			cited_by_pmids_json TEXT,
			stats_quality INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_articles_pmid ON articles(pmid) WHERE pmid IS NOT NULL AND pmid != '';
		CREATE INDEX IF NOT EXISTS idx_articles_doi ON articles(doi) WHERE doi IS NOT NULL AND doi != '';

		CREATE TABLE IF NOT EXISTS project_articles (
			project_id TEXT NOT NULL,
			article_id TEXT NOT NULL,
			status TEXT NOT NULL,
			source_query TEXT,
			PRIMARY KEY (project_id, article_id)
		);

		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			title TEXT,
			order_index INTEGER NOT NULL,
			content TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_documents_project ON documents(project_id);

		CREATE TABLE IF NOT EXISTS citations (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			article_id TEXT NOT NULL,
			order_index INTEGER NOT NULL,
			inline_number INTEGER NOT NULL,
			sub_number INTEGER NOT NULL,
			page_range TEXT,
			note TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_citations_document ON citations(document_id);

		-- Shared expiring cache of minimal metadata per external identifier
		CREATE TABLE IF NOT EXISTS article_cache (
			key TEXT PRIMARY KEY,
			value_json TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		);
	`

	_, err := db.Exec(schema)
	return err
}

// nullableString converts an empty string to a NULL-storing interface value.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
