package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matsen/citegraph/internal/article"
)

// selectArticleFields contains the standard field list for article SELECTs.
const selectArticleFields = `id, pmid, doi, title, abstract, journal,
	pub_year, source, authors_json,
	reference_pmids_json, reference_dois_json, cited_by_pmids_json,
	stats_quality`

// InsertArticle adds an article to the corpus.
func (d *DB) InsertArticle(a *article.Article) error {
	if err := a.ValidateForCreate(); err != nil {
		return err
	}

	authorsJSON, err := json.Marshal(a.Authors)
	if err != nil {
		return fmt.Errorf("marshaling authors for %s: %w", a.ID, err)
	}

	_, err = d.db.Exec(`
		INSERT INTO articles (
			id, pmid, doi, title, abstract, journal,
			pub_year, source, authors_json,
			reference_pmids_json, reference_dois_json, cited_by_pmids_json,
			stats_quality
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, nullableString(a.PMID), nullableString(a.DOI),
		a.Title, nullableString(a.Abstract), nullableString(a.Journal),
		a.Year, nullableString(a.Source), string(authorsJSON),
		marshalIDs(a.ReferencePmids), marshalIDs(a.ReferenceDois), marshalIDs(a.CitedByPmids),
		a.StatsQuality,
	)
	if err != nil {
		return fmt.Errorf("inserting article %s: %w", a.ID, err)
	}
	return nil
}

// UpdateArticleEnrichment refreshes the enrichment fields of an article
// (metadata and reference lists; identity fields are immutable).
func (d *DB) UpdateArticleEnrichment(a *article.Article) error {
	authorsJSON, err := json.Marshal(a.Authors)
	if err != nil {
		return fmt.Errorf("marshaling authors for %s: %w", a.ID, err)
	}

	res, err := d.db.Exec(`
		UPDATE articles SET
			title = ?, abstract = ?, journal = ?, pub_year = ?,
			authors_json = ?,
			reference_pmids_json = ?, reference_dois_json = ?, cited_by_pmids_json = ?,
			stats_quality = ?
		WHERE id = ?`,
		a.Title, nullableString(a.Abstract), nullableString(a.Journal), a.Year,
		string(authorsJSON),
		marshalIDs(a.ReferencePmids), marshalIDs(a.ReferenceDois), marshalIDs(a.CitedByPmids),
		a.StatsQuality, a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating article %s: %w", a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return article.ErrArticleNotFound
	}
	return nil
}

// GetArticle retrieves an article by internal id. Returns nil, nil if absent.
func (d *DB) GetArticle(id string) (*article.Article, error) {
	row := d.db.QueryRow(`SELECT `+selectArticleFields+` FROM articles WHERE id = ?`, id)
	return scanArticle(row)
}

// FindArticlesByPmids retrieves every stored article whose PMID appears in
// pmids. Unknown PMIDs are simply absent from the result.
func (d *DB) FindArticlesByPmids(pmids []string) ([]article.Article, error) {
	return d.findArticlesByIdentifier("pmid", pmids)
}

// FindArticlesByDois retrieves every stored article whose DOI appears in
// dois. Callers should normalize DOIs before storage and lookup.
func (d *DB) FindArticlesByDois(dois []string) ([]article.Article, error) {
	return d.findArticlesByIdentifier("doi", dois)
}

func (d *DB) findArticlesByIdentifier(column string, ids []string) ([]article.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := d.db.Query(
		`SELECT `+selectArticleFields+` FROM articles WHERE `+column+` IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("finding articles by %s: %w", column, err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// ListArticles returns every article in the corpus ordered by id.
func (d *DB) ListArticles() ([]article.Article, error) {
	rows, err := d.db.Query(`SELECT ` + selectArticleFields + ` FROM articles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// CountArticles returns the number of articles in the corpus.
func (d *DB) CountArticles() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return n, nil
}

// UpsertProjectArticle inserts or updates a project membership row.
func (d *DB) UpsertProjectArticle(pa *article.ProjectArticle) error {
	if err := pa.ValidateForCreate(); err != nil {
		return err
	}
	_, err := d.db.Exec(`
		INSERT INTO project_articles (project_id, article_id, status, source_query)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id, article_id) DO UPDATE SET
			status = excluded.status,
			source_query = excluded.source_query`,
		pa.ProjectID, pa.ArticleID, pa.Status, nullableString(pa.SourceQuery),
	)
	if err != nil {
		return fmt.Errorf("upserting project article %s/%s: %w", pa.ProjectID, pa.ArticleID, err)
	}
	return nil
}

// ListProjectArticles returns the membership rows of a project, optionally
// restricted to one status ("" means all).
func (d *DB) ListProjectArticles(projectID, status string) ([]article.ProjectArticle, error) {
	query := `SELECT project_id, article_id, status, COALESCE(source_query, '')
		FROM project_articles WHERE project_id = ?`
	args := []interface{}{projectID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY article_id`

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing project articles: %w", err)
	}
	defer rows.Close()

	var out []article.ProjectArticle
	for rows.Next() {
		var pa article.ProjectArticle
		if err := rows.Scan(&pa.ProjectID, &pa.ArticleID, &pa.Status, &pa.SourceQuery); err != nil {
			return nil, fmt.Errorf("scanning project article: %w", err)
		}
		out = append(out, pa)
	}
	return out, rows.Err()
}

// scanArticle scans a single article row. Returns nil, nil when no row matched.
func scanArticle(row *sql.Row) (*article.Article, error) {
	var a article.Article
	var pmid, doi, abstract, journal, source sql.NullString
	var authorsJSON string
	var refPmidsJSON, refDoisJSON, citedByJSON sql.NullString

	err := row.Scan(
		&a.ID, &pmid, &doi, &a.Title, &abstract, &journal,
		&a.Year, &source, &authorsJSON,
		&refPmidsJSON, &refDoisJSON, &citedByJSON,
		&a.StatsQuality,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning article: %w", err)
	}

	a.PMID = pmid.String
	a.DOI = doi.String
	a.Abstract = abstract.String
	a.Journal = journal.String
	a.Source = source.String
	if err := json.Unmarshal([]byte(authorsJSON), &a.Authors); err != nil {
		return nil, fmt.Errorf("parsing authors for %s: %w", a.ID, err)
	}
	a.ReferencePmids = unmarshalIDs(refPmidsJSON)
	a.ReferenceDois = unmarshalIDs(refDoisJSON)
	a.CitedByPmids = unmarshalIDs(citedByJSON)
	return &a, nil
}

func scanArticles(rows *sql.Rows) ([]article.Article, error) {
	var out []article.Article
	for rows.Next() {
		var a article.Article
		var pmid, doi, abstract, journal, source sql.NullString
		var authorsJSON string
		var refPmidsJSON, refDoisJSON, citedByJSON sql.NullString

		err := rows.Scan(
			&a.ID, &pmid, &doi, &a.Title, &abstract, &journal,
			&a.Year, &source, &authorsJSON,
			&refPmidsJSON, &refDoisJSON, &citedByJSON,
			&a.StatsQuality,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}

		a.PMID = pmid.String
		a.DOI = doi.String
		a.Abstract = abstract.String
		a.Journal = journal.String
		a.Source = source.String
		if err := json.Unmarshal([]byte(authorsJSON), &a.Authors); err != nil {
			return nil, fmt.Errorf("parsing authors for %s: %w", a.ID, err)
		}
		a.ReferencePmids = unmarshalIDs(refPmidsJSON)
		a.ReferenceDois = unmarshalIDs(refDoisJSON)
		a.CitedByPmids = unmarshalIDs(citedByJSON)
		out = append(out, a)
	}
	return out, rows.Err()
}

// marshalIDs stores an identifier list as JSON, NULL when empty.
func marshalIDs(ids []string) interface{} {
	if len(ids) == 0 {
		return nil
	}
	b, _ := json.Marshal(ids)
	return string(b)
}

func unmarshalIDs(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		return nil
	}
	return out
}
