package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/matsen/citegraph/internal/article"
)

const selectCitationFields = `id, document_id, article_id, order_index,
	inline_number, sub_number, COALESCE(page_range, ''), COALESCE(note, '')`

// InsertCitation adds a citation row.
func (d *DB) InsertCitation(c *article.Citation) error {
	if c.ID == "" || c.DocumentID == "" || c.ArticleID == "" {
		return article.ErrEmptyID
	}
	_, err := d.db.Exec(`
		INSERT INTO citations (
			id, document_id, article_id, order_index,
			inline_number, sub_number, page_range, note
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.DocumentID, c.ArticleID, c.OrderIndex,
		c.InlineNumber, c.SubNumber, nullableString(c.PageRange), nullableString(c.Note),
	)
	if err != nil {
		return fmt.Errorf("inserting citation %s: %w", c.ID, err)
	}
	return nil
}

// GetCitation retrieves a citation by id. Returns nil, nil if absent.
func (d *DB) GetCitation(id string) (*article.Citation, error) {
	row := d.db.QueryRow(`SELECT `+selectCitationFields+` FROM citations WHERE id = ?`, id)

	var c article.Citation
	err := row.Scan(&c.ID, &c.DocumentID, &c.ArticleID, &c.OrderIndex,
		&c.InlineNumber, &c.SubNumber, &c.PageRange, &c.Note)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning citation: %w", err)
	}
	return &c, nil
}

// ListCitations returns a document's citations ordered by order_index.
func (d *DB) ListCitations(documentID string) ([]article.Citation, error) {
	rows, err := d.db.Query(`
		SELECT `+selectCitationFields+`
		FROM citations WHERE document_id = ? ORDER BY order_index`, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing citations: %w", err)
	}
	defer rows.Close()

	return scanCitations(rows)
}

// UpdateCitations persists the numbering fields of every given citation in
// one transaction. Numbering mutations touch many rows and must land
// atomically or not at all.
func (d *DB) UpdateCitations(cits []article.Citation) error {
	if len(cits) == 0 {
		return nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning citation update: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		UPDATE citations SET order_index = ?, inline_number = ?, sub_number = ?
		WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing citation update: %w", err)
	}
	defer stmt.Close()

	for _, c := range cits {
		res, err := stmt.Exec(c.OrderIndex, c.InlineNumber, c.SubNumber, c.ID)
		if err != nil {
			return fmt.Errorf("updating citation %s: %w", c.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("updating citation %s: %w", c.ID, article.ErrCitationNotFound)
		}
	}

	return tx.Commit()
}

// DeleteCitations removes the given citation rows.
func (d *DB) DeleteCitations(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := d.db.Exec(`DELETE FROM citations WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("deleting citations: %w", err)
	}
	return nil
}

func scanCitations(rows *sql.Rows) ([]article.Citation, error) {
	var out []article.Citation
	for rows.Next() {
		var c article.Citation
		err := rows.Scan(&c.ID, &c.DocumentID, &c.ArticleID, &c.OrderIndex,
			&c.InlineNumber, &c.SubNumber, &c.PageRange, &c.Note)
		if err != nil {
			return nil, fmt.Errorf("scanning citation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
