package storage

import (
	"database/sql"
	"fmt"

	"github.com/matsen/citegraph/internal/article"
)

// InsertDocument adds a document to a project.
func (d *DB) InsertDocument(doc *article.Document) error {
	if doc.ID == "" || doc.ProjectID == "" {
		return article.ErrEmptyID
	}
	_, err := d.db.Exec(`
		INSERT INTO documents (id, project_id, title, order_index, content)
		VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.ProjectID, doc.Title, doc.OrderIndex, doc.Content,
	)
	if err != nil {
		return fmt.Errorf("inserting document %s: %w", doc.ID, err)
	}
	return nil
}

// GetDocument retrieves a document by id. Returns nil, nil if absent.
func (d *DB) GetDocument(id string) (*article.Document, error) {
	row := d.db.QueryRow(`
		SELECT id, project_id, COALESCE(title, ''), order_index, COALESCE(content, '')
		FROM documents WHERE id = ?`, id)

	var doc article.Document
	err := row.Scan(&doc.ID, &doc.ProjectID, &doc.Title, &doc.OrderIndex, &doc.Content)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

// ListDocuments returns a project's documents ordered by order_index.
func (d *DB) ListDocuments(projectID string) ([]article.Document, error) {
	rows, err := d.db.Query(`
		SELECT id, project_id, COALESCE(title, ''), order_index, COALESCE(content, '')
		FROM documents WHERE project_id = ? ORDER BY order_index`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var out []article.Document
	for rows.Next() {
		var doc article.Document
		if err := rows.Scan(&doc.ID, &doc.ProjectID, &doc.Title, &doc.OrderIndex, &doc.Content); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateDocumentContent replaces a document's content.
func (d *DB) UpdateDocumentContent(id, content string) error {
	res, err := d.db.Exec(`UPDATE documents SET content = ? WHERE id = ?`, content, id)
	if err != nil {
		return fmt.Errorf("updating document %s content: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return article.ErrDocumentNotFound
	}
	return nil
}

// ReorderDocuments assigns order_index 0..n-1 to the given document ids in
// one transaction. Documents of the project not named keep their index.
func (d *DB) ReorderDocuments(ids []string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning reorder: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`UPDATE documents SET order_index = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing reorder: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		res, err := stmt.Exec(i, id)
		if err != nil {
			return fmt.Errorf("reordering document %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("reordering document %s: %w", id, article.ErrDocumentNotFound)
		}
	}

	return tx.Commit()
}
