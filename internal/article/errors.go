package article

import "errors"

// Validation and lookup errors.
var (
	ErrEmptyID          = errors.New("id is required")
	ErrEmptyTitle       = errors.New("title is required")
	ErrInvalidStatus    = errors.New("status must be one of: candidate, selected, excluded, deleted")
	ErrArticleNotFound  = errors.New("article not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrCitationNotFound = errors.New("citation not found")
)

// ValidateForCreate validates an article for insertion into the corpus.
func (a *Article) ValidateForCreate() error {
	if a.ID == "" {
		return ErrEmptyID
	}
	if a.Title == "" && a.PMID == "" && a.DOI == "" {
		return ErrEmptyTitle
	}
	return nil
}

// ValidateForCreate validates a document for insertion.
func (d *Document) ValidateForCreate() error {
	if d.ID == "" || d.ProjectID == "" {
		return ErrEmptyID
	}
	if d.Title == "" {
		return ErrEmptyTitle
	}
	return nil
}

// ValidateForCreate validates a membership row.
func (pa *ProjectArticle) ValidateForCreate() error {
	if pa.ProjectID == "" || pa.ArticleID == "" {
		return ErrEmptyID
	}
	if !ValidStatus(pa.Status) {
		return ErrInvalidStatus
	}
	return nil
}
