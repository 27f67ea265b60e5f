package numbering

import (
	"sort"

	"github.com/matsen/citegraph/internal/article"
	"github.com/matsen/citegraph/internal/markers"
)

// ProjectStore extends Store with the document surface project-wide
// renumbering needs. *storage.DB satisfies it.
type ProjectStore interface {
	Store
	ListDocuments(projectID string) ([]article.Document, error)
	UpdateDocumentContent(id, content string) error
}

// RenumberResult reports what a project-wide renumbering changed.
type RenumberResult struct {
	DocumentsRewritten  int               `json:"documents_rewritten"`
	CitationsRenumbered int               `json:"citations_renumbered"`
	Warnings            []markers.Warning `json:"warnings,omitempty"`
}

// RenumberProject recomputes one global numbering across every document of a
// project, used after documents are reordered. It walks documents in project
// order and citations within each by inline number, assigning a global
// number to each distinct article id on first encounter.
//
// Numbering here is by exact article identity, not dedupe key: the pass must
// match the per-document numbers as they stand, and merging true duplicates
// is left to a later per-document synchronize.
//
// Embedded [n] markers are rewritten in place through the markers package.
// A citation whose marker cannot be found keeps its correct stored number
// and is reported as a warning; the visible text stays stale until the
// document is resynchronized.
func RenumberProject(store ProjectStore, projectID string) (*RenumberResult, error) {
	docs, err := store.ListDocuments(projectID)
	if err != nil {
		return nil, err
	}

	result := &RenumberResult{}
	globalByArticle := make(map[string]int)
	next := 1

	for _, doc := range docs {
		cits, err := store.ListCitations(doc.ID)
		if err != nil {
			return nil, err
		}

		sort.SliceStable(cits, func(i, j int) bool {
			if cits[i].InlineNumber != cits[j].InlineNumber {
				return cits[i].InlineNumber < cits[j].InlineNumber
			}
			return cits[i].SubNumber < cits[j].SubNumber
		})

		var rowChanges []article.Citation
		var markerChanges []markers.Change
		for _, c := range cits {
			n, seen := globalByArticle[c.ArticleID]
			if !seen {
				n = next
				next++
				globalByArticle[c.ArticleID] = n
			}
			if n == c.InlineNumber {
				continue
			}
			markerChanges = append(markerChanges, markers.Change{
				CitationID: c.ID,
				OldNumber:  c.InlineNumber,
				NewNumber:  n,
			})
			c.InlineNumber = n
			rowChanges = append(rowChanges, c)
		}

		if len(rowChanges) == 0 {
			continue
		}

		content, warnings := markers.Rewrite(doc.Content, markerChanges)
		for i := range warnings {
			warnings[i].DocumentID = doc.ID
		}
		result.Warnings = append(result.Warnings, warnings...)

		// Stored numbers update even when a marker was missed; the row is
		// the source of truth, the markup only a render of it.
		if err := store.UpdateCitations(rowChanges); err != nil {
			return nil, err
		}
		result.CitationsRenumbered += len(rowChanges)

		if content != doc.Content {
			if err := store.UpdateDocumentContent(doc.ID, content); err != nil {
				return nil, err
			}
			result.DocumentsRewritten++
		}
	}

	return result, nil
}
