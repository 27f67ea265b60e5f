// Package article defines the core domain types for bibliographic records
// and their attachment to project documents.
package article

// Article represents a bibliographic record in the global corpus. Once
// enriched it is immutable except for periodic refresh of its reference
// lists; projects share articles read-only.
type Article struct {
	// Identity
	ID   string `json:"id"`             // Internal stable identifier
	PMID string `json:"pmid,omitempty"` // PubMed identifier (primary dedupe key)
	DOI  string `json:"doi,omitempty"`  // Digital Object Identifier

	// Metadata
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Abstract string   `json:"abstract,omitempty"`
	Journal  string   `json:"journal,omitempty"`
	Year     int      `json:"year,omitempty"`
	Source   string   `json:"source,omitempty"` // Origin catalog: pubmed, crossref, manual

	// Citation relationships (external identifiers, refreshed periodically)
	ReferencePmids []string `json:"reference_pmids,omitempty"`
	ReferenceDois  []string `json:"reference_dois,omitempty"`
	CitedByPmids   []string `json:"cited_by_pmids,omitempty"`

	// Statistical-reporting quality signal extracted from the abstract, 0-3.
	StatsQuality int `json:"stats_quality"`
}

// Membership statuses for a ProjectArticle.
const (
	StatusCandidate = "candidate"
	StatusSelected  = "selected"
	StatusExcluded  = "excluded"
	StatusDeleted   = "deleted"
)

// ValidStatuses lists the accepted ProjectArticle status values.
var ValidStatuses = []string{StatusCandidate, StatusSelected, StatusExcluded, StatusDeleted}

// ProjectArticle records the membership of an Article in a Project.
// One row per (project, article).
type ProjectArticle struct {
	ProjectID   string `json:"project_id"`
	ArticleID   string `json:"article_id"`
	Status      string `json:"status"`
	SourceQuery string `json:"source_query,omitempty"` // Search query that surfaced the article
}

// Document is an ordered unit of project text. Content is opaque to the
// engine except for embedded citation markers (see internal/markers).
type Document struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index"` // Project-wide ordering
	Content    string `json:"content"`
}

// Citation attaches an Article to a Document. All citations of the same
// logical source within a document share one InlineNumber; SubNumber orders
// a source's citations within the document.
type Citation struct {
	ID           string `json:"id"`
	DocumentID   string `json:"document_id"`
	ArticleID    string `json:"article_id"`
	OrderIndex   int    `json:"order_index"`   // Position of first insertion
	InlineNumber int    `json:"inline_number"` // Display number [n]
	SubNumber    int    `json:"sub_number"`    // 1-based position within the source's group
	PageRange    string `json:"page_range,omitempty"`
	Note         string `json:"note,omitempty"`
}

// ValidStatus reports whether s is one of the accepted membership statuses.
func ValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}
