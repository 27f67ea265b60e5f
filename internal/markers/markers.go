// Package markers rewrites embedded citation markers in document content.
//
// A marker is an inline span carrying the citation id and its display number
// in two attributes plus a visible bracketed number:
//
//	<span data-citation-id="ID" data-number="3">[3]</span>
//
// Editors are known to emit the two attributes in either order, so rewriting
// matches both. The rewrite is a best-effort string substitution: a citation
// whose marker cannot be located is reported as a warning and its visible
// number stays stale until the document is resynchronized.
package markers

import (
	"fmt"
	"regexp"
	"strings"
)

// Change describes one citation whose display number changed.
type Change struct {
	CitationID string
	OldNumber  int
	NewNumber  int
}

// Warning reports a marker that could not be located in the content.
type Warning struct {
	CitationID string `json:"citation_id"`
	DocumentID string `json:"document_id,omitempty"`
	Message    string `json:"message"`
}

// Rewrite applies every change to content, replacing both the data-number
// attribute and the visible [n] text of each citation's marker. Markers for
// other citations are never touched. Returns the rewritten content and a
// warning per change whose marker was not found.
func Rewrite(content string, changes []Change) (string, []Warning) {
	var warnings []Warning

	for _, ch := range changes {
		rewritten, found := rewriteOne(content, ch)
		if !found {
			warnings = append(warnings, Warning{
				CitationID: ch.CitationID,
				Message:    fmt.Sprintf("no marker found for citation %s; visible number may be stale", ch.CitationID),
			})
			continue
		}
		content = rewritten
	}

	return content, warnings
}

// rewriteOne rewrites the marker for a single citation, trying the
// id-first attribute ordering and then the number-first ordering.
func rewriteOne(content string, ch Change) (string, bool) {
	id := regexp.QuoteMeta(ch.CitationID)

	// data-citation-id="ID" ... data-number="old" ... >[old]<
	idFirst := regexp.MustCompile(
		`(data-citation-id="` + id + `"[^>]*data-number=")(\d+)("[^>]*>)\[(\d+)\]`)
	// data-number="old" ... data-citation-id="ID" ... >[old]<
	numberFirst := regexp.MustCompile(
		`(data-number=")(\d+)("[^>]*data-citation-id="` + id + `"[^>]*>)\[(\d+)\]`)

	for _, re := range []*regexp.Regexp{idFirst, numberFirst} {
		loc := re.FindStringSubmatchIndex(content)
		if loc == nil {
			continue
		}
		n := fmt.Sprintf("%d", ch.NewNumber)
		var b strings.Builder
		b.WriteString(content[:loc[0]])
		b.WriteString(content[loc[2]:loc[3]]) // prefix through attribute name
		b.WriteString(n)                      // attribute value
		b.WriteString(content[loc[6]:loc[7]]) // attribute close through tag end
		b.WriteString("[" + n + "]")          // visible text
		b.WriteString(content[loc[1]:])
		return b.String(), true
	}

	return content, false
}
