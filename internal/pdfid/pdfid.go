// Package pdfid extracts article identifiers from PDF files.
package pdfid

import (
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DOI pattern: 10.XXXX/... where XXXX is 4+ digits
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// PMID pattern: explicit "PMID: 12345678" label. Bare digit runs are too
// noisy to trust (page numbers, years, grant IDs).
var pmidPattern = regexp.MustCompile(`(?i)PMID:?\s*(\d{1,8})`)

// Identifiers holds identifiers found in a PDF.
type Identifiers struct {
	DOI   string `json:"doi,omitempty"`
	PMID  string `json:"pmid,omitempty"`
	Title string `json:"title,omitempty"`
}

// Extract scans the first few pages of a PDF for a DOI and PMID, and
// falls back to a title heuristic. Missing identifiers are not an error.
func Extract(filePath string) (*Identifiers, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Identifiers are usually on the first page.
	maxPages := 3
	if r.NumPage() < maxPages {
		maxPages = r.NumPage()
	}

	ids := &Identifiers{}
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		if ids.DOI == "" {
			ids.DOI = findDOI(text)
		}
		if ids.PMID == "" {
			ids.PMID = findPMID(text)
		}
		if i == 1 {
			ids.Title = findTitle(text)
		}
		if ids.DOI != "" && ids.PMID != "" {
			break
		}
	}

	return ids, nil
}

// findDOI finds the first valid DOI in text.
func findDOI(text string) string {
	matches := doiPattern.FindAllString(text, -1)
	for _, match := range matches {
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

// findPMID finds a labeled PMID in text.
func findPMID(text string) string {
	m := pmidPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// isValidDOI performs basic validation on a DOI.
func isValidDOI(doi string) bool {
	if len(doi) < 10 {
		return false
	}
	if !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	if slashIdx == -1 || slashIdx >= len(doi)-1 {
		return false
	}
	return true
}

// findTitle returns the first substantial line, skipping obvious
// headers and footers. Best effort.
func findTitle(text string) string {
	lines := strings.Split(text, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !isHeaderLine(line) {
			return line
		}
	}
	return ""
}

// isHeaderLine checks if a line is likely a header/footer.
func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	if strings.Contains(lower, "journal") {
		return true
	}
	if strings.Contains(lower, "volume") && strings.Contains(lower, "issue") {
		return true
	}
	if strings.Contains(lower, "copyright") {
		return true
	}
	if strings.Contains(lower, "article") && strings.Contains(lower, "published") {
		return true
	}
	return false
}
