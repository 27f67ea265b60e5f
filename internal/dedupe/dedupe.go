// Package dedupe computes canonical identity keys for bibliographic records.
// Two articles with equal keys are treated as the same logical source by
// citation numbering and graph linking.
package dedupe

import (
	"regexp"
	"strings"

	"github.com/matsen/citegraph/internal/article"
)

// doiVersionSuffix matches trailing version segments like /v2 or /v10/full
// that some catalogs append to a DOI.
var doiVersionSuffix = regexp.MustCompile(`/v\d+(/.*)?$`)

// nonWord matches every character that is not a word character or a space.
var nonWord = regexp.MustCompile(`[^\w\s]`)

// Key returns the canonical dedupe key for an article.
// Precedence: PMID, then normalized DOI, then normalized title, then the
// internal id (so an article with no other identifier is its own group).
func Key(a *article.Article) string {
	if a.PMID != "" {
		return "pmid:" + a.PMID
	}
	if a.DOI != "" {
		return "doi:" + NormalizeDOI(a.DOI)
	}
	if a.Title != "" {
		return "title:" + NormalizeTitle(a.Title)
	}
	return "id:" + a.ID
}

// NormalizeDOI lowercases a DOI, strips common URL/label prefixes, and drops
// any trailing /v<digits> version suffix so versioned preprint DOIs collapse
// to one key.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	doi = doiVersionSuffix.ReplaceAllString(doi, "")
	return strings.ToLower(doi)
}

// NormalizeTitle lowercases a title and strips punctuation so minor
// formatting differences between catalogs do not split a group.
func NormalizeTitle(title string) string {
	title = strings.ToLower(title)
	title = nonWord.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}
