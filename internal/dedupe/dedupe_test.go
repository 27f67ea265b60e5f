package dedupe

import (
	"testing"

	"github.com/matsen/citegraph/internal/article"
)

func TestKeyPrecedence(t *testing.T) {
	tests := []struct {
		name string
		a    article.Article
		want string
	}{
		{
			name: "pmid wins over everything",
			a:    article.Article{ID: "a1", PMID: "12345", DOI: "10.1000/x", Title: "Some Title"},
			want: "pmid:12345",
		},
		{
			name: "doi when no pmid",
			a:    article.Article{ID: "a1", DOI: "10.1000/X", Title: "Some Title"},
			want: "doi:10.1000/x",
		},
		{
			name: "title when no pmid or doi",
			a:    article.Article{ID: "a1", Title: "Clonal  Dynamics, Revisited!"},
			want: "title:clonal  dynamics revisited",
		},
		{
			name: "internal id as last resort",
			a:    article.Article{ID: "a1"},
			want: "id:a1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(&tt.a); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.1101/2023.01.01.522222", "10.1101/2023.01.01.522222"},
		{"10.1101/2023.01.01.522222/v2", "10.1101/2023.01.01.522222"},
		{"10.1101/2023.01.01.522222/v10/full", "10.1101/2023.01.01.522222"},
		{"https://doi.org/10.1000/ABC", "10.1000/abc"},
		{"DOI:10.1000/abc", "10.1000/abc"},
		{"  10.1000/Abc  ", "10.1000/abc"},
	}

	for _, tt := range tests {
		if got := NormalizeDOI(tt.in); got != tt.want {
			t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSameSourceDifferentRows(t *testing.T) {
	a := article.Article{ID: "row1", PMID: "999"}
	b := article.Article{ID: "row2", PMID: "999", DOI: "10.1/x"}
	if Key(&a) != Key(&b) {
		t.Errorf("articles sharing a PMID must share a key: %q vs %q", Key(&a), Key(&b))
	}
}
