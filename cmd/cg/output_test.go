package main

import (
	"reflect"
	"testing"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is a longer string", 10, "this is..."},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestFormatAuthorsShort(t *testing.T) {
	authors := []string{"Smith J", "Doe A", "Roe B", "Poe C"}
	if got, want := formatAuthorsShort(authors, 3), "Smith J, Doe A, Roe B, et al."; got != want {
		t.Errorf("formatAuthorsShort() = %q, want %q", got, want)
	}
	if got := formatAuthorsShort(nil, 3); got != "" {
		t.Errorf("formatAuthorsShort(nil) = %q, want empty", got)
	}
}

func TestSplitCommaList(t *testing.T) {
	got := splitCommaList(" a, b ,,c ")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitCommaList() = %v, want %v", got, want)
	}
	if got := splitCommaList(""); got != nil {
		t.Errorf("splitCommaList(\"\") = %v, want nil", got)
	}
}

func TestCitationMarkerRe(t *testing.T) {
	content := `<p><span data-citation-id="c1" data-number="1">[1]</span> and ` +
		`<span data-number="2" data-citation-id="c2">[2]</span></p>`
	matches := citationMarkerRe.FindAllStringSubmatch(content, -1)
	var ids []string
	for _, m := range matches {
		ids = append(ids, m[1])
	}
	want := []string{"c1", "c2"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("marker ids = %v, want %v", ids, want)
	}
}
