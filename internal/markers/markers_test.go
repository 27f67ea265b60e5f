package markers

import (
	"strings"
	"testing"
)

func TestRewriteIDFirstOrdering(t *testing.T) {
	content := `Intro <span data-citation-id="c1" data-number="3">[3]</span> text.`
	got, warnings := Rewrite(content, []Change{{CitationID: "c1", OldNumber: 3, NewNumber: 1}})
	want := `Intro <span data-citation-id="c1" data-number="1">[1]</span> text.`
	if got != want {
		t.Errorf("Rewrite() = %q, want %q", got, want)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}

func TestRewriteNumberFirstOrdering(t *testing.T) {
	content := `See <span data-number="2" data-citation-id="c7">[2]</span>.`
	got, warnings := Rewrite(content, []Change{{CitationID: "c7", OldNumber: 2, NewNumber: 5}})
	want := `See <span data-number="5" data-citation-id="c7">[5]</span>.`
	if got != want {
		t.Errorf("Rewrite() = %q, want %q", got, want)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}

func TestRewriteLeavesOtherMarkersAlone(t *testing.T) {
	content := `<span data-citation-id="a" data-number="1">[1]</span>` +
		`<span data-citation-id="b" data-number="2">[2]</span>`
	got, _ := Rewrite(content, []Change{{CitationID: "b", OldNumber: 2, NewNumber: 3}})
	if !strings.Contains(got, `data-citation-id="a" data-number="1">[1]`) {
		t.Errorf("marker for citation a was modified: %q", got)
	}
	if !strings.Contains(got, `data-citation-id="b" data-number="3">[3]`) {
		t.Errorf("marker for citation b not rewritten: %q", got)
	}
}

func TestRewriteDoesNotTouchUnrelatedNumbers(t *testing.T) {
	content := `The cohort had 3 arms [3, unrelated] <span data-citation-id="x" data-number="3">[3]</span>.`
	got, _ := Rewrite(content, []Change{{CitationID: "x", OldNumber: 3, NewNumber: 9}})
	if !strings.Contains(got, "The cohort had 3 arms [3, unrelated]") {
		t.Errorf("unrelated numbers rewritten: %q", got)
	}
	if !strings.Contains(got, `data-number="9">[9]`) {
		t.Errorf("marker not rewritten: %q", got)
	}
}

func TestRewriteMissingMarkerWarns(t *testing.T) {
	content := `No markers here.`
	got, warnings := Rewrite(content, []Change{{CitationID: "ghost", OldNumber: 1, NewNumber: 2}})
	if got != content {
		t.Errorf("content changed despite missing marker: %q", got)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings len = %d, want 1", len(warnings))
	}
	if warnings[0].CitationID != "ghost" {
		t.Errorf("warning citation id = %q, want %q", warnings[0].CitationID, "ghost")
	}
}
