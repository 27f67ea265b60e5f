package numbering

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/matsen/citegraph/internal/article"
	"github.com/matsen/citegraph/internal/storage"
)

func setupStore(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	doc := article.Document{ID: "d1", ProjectID: "p1", Title: "Intro", OrderIndex: 0}
	if err := db.InsertDocument(&doc); err != nil {
		t.Fatalf("InsertDocument() error = %v", err)
	}

	for _, a := range []article.Article{
		{ID: "a1", PMID: "111", Title: "Paper one"},
		{ID: "a2", PMID: "222", Title: "Paper two"},
		{ID: "a3", PMID: "333", Title: "Paper three"},
		{ID: "a1dup", PMID: "111", Title: "Paper one imported twice"},
		{ID: "a4", Title: "No identifiers at all"},
	} {
		if err := db.InsertArticle(&a); err != nil {
			t.Fatalf("InsertArticle(%s) error = %v", a.ID, err)
		}
	}
	return db
}

// checkInvariants asserts inline numbers are exactly {1..k} over distinct
// groups and sub-numbers exactly {1..m} within each group.
func checkInvariants(t *testing.T, db *storage.DB, documentID string) {
	t.Helper()
	cits, err := db.ListCitations(documentID)
	if err != nil {
		t.Fatalf("ListCitations() error = %v", err)
	}

	subsByInline := make(map[int]map[int]bool)
	for _, c := range cits {
		if subsByInline[c.InlineNumber] == nil {
			subsByInline[c.InlineNumber] = make(map[int]bool)
		}
		if subsByInline[c.InlineNumber][c.SubNumber] {
			t.Errorf("duplicate number %d.%d", c.InlineNumber, c.SubNumber)
		}
		subsByInline[c.InlineNumber][c.SubNumber] = true
	}
	for n := 1; n <= len(subsByInline); n++ {
		subs, ok := subsByInline[n]
		if !ok {
			t.Errorf("inline numbers have a gap at %d (groups: %d)", n, len(subsByInline))
			continue
		}
		for s := 1; s <= len(subs); s++ {
			if !subs[s] {
				t.Errorf("group %d missing sub-number %d", n, s)
			}
		}
	}
}

func TestAddAssignsNewGroupNumbers(t *testing.T) {
	db := setupStore(t)
	e := NewEngine(db)

	c1, err := e.Add("d1", "a1", "", "")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if c1.InlineNumber != 1 || c1.SubNumber != 1 {
		t.Errorf("first citation = %d.%d, want 1.1", c1.InlineNumber, c1.SubNumber)
	}

	c2, err := e.Add("d1", "a2", "", "")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if c2.InlineNumber != 2 || c2.SubNumber != 1 {
		t.Errorf("second citation = %d.%d, want 2.1", c2.InlineNumber, c2.SubNumber)
	}
	checkInvariants(t, db, "d1")
}

func TestAddReusesGroupForSameArticle(t *testing.T) {
	db := setupStore(t)
	e := NewEngine(db)

	mustAdd(t, e, "a1")
	mustAdd(t, e, "a2")
	c, err := e.Add("d1", "a1", "12-14", "second quote")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if c.InlineNumber != 1 || c.SubNumber != 2 {
		t.Errorf("repeat citation = %d.%d, want 1.2", c.InlineNumber, c.SubNumber)
	}
	if c.PageRange != "12-14" {
		t.Errorf("page range = %q, want %q", c.PageRange, "12-14")
	}
	checkInvariants(t, db, "d1")
}

func TestAddMergesDuplicateArticleRows(t *testing.T) {
	db := setupStore(t)
	e := NewEngine(db)

	// a1 and a1dup are distinct rows for PMID 111; the dedupe-key pass must
	// put them in one group regardless of insertion order.
	mustAdd(t, e, "a1")
	c, err := e.Add("d1", "a1dup", "", "")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if c.InlineNumber != 1 || c.SubNumber != 2 {
		t.Errorf("duplicate-row citation = %d.%d, want 1.2", c.InlineNumber, c.SubNumber)
	}
	checkInvariants(t, db, "d1")
}

func TestAddFillsSubNumberGap(t *testing.T) {
	db := setupStore(t)
	e := NewEngine(db)

	// Seed a gapped group directly (as if left behind by an external writer).
	for _, c := range []article.Citation{
		{ID: "c1", DocumentID: "d1", ArticleID: "a1", OrderIndex: 0, InlineNumber: 1, SubNumber: 1},
		{ID: "c3", DocumentID: "d1", ArticleID: "a1", OrderIndex: 1, InlineNumber: 1, SubNumber: 3},
	} {
		if err := db.InsertCitation(&c); err != nil {
			t.Fatalf("InsertCitation() error = %v", err)
		}
	}

	c, err := e.Add("d1", "a1", "", "")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if c.SubNumber != 2 {
		t.Errorf("gap-filling sub-number = %d, want 2", c.SubNumber)
	}
}

func TestAddFillsInlineNumberGap(t *testing.T) {
	db := setupStore(t)
	e := NewEngine(db)

	for _, c := range []article.Citation{
		{ID: "c1", DocumentID: "d1", ArticleID: "a1", OrderIndex: 0, InlineNumber: 1, SubNumber: 1},
		{ID: "c3", DocumentID: "d1", ArticleID: "a3", OrderIndex: 1, InlineNumber: 3, SubNumber: 1},
	} {
		if err := db.InsertCitation(&c); err != nil {
			t.Fatalf("InsertCitation() error = %v", err)
		}
	}

	c, err := e.Add("d1", "a2", "", "")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if c.InlineNumber != 2 || c.SubNumber != 1 {
		t.Errorf("gap-filling citation = %d.%d, want 2.1", c.InlineNumber, c.SubNumber)
	}
}

func TestAddMissingDocumentOrArticle(t *testing.T) {
	db := setupStore(t)
	e := NewEngine(db)

	if _, err := e.Add("ghost", "a1", "", ""); !errors.Is(err, article.ErrDocumentNotFound) {
		t.Errorf("Add(missing doc) error = %v, want ErrDocumentNotFound", err)
	}
	if _, err := e.Add("d1", "ghost", "", ""); !errors.Is(err, article.ErrArticleNotFound) {
		t.Errorf("Add(missing article) error = %v, want ErrArticleNotFound", err)
	}
}

func TestRemoveResequencesSubNumbers(t *testing.T) {
	db := setupStore(t)
	e := NewEngine(db)

	mustAdd(t, e, "a1")
	second := mustAdd(t, e, "a1")
	mustAdd(t, e, "a2")

	// Deleting 1.2 leaves one citation in the group at 1.1 and must not
	// disturb group 2.
	if err := e.Remove(second.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	cits, _ := db.ListCitations("d1")
	if len(cits) != 2 {
		t.Fatalf("citations after remove = %d, want 2", len(cits))
	}
	for _, c := range cits {
		switch c.ArticleID {
		case "a1":
			if c.InlineNumber != 1 || c.SubNumber != 1 {
				t.Errorf("a1 citation = %d.%d, want 1.1", c.InlineNumber, c.SubNumber)
			}
		case "a2":
			if c.InlineNumber != 2 {
				t.Errorf("a2 inline number = %d, want 2 (unchanged)", c.InlineNumber)
			}
		}
	}
	checkInvariants(t, db, "d1")
}

func TestRemoveLastOfGroupClosesGap(t *testing.T) {
	db := setupStore(t)
	e := NewEngine(db)

	mustAdd(t, e, "a1") // group 1
	middle := mustAdd(t, e, "a2")
	mustAdd(t, e, "a3") // group 3

	if err := e.Remove(middle.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	cits, _ := db.ListCitations("d1")
	nums := make(map[string]int)
	for _, c := range cits {
		nums[c.ArticleID] = c.InlineNumber
	}
	if nums["a1"] != 1 || nums["a3"] != 2 {
		t.Errorf("inline numbers after gap close = %v, want a1:1 a3:2", nums)
	}
	checkInvariants(t, db, "d1")
}

func TestRemoveResequencesOrderIndexes(t *testing.T) {
	db := setupStore(t)
	e := NewEngine(db)

	first := mustAdd(t, e, "a1")
	mustAdd(t, e, "a2")
	mustAdd(t, e, "a3")

	if err := e.Remove(first.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	cits, _ := db.ListCitations("d1")
	for i, c := range cits {
		if c.OrderIndex != i {
			t.Errorf("order index[%d] = %d, want %d", i, c.OrderIndex, i)
		}
	}
}

func TestRemoveMissingCitation(t *testing.T) {
	db := setupStore(t)
	e := NewEngine(db)
	if err := e.Remove("ghost"); !errors.Is(err, article.ErrCitationNotFound) {
		t.Errorf("Remove(missing) error = %v, want ErrCitationNotFound", err)
	}
}

func TestAddRemoveSequenceKeepsInvariants(t *testing.T) {
	db := setupStore(t)
	e := NewEngine(db)

	var ids []string
	for _, articleID := range []string{"a1", "a2", "a1", "a3", "a2", "a1dup", "a4"} {
		c := mustAdd(t, e, articleID)
		ids = append(ids, c.ID)
		checkInvariants(t, db, "d1")
	}
	for _, i := range []int{2, 0, 4} {
		if err := e.Remove(ids[i]); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		checkInvariants(t, db, "d1")
	}
}

func TestSynchronizeDeletesAndMerges(t *testing.T) {
	db := setupStore(t)
	e := NewEngine(db)

	c1 := mustAdd(t, e, "a1")
	c2 := mustAdd(t, e, "a2")
	c3 := mustAdd(t, e, "a1dup") // merges into a1's group on sync
	gone := mustAdd(t, e, "a3")

	present := []string{c1.ID, c2.ID, c3.ID}
	changed, err := e.Synchronize("d1", present)
	if err != nil {
		t.Fatalf("Synchronize() error = %v", err)
	}
	if changed == 0 {
		t.Error("Synchronize() reported no changes, want deletions")
	}

	cits, _ := db.ListCitations("d1")
	if len(cits) != 3 {
		t.Fatalf("citations after sync = %d, want 3", len(cits))
	}
	byID := make(map[string]article.Citation)
	for _, c := range cits {
		byID[c.ID] = c
	}
	if _, ok := byID[gone.ID]; ok {
		t.Error("citation absent from content survived sync")
	}
	if byID[c1.ID].InlineNumber != byID[c3.ID].InlineNumber {
		t.Errorf("duplicate-row citations not merged: %d vs %d",
			byID[c1.ID].InlineNumber, byID[c3.ID].InlineNumber)
	}
	if byID[c3.ID].SubNumber != 2 {
		t.Errorf("merged citation sub-number = %d, want 2", byID[c3.ID].SubNumber)
	}
	checkInvariants(t, db, "d1")

	// Idempotence: a second run with the same id set changes nothing.
	changed, err = e.Synchronize("d1", present)
	if err != nil {
		t.Fatalf("Synchronize(second) error = %v", err)
	}
	if changed != 0 {
		t.Errorf("Synchronize(second) changed = %d, want 0", changed)
	}
}

func mustAdd(t *testing.T, e *Engine, articleID string) *article.Citation {
	t.Helper()
	c, err := e.Add("d1", articleID, "", "")
	if err != nil {
		t.Fatalf("Add(%s) error = %v", articleID, err)
	}
	return c
}
