package storage

import (
	"path/filepath"
	"testing"

	"github.com/matsen/citegraph/internal/article"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertAndGetArticle(t *testing.T) {
	db := openTestDB(t)

	a := article.Article{
		ID:             "a1",
		PMID:           "12345",
		DOI:            "10.1000/x",
		Title:          "Affinity maturation dynamics",
		Authors:        []string{"Smith J", "Jones K"},
		Journal:        "eLife",
		Year:           2021,
		Source:         "pubmed",
		ReferencePmids: []string{"111", "222"},
		CitedByPmids:   []string{"333"},
		StatsQuality:   2,
	}
	if err := db.InsertArticle(&a); err != nil {
		t.Fatalf("InsertArticle() error = %v", err)
	}

	got, err := db.GetArticle("a1")
	if err != nil {
		t.Fatalf("GetArticle() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetArticle() returned nil")
	}
	if got.PMID != "12345" || got.Year != 2021 || got.StatsQuality != 2 {
		t.Errorf("GetArticle() = %+v", got)
	}
	if len(got.ReferencePmids) != 2 || got.ReferencePmids[0] != "111" {
		t.Errorf("ReferencePmids = %v, want [111 222]", got.ReferencePmids)
	}

	missing, err := db.GetArticle("nope")
	if err != nil {
		t.Fatalf("GetArticle(missing) error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetArticle(missing) = %v, want nil", missing)
	}
}

func TestFindArticlesByIdentifiers(t *testing.T) {
	db := openTestDB(t)

	for _, a := range []article.Article{
		{ID: "a1", PMID: "111", Title: "One"},
		{ID: "a2", PMID: "222", Title: "Two"},
		{ID: "a3", DOI: "10.1/x", Title: "Three"},
	} {
		if err := db.InsertArticle(&a); err != nil {
			t.Fatalf("InsertArticle(%s) error = %v", a.ID, err)
		}
	}

	byPmid, err := db.FindArticlesByPmids([]string{"111", "999"})
	if err != nil {
		t.Fatalf("FindArticlesByPmids() error = %v", err)
	}
	if len(byPmid) != 1 || byPmid[0].ID != "a1" {
		t.Errorf("FindArticlesByPmids() = %v, want [a1]", byPmid)
	}

	byDoi, err := db.FindArticlesByDois([]string{"10.1/x"})
	if err != nil {
		t.Fatalf("FindArticlesByDois() error = %v", err)
	}
	if len(byDoi) != 1 || byDoi[0].ID != "a3" {
		t.Errorf("FindArticlesByDois() = %v, want [a3]", byDoi)
	}

	none, err := db.FindArticlesByPmids(nil)
	if err != nil {
		t.Fatalf("FindArticlesByPmids(nil) error = %v", err)
	}
	if none != nil {
		t.Errorf("FindArticlesByPmids(nil) = %v, want nil", none)
	}
}

func TestProjectArticles(t *testing.T) {
	db := openTestDB(t)

	pa := article.ProjectArticle{ProjectID: "p1", ArticleID: "a1", Status: article.StatusCandidate}
	if err := db.UpsertProjectArticle(&pa); err != nil {
		t.Fatalf("UpsertProjectArticle() error = %v", err)
	}

	// Upsert updates status in place
	pa.Status = article.StatusSelected
	if err := db.UpsertProjectArticle(&pa); err != nil {
		t.Fatalf("UpsertProjectArticle(update) error = %v", err)
	}

	rows, err := db.ListProjectArticles("p1", "")
	if err != nil {
		t.Fatalf("ListProjectArticles() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Status != article.StatusSelected {
		t.Errorf("ListProjectArticles() = %v", rows)
	}

	selected, err := db.ListProjectArticles("p1", article.StatusSelected)
	if err != nil {
		t.Fatalf("ListProjectArticles(selected) error = %v", err)
	}
	if len(selected) != 1 {
		t.Errorf("ListProjectArticles(selected) len = %d, want 1", len(selected))
	}

	bad := article.ProjectArticle{ProjectID: "p1", ArticleID: "a2", Status: "bogus"}
	if err := db.UpsertProjectArticle(&bad); err != article.ErrInvalidStatus {
		t.Errorf("UpsertProjectArticle(bogus status) error = %v, want ErrInvalidStatus", err)
	}
}

func TestDocumentsAndReorder(t *testing.T) {
	db := openTestDB(t)

	for i, id := range []string{"d1", "d2", "d3"} {
		doc := article.Document{ID: id, ProjectID: "p1", Title: id, OrderIndex: i}
		if err := db.InsertDocument(&doc); err != nil {
			t.Fatalf("InsertDocument(%s) error = %v", id, err)
		}
	}

	if err := db.ReorderDocuments([]string{"d3", "d1", "d2"}); err != nil {
		t.Fatalf("ReorderDocuments() error = %v", err)
	}

	docs, err := db.ListDocuments("p1")
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	wantOrder := []string{"d3", "d1", "d2"}
	for i, doc := range docs {
		if doc.ID != wantOrder[i] {
			t.Errorf("docs[%d].ID = %s, want %s", i, doc.ID, wantOrder[i])
		}
	}

	if err := db.UpdateDocumentContent("d1", "new content"); err != nil {
		t.Fatalf("UpdateDocumentContent() error = %v", err)
	}
	doc, _ := db.GetDocument("d1")
	if doc.Content != "new content" {
		t.Errorf("content = %q, want %q", doc.Content, "new content")
	}
}

func TestCitationsCRUD(t *testing.T) {
	db := openTestDB(t)

	cits := []article.Citation{
		{ID: "c1", DocumentID: "d1", ArticleID: "a1", OrderIndex: 0, InlineNumber: 1, SubNumber: 1},
		{ID: "c2", DocumentID: "d1", ArticleID: "a2", OrderIndex: 1, InlineNumber: 2, SubNumber: 1},
	}
	for i := range cits {
		if err := db.InsertCitation(&cits[i]); err != nil {
			t.Fatalf("InsertCitation(%s) error = %v", cits[i].ID, err)
		}
	}

	listed, err := db.ListCitations("d1")
	if err != nil {
		t.Fatalf("ListCitations() error = %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("ListCitations() len = %d, want 2", len(listed))
	}

	// Transactional multi-row update
	listed[0].InlineNumber = 2
	listed[1].InlineNumber = 1
	if err := db.UpdateCitations(listed); err != nil {
		t.Fatalf("UpdateCitations() error = %v", err)
	}
	got, _ := db.GetCitation("c1")
	if got.InlineNumber != 2 {
		t.Errorf("c1 inline number = %d, want 2", got.InlineNumber)
	}

	// Updating a missing row rolls back the whole batch
	bad := []article.Citation{
		{ID: "c1", InlineNumber: 9, SubNumber: 1},
		{ID: "ghost", InlineNumber: 1, SubNumber: 1},
	}
	if err := db.UpdateCitations(bad); err == nil {
		t.Fatal("UpdateCitations() with missing row succeeded, want error")
	}
	got, _ = db.GetCitation("c1")
	if got.InlineNumber == 9 {
		t.Error("partial update persisted after rollback")
	}

	if err := db.DeleteCitations([]string{"c1"}); err != nil {
		t.Fatalf("DeleteCitations() error = %v", err)
	}
	remaining, _ := db.ListCitations("d1")
	if len(remaining) != 1 || remaining[0].ID != "c2" {
		t.Errorf("remaining = %v, want [c2]", remaining)
	}
}

func TestJSONLRoundTrip(t *testing.T) {
	db := openTestDB(t)

	for _, a := range []article.Article{
		{ID: "a1", PMID: "111", Title: "One", Authors: []string{"X"}},
		{ID: "a2", DOI: "10.1/y", Title: "Two"},
	} {
		if err := db.InsertArticle(&a); err != nil {
			t.Fatalf("InsertArticle(%s) error = %v", a.ID, err)
		}
	}

	path := filepath.Join(t.TempDir(), "articles.jsonl")
	n, err := db.ExportArticles(path)
	if err != nil {
		t.Fatalf("ExportArticles() error = %v", err)
	}
	if n != 2 {
		t.Errorf("ExportArticles() = %d, want 2", n)
	}

	db2 := openTestDB(t)
	inserted, err := db2.ImportArticles(path)
	if err != nil {
		t.Fatalf("ImportArticles() error = %v", err)
	}
	if inserted != 2 {
		t.Errorf("ImportArticles() = %d, want 2", inserted)
	}

	// Re-import skips existing ids
	inserted, err = db2.ImportArticles(path)
	if err != nil {
		t.Fatalf("ImportArticles(again) error = %v", err)
	}
	if inserted != 0 {
		t.Errorf("ImportArticles(again) = %d, want 0", inserted)
	}
}
