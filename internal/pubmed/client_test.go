package pubmed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const esummaryFixture = `{
	"result": {
		"uids": ["111", "222"],
		"111": {
			"uid": "111",
			"title": "Affinity maturation dynamics",
			"fulljournalname": "eLife",
			"pubdate": "2021 Mar 2",
			"authors": [{"name": "Smith J"}, {"name": "Jones K"}],
			"articleids": [{"idtype": "doi", "value": "10.7554/elife.00001"}],
			"pmcrefcount": "17"
		},
		"222": {
			"uid": "222",
			"title": "Second paper",
			"pubdate": "1999",
			"pmcrefcount": ""
		}
	}
}`

func TestFetchByPmids(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("db") != "pubmed" {
			t.Errorf("db = %q, want pubmed", r.URL.Query().Get("db"))
		}
		fmt.Fprint(w, esummaryFixture)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURLs(srv.URL, srv.URL), WithHTTPClient(srv.Client()))
	got, err := c.FetchByPmids(context.Background(), []string{"111", "222"})
	if err != nil {
		t.Fatalf("FetchByPmids() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	first := got[0]
	if first.PMID != "111" || first.Title != "Affinity maturation dynamics" {
		t.Errorf("first = %+v", first)
	}
	if first.DOI != "10.7554/elife.00001" {
		t.Errorf("DOI = %q", first.DOI)
	}
	if first.Year != 2021 {
		t.Errorf("Year = %d, want 2021", first.Year)
	}
	if first.CitedByCount != 17 {
		t.Errorf("CitedByCount = %d, want 17", first.CitedByCount)
	}
	if len(first.Authors) != 2 || first.Authors[0] != "Smith J" {
		t.Errorf("Authors = %v", first.Authors)
	}

	if got[1].Year != 1999 {
		t.Errorf("second year = %d, want 1999", got[1].Year)
	}
}

func TestFetchByPmidsOmitsUnresolvable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result": {"uids": ["111"], "111": {"uid": "111", "title": "Only one"}}}`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURLs(srv.URL, srv.URL), WithHTTPClient(srv.Client()))
	got, err := c.FetchByPmids(context.Background(), []string{"111", "999"})
	if err != nil {
		t.Fatalf("FetchByPmids() error = %v", err)
	}
	if len(got) != 1 || got[0].PMID != "111" {
		t.Errorf("got = %v, want only 111", got)
	}
}

func TestFetchByDoi(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message": {
			"title": ["A crossref paper"],
			"container-title": ["PNAS"],
			"author": [{"given": "Jane", "family": "Doe"}],
			"issued": {"date-parts": [[2019, 5]]},
			"is-referenced-by-count": 42
		}}`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURLs(srv.URL, srv.URL), WithHTTPClient(srv.Client()))
	got, err := c.FetchByDoi(context.Background(), "10.1073/pnas.x")
	if err != nil {
		t.Fatalf("FetchByDoi() error = %v", err)
	}
	if got == nil {
		t.Fatal("FetchByDoi() returned nil")
	}
	if got.Title != "A crossref paper" || got.Journal != "PNAS" || got.Year != 2019 {
		t.Errorf("got = %+v", got)
	}
	if got.DOI != "10.1073/pnas.x" {
		t.Errorf("DOI = %q", got.DOI)
	}
	if got.CitedByCount != 42 {
		t.Errorf("CitedByCount = %d, want 42", got.CitedByCount)
	}
	if len(got.Authors) != 1 || got.Authors[0] != "Doe Jane" {
		t.Errorf("Authors = %v", got.Authors)
	}
}

func TestFetchByDoiNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Resource not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURLs(srv.URL, srv.URL), WithHTTPClient(srv.Client()))
	got, err := c.FetchByDoi(context.Background(), "10.1/unknown")
	if err != nil {
		t.Fatalf("FetchByDoi() error = %v", err)
	}
	if got != nil {
		t.Errorf("got = %+v, want nil for unknown DOI", got)
	}
}

func TestAPIErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURLs(srv.URL, srv.URL), WithHTTPClient(srv.Client()))
	_, err := c.FetchByPmids(context.Background(), []string{"1"})
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", apiErr.StatusCode)
	}
}
