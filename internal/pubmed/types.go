package pubmed

import (
	"encoding/json"
	"strconv"
	"strings"
)

// esummaryResponse is the NCBI esummary JSON envelope. Per-uid records sit
// beside the "uids" list in one object, so the result decodes in two steps.
type esummaryResponse struct {
	Result esummaryResult `json:"result"`
}

type esummaryResult struct {
	UIDs    []string
	Records map[string]esummaryRecord
}

func (r *esummaryResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if uids, ok := raw["uids"]; ok {
		if err := json.Unmarshal(uids, &r.UIDs); err != nil {
			return err
		}
	}

	r.Records = make(map[string]esummaryRecord, len(r.UIDs))
	for _, uid := range r.UIDs {
		rec, ok := raw[uid]
		if !ok {
			continue
		}
		var record esummaryRecord
		if err := json.Unmarshal(rec, &record); err != nil {
			continue // skip malformed records, keep the batch
		}
		r.Records[uid] = record
	}
	return nil
}

type esummaryRecord struct {
	UID             string              `json:"uid"`
	Title           string              `json:"title"`
	FullJournalName string              `json:"fulljournalname"`
	PubDate         string              `json:"pubdate"`
	Authors         []esummaryAuthor    `json:"authors"`
	ArticleIDs      []esummaryArticleID `json:"articleids"`
	PmcRefCount     json.Number         `json:"pmcrefcount"`
}

type esummaryAuthor struct {
	Name string `json:"name"`
}

type esummaryArticleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}

// articles converts the decoded records to PartialArticles in uid order.
func (r *esummaryResponse) articles() []PartialArticle {
	out := make([]PartialArticle, 0, len(r.Result.UIDs))
	for _, uid := range r.Result.UIDs {
		rec, ok := r.Result.Records[uid]
		if !ok {
			continue
		}

		a := PartialArticle{
			PMID:    uid,
			Title:   rec.Title,
			Journal: rec.FullJournalName,
			Year:    parseYear(rec.PubDate),
		}
		for _, au := range rec.Authors {
			if au.Name != "" {
				a.Authors = append(a.Authors, au.Name)
			}
		}
		for _, id := range rec.ArticleIDs {
			if id.IDType == "doi" {
				a.DOI = id.Value
			}
		}
		if n, err := rec.PmcRefCount.Int64(); err == nil {
			a.CitedByCount = int(n)
		}
		out = append(out, a)
	}
	return out
}

// parseYear extracts the leading year from a pubdate like "2020 Jan 5".
func parseYear(pubdate string) int {
	fields := strings.Fields(pubdate)
	if len(fields) == 0 {
		return 0
	}
	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return year
}

// crossrefResponse is the Crossref works envelope.
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	Title             []string         `json:"title"`
	ContainerTitle    []string         `json:"container-title"`
	Author            []crossrefAuthor `json:"author"`
	Issued            crossrefDate     `json:"issued"`
	ReferencedByCount int              `json:"is-referenced-by-count"`
	Abstract          string           `json:"abstract"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

func (w *crossrefWork) article() PartialArticle {
	a := PartialArticle{
		CitedByCount: w.ReferencedByCount,
		Abstract:     w.Abstract,
	}
	if len(w.Title) > 0 {
		a.Title = w.Title[0]
	}
	if len(w.ContainerTitle) > 0 {
		a.Journal = w.ContainerTitle[0]
	}
	for _, au := range w.Author {
		name := strings.TrimSpace(au.Family + " " + au.Given)
		if name != "" {
			a.Authors = append(a.Authors, name)
		}
	}
	if len(w.Issued.DateParts) > 0 && len(w.Issued.DateParts[0]) > 0 {
		a.Year = w.Issued.DateParts[0][0]
	}
	return a
}
