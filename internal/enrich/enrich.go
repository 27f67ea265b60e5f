// Package enrich resolves placeholder graph nodes to article metadata,
// backed by the shared expiring cache and the throttled external lookup
// client. Enrichment is best-effort and bounded: lookup failures leave
// nodes as raw-identifier placeholders and never abort graph construction.
package enrich

import (
	"context"
	"strings"
	"time"

	"github.com/matsen/citegraph/internal/cache"
	"github.com/matsen/citegraph/internal/graph"
	"github.com/matsen/citegraph/internal/pubmed"
)

// Batch caps. PMID and DOI passes are independent; neither is required for
// node/edge correctness, so both are bounded.
const (
	MaxPmidLookups = 300
	MaxDoiLookups  = 50

	// DefaultCacheTTL is how long fetched metadata stays cached.
	DefaultCacheTTL = 7 * 24 * time.Hour
)

// Fetcher is the lookup surface the enricher consumes. *pubmed.Client
// satisfies it.
type Fetcher interface {
	FetchByPmids(ctx context.Context, pmids []string) ([]pubmed.PartialArticle, error)
	FetchByDoi(ctx context.Context, doi string) (*pubmed.PartialArticle, error)
}

// Enricher populates placeholder nodes. It implements graph.Enricher.
type Enricher struct {
	fetcher Fetcher
	cache   cache.Cache
	ttl     time.Duration

	// Warn receives non-fatal lookup failures. Nil means discard.
	Warn func(format string, args ...interface{})
}

// New creates an enricher over the given fetcher and shared cache.
func New(fetcher Fetcher, c cache.Cache) *Enricher {
	return &Enricher{fetcher: fetcher, cache: c, ttl: DefaultCacheTTL}
}

// Enrich fills metadata for placeholder nodes: cache first, then throttled
// external lookups in independent PMID and DOI passes. Nodes the upstream
// cannot resolve keep their raw identifier as label.
func (e *Enricher) Enrich(ctx context.Context, nodes []*graph.Node) {
	var pmidNodes, doiNodes []*graph.Node
	for _, n := range nodes {
		switch {
		case strings.HasPrefix(n.ID, "pmid:"):
			pmidNodes = append(pmidNodes, n)
		case strings.HasPrefix(n.ID, "doi:"):
			doiNodes = append(doiNodes, n)
		}
	}

	e.enrichPmids(ctx, pmidNodes)
	e.enrichDois(ctx, doiNodes)
}

func (e *Enricher) enrichPmids(ctx context.Context, nodes []*graph.Node) {
	var missing []*graph.Node
	for _, n := range nodes {
		if entry, ok := e.cache.Get(n.ID); ok {
			applyEntry(n, entry)
			continue
		}
		missing = append(missing, n)
	}
	if len(missing) > MaxPmidLookups {
		missing = missing[:MaxPmidLookups]
	}
	if len(missing) == 0 {
		return
	}

	byPmid := make(map[string]*graph.Node, len(missing))
	pmids := make([]string, 0, len(missing))
	for _, n := range missing {
		pmid := strings.TrimPrefix(n.ID, "pmid:")
		byPmid[pmid] = n
		pmids = append(pmids, pmid)
	}

	fetched, err := e.fetcher.FetchByPmids(ctx, pmids)
	if err != nil {
		e.warn("pmid enrichment batch failed: %v", err)
		// Partial results before the failure still apply below.
	}
	for _, pa := range fetched {
		n, ok := byPmid[pa.PMID]
		if !ok {
			continue
		}
		entry := toEntry(pa)
		applyEntry(n, entry)
		n.StatsQuality = ScoreStatsQuality(pa.Abstract)
		e.cache.Set(n.ID, entry, e.ttl)
	}
}

func (e *Enricher) enrichDois(ctx context.Context, nodes []*graph.Node) {
	looked := 0
	for _, n := range nodes {
		if entry, ok := e.cache.Get(n.ID); ok {
			applyEntry(n, entry)
			continue
		}
		if looked >= MaxDoiLookups {
			continue
		}
		looked++

		doi := strings.TrimPrefix(n.ID, "doi:")
		pa, err := e.fetcher.FetchByDoi(ctx, doi)
		if err != nil {
			e.warn("doi enrichment failed for %s: %v", doi, err)
			continue
		}
		if pa == nil {
			continue
		}
		entry := toEntry(*pa)
		applyEntry(n, entry)
		n.StatsQuality = ScoreStatsQuality(pa.Abstract)
		e.cache.Set(n.ID, entry, e.ttl)
	}
}

func (e *Enricher) warn(format string, args ...interface{}) {
	if e.Warn != nil {
		e.Warn(format, args...)
	}
}

func toEntry(pa pubmed.PartialArticle) cache.Entry {
	return cache.Entry{
		Title:        pa.Title,
		Authors:      pa.Authors,
		Year:         pa.Year,
		Journal:      pa.Journal,
		DOI:          pa.DOI,
		CitedByCount: pa.CitedByCount,
	}
}

func applyEntry(n *graph.Node, entry cache.Entry) {
	n.Title = entry.Title
	n.Authors = entry.Authors
	n.Year = entry.Year
	n.Journal = entry.Journal
	n.CitedByCount = entry.CitedByCount
}
