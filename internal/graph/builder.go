package graph

import (
	"context"
	"sort"

	"github.com/matsen/citegraph/internal/article"
	"github.com/matsen/citegraph/internal/cache"
	"github.com/matsen/citegraph/internal/dedupe"
)

// Store is the read-only record-store surface graph construction needs.
// *storage.DB satisfies it.
type Store interface {
	ListProjectArticles(projectID, status string) ([]article.ProjectArticle, error)
	GetArticle(id string) (*article.Article, error)
	FindArticlesByPmids(pmids []string) ([]article.Article, error)
	FindArticlesByDois(dois []string) ([]article.Article, error)
}

// Enricher resolves placeholder node metadata after construction.
// Enrichment is best-effort: failures leave nodes as raw-identifier
// placeholders and never abort the build.
type Enricher interface {
	Enrich(ctx context.Context, nodes []*Node)
}

// Builder constructs citation graphs. Construction is read-only and safe to
// run concurrently across projects; one build is a strict sequence of level
// passes because later tiers depend on earlier node sets.
type Builder struct {
	store    Store
	meta     cache.Cache // sort metadata for external identifiers
	enricher Enricher    // optional
	results  *ResultCache
}

// NewBuilder creates a graph builder. meta backs the citation-count and
// year sort strategies; enricher may be nil to skip enrichment; results may
// be nil to disable result caching.
func NewBuilder(store Store, meta cache.Cache, enricher Enricher, results *ResultCache) *Builder {
	return &Builder{store: store, meta: meta, enricher: enricher, results: results}
}

// Build constructs the graph for opts. Identical concurrent requests share
// one construction through the result cache. The result is deterministic
// for an unchanged corpus and cache.
func (b *Builder) Build(ctx context.Context, opts Options) (*Result, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if b.results == nil {
		return b.build(ctx, opts)
	}
	return b.results.do(opts.cacheKey(), func() (*Result, error) {
		return b.build(ctx, opts)
	})
}

// rawEntry pairs a locally stored article in the graph with its node id.
// The edge pass walks these; placeholders carry no reference lists.
type rawEntry struct {
	art    article.Article
	nodeID string
}

type buildState struct {
	opts  Options
	nodes map[string]*Node
	order []string // node ids in insertion order, for deterministic output

	byPmid map[string]string // pmid -> node id
	byDoi  map[string]string // normalized doi -> node id

	raw      []rawEntry // local articles at any level
	rawLevel []int      // level of each raw entry

	extra int // non-project nodes added so far
}

func (b *Builder) build(ctx context.Context, opts Options) (*Result, error) {
	st := &buildState{
		opts:   opts,
		nodes:  make(map[string]*Node),
		byPmid: make(map[string]string),
		byDoi:  make(map[string]string),
	}

	sourceQueries, yearRange, err := b.buildProjectLevel(st)
	if err != nil {
		return nil, err
	}

	if opts.Depth >= 2 {
		if err := b.buildReferenceLevel(st); err != nil {
			return nil, err
		}
	}
	if opts.Depth >= 3 {
		if err := b.buildCitingLevel(st); err != nil {
			return nil, err
		}
		if err := b.buildRelatedLevel(st); err != nil {
			return nil, err
		}
	}

	links := buildLinks(st)

	if b.enricher != nil {
		var placeholders []*Node
		for _, id := range st.order {
			if n := st.nodes[id]; n.Placeholder && n.Title == "" {
				placeholders = append(placeholders, n)
			}
		}
		if len(placeholders) > 0 {
			b.enricher.Enrich(ctx, placeholders)
		}
	}

	result := &Result{
		Links:                  links,
		AvailableSourceQueries: sourceQueries,
		YearRange:              yearRange,
		CurrentDepth:           opts.Depth,
		Limits: Limits{
			MaxLinksPerNode: opts.MaxLinksPerNode,
			MaxExtraNodes:   opts.MaxExtraNodes,
		},
	}
	for _, id := range st.order {
		n := st.nodes[id]
		result.Nodes = append(result.Nodes, *n)
		switch n.Level {
		case LevelCiting:
			result.Stats.LevelCounts.Citing++
		case LevelProject:
			result.Stats.LevelCounts.Project++
		case LevelReference:
			result.Stats.LevelCounts.Reference++
		case LevelRelated:
			result.Stats.LevelCounts.Related++
		}
	}
	result.Stats.TotalNodes = len(result.Nodes)
	result.Stats.TotalLinks = len(result.Links)

	if opts.Cluster {
		result.Clusters = clusterNodes(result.Nodes, opts.ClusterBy)
	}

	return result, nil
}

// buildProjectLevel populates level 1 from the project's membership rows,
// applying the status, year, and stats-quality filters, and registers
// identifier lookup maps for the outer levels.
func (b *Builder) buildProjectLevel(st *buildState) ([]string, YearRange, error) {
	status := ""
	if st.opts.Filter != FilterAll {
		status = st.opts.Filter
	}
	memberships, err := b.store.ListProjectArticles(st.opts.ProjectID, status)
	if err != nil {
		return nil, YearRange{}, err
	}

	querySet := make(map[string]bool)
	var yr YearRange
	for _, m := range memberships {
		if m.SourceQuery != "" {
			querySet[m.SourceQuery] = true
		}
		if m.Status == article.StatusDeleted {
			continue
		}

		a, err := b.store.GetArticle(m.ArticleID)
		if err != nil {
			return nil, YearRange{}, err
		}
		if a == nil {
			continue
		}
		if !b.passesFilters(a, st.opts) {
			continue
		}

		st.addLocal(a, LevelProject, m.Status)
		if a.Year > 0 {
			if yr.Min == 0 || a.Year < yr.Min {
				yr.Min = a.Year
			}
			if a.Year > yr.Max {
				yr.Max = a.Year
			}
		}
	}

	queries := make([]string, 0, len(querySet))
	for q := range querySet {
		queries = append(queries, q)
	}
	sort.Strings(queries)
	return queries, yr, nil
}

func (b *Builder) passesFilters(a *article.Article, opts Options) bool {
	if opts.YearMin > 0 && (a.Year == 0 || a.Year < opts.YearMin) {
		return false
	}
	if opts.YearMax > 0 && a.Year > opts.YearMax {
		return false
	}
	if opts.MinStatsQuality > 0 && a.StatsQuality < opts.MinStatsQuality {
		return false
	}
	return true
}

// buildReferenceLevel adds level-2 nodes for outbound references of project
// articles, reserving part of the remaining budget for DOI-only references.
func (b *Builder) buildReferenceLevel(st *buildState) error {
	pmidCands, doiCands := st.collectOutbound(LevelProject)

	remaining := st.opts.MaxExtraNodes - st.extra
	if remaining <= 0 {
		return nil
	}
	doiBudget := remaining * doiReservePercent / 100
	pmidBudget := remaining - doiBudget

	pmids := b.selectCandidates(pmidCands, st.opts.Sort, "pmid:", pmidBudget)
	if err := b.addExternal(st, pmids, "pmid", LevelReference); err != nil {
		return err
	}

	remaining = st.opts.MaxExtraNodes - st.extra
	if remaining < doiBudget {
		doiBudget = remaining
	}
	dois := b.selectCandidates(doiCands, st.opts.Sort, "doi:", doiBudget)
	return b.addExternal(st, dois, "doi", LevelReference)
}

// buildCitingLevel adds level-0 nodes for works citing project articles,
// filling whatever budget level 2 left.
func (b *Builder) buildCitingLevel(st *buildState) error {
	freq := make(map[string]int)
	for i, entry := range st.raw {
		if st.rawLevel[i] != LevelProject {
			continue
		}
		perNode := 0
		for _, pmid := range entry.art.CitedByPmids {
			if pmid == "" {
				continue
			}
			if _, ok := st.byPmid[pmid]; ok {
				continue
			}
			if perNode >= st.opts.MaxLinksPerNode {
				break
			}
			perNode++
			freq[pmid]++
		}
	}

	remaining := st.opts.MaxExtraNodes - st.extra
	pmids := b.selectCandidates(freq, st.opts.Sort, "pmid:", remaining)
	return b.addExternal(st, pmids, "pmid", LevelCiting)
}

// buildRelatedLevel adds level-3 nodes: works citing level-2 references that
// appear nowhere else in the graph, a proxy for relation through shared
// references. Capped independently of the global budget.
func (b *Builder) buildRelatedLevel(st *buildState) error {
	freq := make(map[string]int)
	for i, entry := range st.raw {
		if st.rawLevel[i] != LevelReference {
			continue
		}
		perNode := 0
		for _, pmid := range entry.art.CitedByPmids {
			if pmid == "" {
				continue
			}
			if _, ok := st.byPmid[pmid]; ok {
				continue
			}
			if perNode >= st.opts.MaxLinksPerNode {
				break
			}
			perNode++
			freq[pmid]++
		}
	}

	budget := st.opts.MaxExtraNodes - st.extra
	if budget > MaxRelatedNodes {
		budget = MaxRelatedNodes
	}
	pmids := b.selectCandidates(freq, st.opts.Sort, "pmid:", budget)
	return b.addExternal(st, pmids, "pmid", LevelRelated)
}

// collectOutbound gathers reference identifiers of articles at the given
// level that do not already resolve to a node, counting frequency and
// honoring the per-node link budget.
func (st *buildState) collectOutbound(level int) (pmidFreq, doiFreq map[string]int) {
	pmidFreq = make(map[string]int)
	doiFreq = make(map[string]int)

	for i, entry := range st.raw {
		if st.rawLevel[i] != level {
			continue
		}
		perNode := 0
		for _, pmid := range entry.art.ReferencePmids {
			if pmid == "" {
				continue
			}
			if _, ok := st.byPmid[pmid]; ok {
				continue
			}
			if perNode >= st.opts.MaxLinksPerNode {
				break
			}
			perNode++
			pmidFreq[pmid]++
		}
		for _, doi := range entry.art.ReferenceDois {
			norm := dedupe.NormalizeDOI(doi)
			if norm == "" {
				continue
			}
			if _, ok := st.byDoi[norm]; ok {
				continue
			}
			if perNode >= st.opts.MaxLinksPerNode {
				break
			}
			perNode++
			doiFreq[norm]++
		}
	}
	return pmidFreq, doiFreq
}

// selectCandidates orders candidate identifiers by the sort strategy and
// takes the top limit. Ties break on the identifier so builds stay
// deterministic.
func (b *Builder) selectCandidates(freq map[string]int, strategy, keyPrefix string, limit int) []string {
	if limit <= 0 || len(freq) == 0 {
		return nil
	}

	ids := make([]string, 0, len(freq))
	for id := range freq {
		ids = append(ids, id)
	}

	metric := func(id string) int {
		switch strategy {
		case SortCitations:
			if e, ok := b.meta.Get(keyPrefix + id); ok {
				return e.CitedByCount
			}
			return 0
		case SortYear:
			if e, ok := b.meta.Get(keyPrefix + id); ok {
				return e.Year
			}
			return 0
		default:
			return freq[id]
		}
	}

	sort.Slice(ids, func(i, j int) bool {
		mi, mj := metric(ids[i]), metric(ids[j])
		if mi != mj {
			return mi > mj
		}
		if freq[ids[i]] != freq[ids[j]] {
			return freq[ids[i]] > freq[ids[j]]
		}
		return ids[i] < ids[j]
	})

	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// addExternal resolves selected external identifiers locally where possible
// and emits placeholder nodes otherwise, charging the extra-node budget
// before every insertion.
func (b *Builder) addExternal(st *buildState, ids []string, kind string, level int) error {
	if len(ids) == 0 {
		return nil
	}

	var local []article.Article
	var err error
	if kind == "pmid" {
		local, err = b.store.FindArticlesByPmids(ids)
	} else {
		local, err = b.store.FindArticlesByDois(ids)
	}
	if err != nil {
		return err
	}
	localByID := make(map[string]*article.Article, len(local))
	for i := range local {
		if kind == "pmid" {
			localByID[local[i].PMID] = &local[i]
		} else {
			localByID[dedupe.NormalizeDOI(local[i].DOI)] = &local[i]
		}
	}

	for _, id := range ids {
		if st.extra >= st.opts.MaxExtraNodes {
			return nil // budget exhausted: stop, not an error
		}
		if a, ok := localByID[id]; ok {
			if _, present := st.nodes[a.ID]; present {
				continue
			}
			st.addLocal(a, level, "")
			st.extra++
			continue
		}
		nodeID := kind + ":" + id
		if _, present := st.nodes[nodeID]; present {
			continue
		}
		n := &Node{ID: nodeID, Level: level, Placeholder: true}
		st.nodes[nodeID] = n
		st.order = append(st.order, nodeID)
		if kind == "pmid" {
			st.byPmid[id] = nodeID
		} else {
			st.byDoi[id] = nodeID
		}
		st.extra++
	}
	return nil
}

// addLocal inserts a node for a locally stored article and registers its
// identifiers for edge resolution.
func (st *buildState) addLocal(a *article.Article, level int, status string) {
	n := &Node{
		ID:           a.ID,
		Level:        level,
		Status:       status,
		Title:        a.Title,
		Authors:      a.Authors,
		Year:         a.Year,
		Journal:      a.Journal,
		CitedByCount: len(a.CitedByPmids),
		StatsQuality: a.StatsQuality,
	}
	st.nodes[a.ID] = n
	st.order = append(st.order, a.ID)
	if a.PMID != "" {
		st.byPmid[a.PMID] = a.ID
	}
	if a.DOI != "" {
		st.byDoi[dedupe.NormalizeDOI(a.DOI)] = a.ID
	}
	st.raw = append(st.raw, rawEntry{art: *a, nodeID: a.ID})
	st.rawLevel = append(st.rawLevel, level)
}

// buildLinks runs the single edge pass over every local article in the
// graph: outbound references and inbound citers that resolve to any present
// node become directed edges. Duplicate ordered pairs and self-edges drop.
func buildLinks(st *buildState) []Link {
	seen := make(map[string]bool)
	var links []Link

	add := func(source, target string) {
		if source == target {
			return
		}
		key := source + "->" + target
		if seen[key] {
			return
		}
		seen[key] = true
		links = append(links, Link{Source: source, Target: target})
	}

	for _, entry := range st.raw {
		for _, pmid := range entry.art.ReferencePmids {
			if target, ok := st.byPmid[pmid]; ok {
				add(entry.nodeID, target)
			}
		}
		for _, doi := range entry.art.ReferenceDois {
			if target, ok := st.byDoi[dedupe.NormalizeDOI(doi)]; ok {
				add(entry.nodeID, target)
			}
		}
		for _, pmid := range entry.art.CitedByPmids {
			if source, ok := st.byPmid[pmid]; ok {
				add(source, entry.nodeID)
			}
		}
	}
	return links
}
