// Package graph builds multi-level citation graphs around a project's
// article set: the project's own articles, the works they reference, the
// works citing them, and works related through shared references.
package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Graph levels, by hop tier from the project's own articles.
const (
	LevelCiting    = 0 // works citing a project article
	LevelProject   = 1 // the project's articles
	LevelReference = 2 // works a project article references
	LevelRelated   = 3 // works citing a reference (shared-reference proxy)
)

// Membership filters.
const (
	FilterAll      = "all"
	FilterSelected = "selected"
	FilterExcluded = "excluded"
)

// Sort strategies for external candidate selection.
const (
	SortCitations = "citations" // citation count from the shared cache
	SortFrequency = "frequency" // raw reference frequency
	SortYear      = "year"      // publication year from the shared cache
	SortDefault   = "default"
)

// Budget defaults and hard caps.
const (
	DefaultMaxLinksPerNode = 20
	MaxMaxLinksPerNode     = 100
	DefaultMaxExtraNodes   = 2000
	MaxMaxExtraNodes       = 5000
	MaxRelatedNodes        = 500

	// doiReservePercent of the remaining level-2 budget is held for
	// DOI-only references so catalogs without PMIDs are represented.
	doiReservePercent = 30
)

// Options parameterizes one graph build. The zero value is not usable; call
// (*Options).setDefaults via Builder.Build.
type Options struct {
	ProjectID       string `json:"project_id"`
	Filter          string `json:"filter"`            // all|selected|excluded
	YearMin         int    `json:"year_min,omitempty"`
	YearMax         int    `json:"year_max,omitempty"`
	MinStatsQuality int    `json:"min_stats_quality,omitempty"`
	MaxLinksPerNode int    `json:"max_links_per_node"`
	MaxExtraNodes   int    `json:"max_extra_nodes"`
	Sort            string `json:"sort"`
	Depth           int    `json:"depth"` // 1-3
	Cluster         bool   `json:"cluster,omitempty"`
	ClusterBy       string `json:"cluster_by,omitempty"` // year|venue
}

// Option validation errors.
var (
	ErrEmptyProject  = errors.New("project id is required")
	ErrInvalidFilter = errors.New("filter must be one of: all, selected, excluded")
	ErrInvalidSort   = errors.New("sort must be one of: citations, frequency, year, default")
	ErrInvalidDepth  = errors.New("depth must be between 1 and 3")
)

// setDefaults fills zero-valued fields and clamps budgets to their caps.
func (o *Options) setDefaults() {
	if o.Filter == "" {
		o.Filter = FilterAll
	}
	if o.Sort == "" {
		o.Sort = SortDefault
	}
	if o.Depth == 0 {
		o.Depth = 1
	}
	if o.MaxLinksPerNode <= 0 {
		o.MaxLinksPerNode = DefaultMaxLinksPerNode
	}
	if o.MaxLinksPerNode > MaxMaxLinksPerNode {
		o.MaxLinksPerNode = MaxMaxLinksPerNode
	}
	if o.MaxExtraNodes <= 0 {
		o.MaxExtraNodes = DefaultMaxExtraNodes
	}
	if o.MaxExtraNodes > MaxMaxExtraNodes {
		o.MaxExtraNodes = MaxMaxExtraNodes
	}
}

func (o *Options) validate() error {
	if o.ProjectID == "" {
		return ErrEmptyProject
	}
	switch o.Filter {
	case FilterAll, FilterSelected, FilterExcluded:
	default:
		return ErrInvalidFilter
	}
	switch o.Sort {
	case SortCitations, SortFrequency, SortYear, SortDefault:
	default:
		return ErrInvalidSort
	}
	if o.Depth < 1 || o.Depth > 3 {
		return ErrInvalidDepth
	}
	return nil
}

// cacheKey folds every build-affecting parameter into one string so the
// result cache distinguishes any differing request.
func (o *Options) cacheKey() string {
	return fmt.Sprintf("%s|%s|%d-%d|q%d|l%d|n%d|%s|d%d|c%v|%s",
		o.ProjectID, o.Filter, o.YearMin, o.YearMax, o.MinStatsQuality,
		o.MaxLinksPerNode, o.MaxExtraNodes, o.Sort, o.Depth, o.Cluster, o.ClusterBy)
}

// Node is one graph node. ID is a local article id, or a synthetic
// placeholder id ("pmid:<id>" / "doi:<id>") when the work is known only by
// external identifier.
type Node struct {
	ID           string   `json:"id"`
	Level        int      `json:"level"`
	Status       string   `json:"status,omitempty"` // membership status for project nodes
	Placeholder  bool     `json:"placeholder,omitempty"`
	Title        string   `json:"title,omitempty"`
	Authors      []string `json:"authors,omitempty"`
	Year         int      `json:"year,omitempty"`
	Journal      string   `json:"journal,omitempty"`
	CitedByCount int      `json:"cited_by_count,omitempty"`
	StatsQuality int      `json:"stats_quality,omitempty"`
}

// Label returns the display label: the title when known, else the raw
// identifier (unenriched placeholders still render).
func (n *Node) Label() string {
	if n.Title != "" {
		return n.Title
	}
	return strings.TrimPrefix(strings.TrimPrefix(n.ID, "pmid:"), "doi:")
}

// Link is a directed citation edge: Source cites Target.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// LevelCounts reports how many nodes landed in each tier.
type LevelCounts struct {
	Citing    int `json:"level0"`
	Project   int `json:"level1"`
	Reference int `json:"level2"`
	Related   int `json:"level3"`
}

// Stats summarizes a build.
type Stats struct {
	TotalNodes  int         `json:"total_nodes"`
	TotalLinks  int         `json:"total_links"`
	LevelCounts LevelCounts `json:"level_counts"`
}

// YearRange is the publication-year span of the project tier.
type YearRange struct {
	Min int `json:"min,omitempty"`
	Max int `json:"max,omitempty"`
}

// Limits echoes the effective budgets a build ran under.
type Limits struct {
	MaxLinksPerNode int `json:"max_links_per_node"`
	MaxExtraNodes   int `json:"max_extra_nodes"`
}

// Result is the output of one graph build.
type Result struct {
	Nodes                  []Node    `json:"nodes"`
	Links                  []Link    `json:"links"`
	Stats                  Stats     `json:"stats"`
	AvailableSourceQueries []string  `json:"available_source_queries,omitempty"`
	YearRange              YearRange `json:"year_range"`
	CurrentDepth           int       `json:"current_depth"`
	Limits                 Limits    `json:"limits"`
	Clusters               []Cluster `json:"clusters,omitempty"`
}
