package main

import (
	"os"

	"github.com/matsen/citegraph/internal/config"
	"github.com/matsen/citegraph/internal/enrich"
	"github.com/matsen/citegraph/internal/graph"
	"github.com/matsen/citegraph/internal/viz"
	"github.com/spf13/cobra"
)

var graphOpts struct {
	project         string
	filter          string
	yearMin         int
	yearMax         int
	minStatsQuality int
	maxLinks        int
	maxNodes        int
	sort            string
	depth           int
	cluster         bool
	clusterBy       string
	noEnrich        bool
	html            bool
	output          string
	layout          string
}

func init() {
	f := graphCmd.Flags()
	f.StringVarP(&graphOpts.project, "project", "p", "", "Project ID (default: repository config)")
	f.StringVar(&graphOpts.filter, "filter", "", "Membership filter: all, selected, or excluded")
	f.IntVar(&graphOpts.yearMin, "year-min", 0, "Exclude project articles published before this year")
	f.IntVar(&graphOpts.yearMax, "year-max", 0, "Exclude project articles published after this year")
	f.IntVar(&graphOpts.minStatsQuality, "min-stats-quality", 0, "Minimum stats-quality score (0-3)")
	f.IntVar(&graphOpts.maxLinks, "max-links", 0, "Max outbound links followed per node")
	f.IntVar(&graphOpts.maxNodes, "max-nodes", 0, "Max nodes added beyond the project's own")
	f.StringVar(&graphOpts.sort, "sort", "", "Candidate sort: citations, frequency, year, or default")
	f.IntVarP(&graphOpts.depth, "depth", "d", 0, "Graph depth 1-3")
	f.BoolVar(&graphOpts.cluster, "cluster", false, "Group outer nodes into clusters")
	f.StringVar(&graphOpts.clusterBy, "cluster-by", "", "Cluster grouping: year or venue")
	f.BoolVar(&graphOpts.noEnrich, "no-enrich", false, "Skip external metadata lookups")
	f.BoolVar(&graphOpts.html, "html", false, "Render an interactive HTML page instead of JSON")
	f.StringVarP(&graphOpts.output, "output", "o", "", "Output file path (default: stdout)")
	f.StringVar(&graphOpts.layout, "layout", "force", "HTML layout: force, circle, or grid")
	rootCmd.AddCommand(graphCmd)
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Build a citation graph around a project",
	Long: `Build a multi-level citation graph around a project's articles.

Depth 1 is the project's own articles. Depth 2 adds the works they
reference. Depth 3 adds works citing them and works related through
shared references. External works not in the local catalog appear as
placeholder nodes, enriched with metadata from NCBI and Crossref unless
--no-enrich is given.

Examples:
  # JSON graph of references around the default project
  cg graph --depth 2

  # Interactive HTML, clustered by publication year
  cg graph --depth 3 --cluster --html --output graph.html`,
	Args: cobra.NoArgs,
	RunE: runGraph,
}

func runGraph(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	opts := graph.Options{
		ProjectID:       resolveProjectID(graphOpts.project, repoRoot),
		Filter:          graphOpts.filter,
		YearMin:         graphOpts.yearMin,
		YearMax:         graphOpts.yearMax,
		MinStatsQuality: graphOpts.minStatsQuality,
		MaxLinksPerNode: graphOpts.maxLinks,
		MaxExtraNodes:   graphOpts.maxNodes,
		Sort:            graphOpts.sort,
		Depth:           graphOpts.depth,
		Cluster:         graphOpts.cluster,
		ClusterBy:       graphOpts.clusterBy,
	}
	applyGlobalDefaults(&opts)

	var enricher graph.Enricher
	if !graphOpts.noEnrich {
		e := enrich.New(newAPIClient(), db.Cache())
		e.Warn = func(format string, args ...interface{}) {
			outputWarning(format, args...)
		}
		enricher = e
	}

	builder := graph.NewBuilder(db, db.Cache(), enricher, nil)
	result, err := builder.Build(cmd.Context(), opts)
	if err != nil {
		exitWithError(ExitDataError, "building graph: %v", err)
	}

	if graphOpts.html {
		html, err := viz.GenerateHTML(result, viz.HTMLOptions{Layout: graphOpts.layout})
		if err != nil {
			exitWithError(ExitError, "rendering HTML: %v", err)
		}
		return writeOutput(graphOpts.output, []byte(html))
	}

	if humanOutput {
		outputHuman("%d node(s), %d link(s) at depth %d\n",
			result.Stats.TotalNodes, result.Stats.TotalLinks, result.CurrentDepth)
		outputHuman("  citing: %d  project: %d  references: %d  related: %d\n",
			result.Stats.LevelCounts.Citing, result.Stats.LevelCounts.Project,
			result.Stats.LevelCounts.Reference, result.Stats.LevelCounts.Related)
		if len(result.Clusters) > 0 {
			outputHuman("  %d cluster(s)\n", len(result.Clusters))
		}
		return nil
	}
	return outputJSON(result)
}

// applyGlobalDefaults fills unset build options from the global config file.
// Builder defaults still apply to anything left at zero.
func applyGlobalDefaults(opts *graph.Options) {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		return
	}
	if opts.Depth == 0 {
		opts.Depth = cfg.DefaultDepth
	}
	if opts.MaxLinksPerNode == 0 {
		opts.MaxLinksPerNode = cfg.MaxLinksPerNode
	}
	if opts.MaxExtraNodes == 0 {
		opts.MaxExtraNodes = cfg.MaxExtraNodes
	}
}

// writeOutput writes rendered bytes to path, or stdout when path is empty.
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		exitWithError(ExitError, "writing %s: %v", path, err)
	}
	if humanOutput {
		outputHuman("Wrote %s\n", path)
	}
	return nil
}
