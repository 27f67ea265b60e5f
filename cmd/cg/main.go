// Package main provides the cg CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/matsen/citegraph/internal/config"
	"github.com/matsen/citegraph/internal/storage"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like missing required flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cg",
	Short: "Citation numbering and citation graph CLI",
	Long: `cg manages article catalogs, per-document citation numbering, and
multi-level citation graphs for research writing projects.

Core features:
  - Article catalog with PMID/DOI/title based deduplication
  - Dense per-document citation numbering with sub-numbers
  - Project-wide renumbering across reordered documents
  - Citation graph expansion (references, citing works, related works)
  - Best-effort metadata enrichment via NCBI and Crossref

Data is stored in SQLite under .citegraph/, exportable to JSONL.
All commands output JSON by default for AI agent integration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// mustFindRepository finds and validates the repository, exits on error.
// Returns the repository root path.
func mustFindRepository() string {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	repoRoot, err := config.FindRepository(cwd)
	if err != nil {
		exitWithError(ExitConfigError, "not inside a citegraph repository (run 'cg init' first)")
	}
	return repoRoot
}

// mustOpenDatabase opens the SQLite database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(repoRoot string) *storage.DB {
	db, err := storage.OpenDB(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// resolveProjectID returns the explicit flag value, falling back to the
// repository's default project. Exits when neither is set.
func resolveProjectID(flagValue, repoRoot string) string {
	if flagValue != "" {
		return flagValue
	}
	cfg := mustLoadConfig(repoRoot)
	if cfg.ProjectID == "" {
		exitWithError(ExitConfigError, "no project specified: pass --project or set a default with 'cg config set project_id <id>'")
	}
	return cfg.ProjectID
}
