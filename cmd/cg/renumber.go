package main

import (
	"github.com/matsen/citegraph/internal/numbering"
	"github.com/spf13/cobra"
)

var renumberProjectFlag string

func init() {
	renumberCmd.Flags().StringVarP(&renumberProjectFlag, "project", "p", "", "Project ID (default: repository config)")
	rootCmd.AddCommand(renumberCmd)
}

var renumberCmd = &cobra.Command{
	Use:   "renumber",
	Short: "Recompute global citation numbering across a project",
	Long: `Recompute one global citation numbering across every document of a
project, walking documents in project order. Run after 'cg doc reorder'.

Embedded citation markers are rewritten in place. A citation whose marker
cannot be located keeps its correct stored number and is reported as a
warning.`,
	Args: cobra.NoArgs,
	RunE: runRenumber,
}

func runRenumber(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	projectID := resolveProjectID(renumberProjectFlag, repoRoot)
	result, err := numbering.RenumberProject(db, projectID)
	if err != nil {
		exitWithError(ExitError, "renumbering project: %v", err)
	}

	if humanOutput {
		outputHuman("Renumbered %d citation(s) across %d document(s)\n",
			result.CitationsRenumbered, result.DocumentsRewritten)
		for _, w := range result.Warnings {
			outputHuman("warning: document %s citation %s: %s\n", w.DocumentID, w.CitationID, w.Message)
		}
		return nil
	}
	return outputJSON(result)
}
