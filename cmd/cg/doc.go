package main

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/matsen/citegraph/internal/article"
	"github.com/spf13/cobra"
)

var docProjectFlag string

func init() {
	rootCmd.AddCommand(docCmd)
	docCmd.PersistentFlags().StringVarP(&docProjectFlag, "project", "p", "", "Project ID (default: repository config)")

	// doc add flags
	docAddCmd.Flags().StringP("title", "t", "", "Document title (required)")
	docAddCmd.MarkFlagRequired("title")
	docCmd.AddCommand(docAddCmd)

	docCmd.AddCommand(docListCmd)
	docCmd.AddCommand(docReorderCmd)

	// doc set-content flags
	docSetContentCmd.Flags().StringP("file", "f", "-", "Content file path, or - for stdin")
	docCmd.AddCommand(docSetContentCmd)
}

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage project documents",
	Long:  `Commands for managing the ordered documents of a project.`,
}

// DocAddResult is the response for the doc add command.
type DocAddResult struct {
	Status   string           `json:"status"`
	Document article.Document `json:"document"`
}

var docAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a document to a project",
	Args:  cobra.NoArgs,
	RunE:  runDocAdd,
}

func runDocAdd(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	projectID := resolveProjectID(docProjectFlag, repoRoot)
	title, _ := cmd.Flags().GetString("title")

	existing, err := db.ListDocuments(projectID)
	if err != nil {
		exitWithError(ExitError, "listing documents: %v", err)
	}

	doc := &article.Document{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		Title:      title,
		OrderIndex: len(existing),
	}
	if err := doc.ValidateForCreate(); err != nil {
		exitWithError(ExitDataError, "invalid document: %v", err)
	}
	if err := db.InsertDocument(doc); err != nil {
		exitWithError(ExitDataError, "inserting document: %v", err)
	}

	if humanOutput {
		outputHuman("Added document %s at position %d\n  %s\n", doc.ID, doc.OrderIndex, doc.Title)
		return nil
	}
	return outputJSON(DocAddResult{Status: "created", Document: *doc})
}

// DocListResult is the response for the doc list command.
type DocListResult struct {
	ProjectID string             `json:"project_id"`
	Count     int                `json:"count"`
	Documents []article.Document `json:"documents"`
}

var docListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a project's documents in order",
	Args:  cobra.NoArgs,
	RunE:  runDocList,
}

func runDocList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	projectID := resolveProjectID(docProjectFlag, repoRoot)
	docs, err := db.ListDocuments(projectID)
	if err != nil {
		exitWithError(ExitError, "listing documents: %v", err)
	}

	if humanOutput {
		for _, d := range docs {
			outputHuman("%d. %s  %s\n", d.OrderIndex, d.ID, truncateString(d.Title, ListTitleMaxLen))
		}
		return nil
	}
	return outputJSON(DocListResult{ProjectID: projectID, Count: len(docs), Documents: docs})
}

var docReorderCmd = &cobra.Command{
	Use:   "reorder <doc-id> [doc-id...]",
	Short: "Set the document order for a project",
	Long: `Set the document order for a project. All of the project's documents
must be listed exactly once; their order indexes are rewritten to match.

Run 'cg renumber' afterwards to restore global citation numbering.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDocReorder,
}

func runDocReorder(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	projectID := resolveProjectID(docProjectFlag, repoRoot)
	docs, err := db.ListDocuments(projectID)
	if err != nil {
		exitWithError(ExitError, "listing documents: %v", err)
	}

	known := make(map[string]bool, len(docs))
	for _, d := range docs {
		known[d.ID] = true
	}
	if len(args) != len(docs) {
		exitWithError(ExitDataError, "expected %d document id(s), got %d", len(docs), len(args))
	}
	seen := make(map[string]bool, len(args))
	for _, id := range args {
		if !known[id] {
			exitWithError(ExitNotFound, "document %q not found in project %s", id, projectID)
		}
		if seen[id] {
			exitWithError(ExitDataError, "document %q listed twice", id)
		}
		seen[id] = true
	}

	if err := db.ReorderDocuments(args); err != nil {
		exitWithError(ExitDataError, "reordering documents: %v", err)
	}

	if humanOutput {
		outputHuman("Reordered %d document(s)\n", len(args))
		return nil
	}
	return outputJSON(StatusResponse{Status: "reordered"})
}

var docSetContentCmd = &cobra.Command{
	Use:   "set-content <doc-id>",
	Short: "Replace a document's content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocSetContent,
}

func runDocSetContent(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	doc, err := db.GetDocument(args[0])
	if err != nil {
		exitWithError(ExitError, "reading document: %v", err)
	}
	if doc == nil {
		exitWithError(ExitNotFound, "document %q not found", args[0])
	}

	path, _ := cmd.Flags().GetString("file")
	var content []byte
	if path == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		exitWithError(ExitDataError, "reading content: %v", err)
	}

	if err := db.UpdateDocumentContent(doc.ID, string(content)); err != nil {
		exitWithError(ExitDataError, "updating document: %v", err)
	}

	if humanOutput {
		outputHuman("Updated content of %s (%d bytes)\n", doc.ID, len(content))
		return nil
	}
	return outputJSON(StatusResponse{Status: "updated"})
}
