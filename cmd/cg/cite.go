package main

import (
	"errors"
	"regexp"

	"github.com/matsen/citegraph/internal/article"
	"github.com/matsen/citegraph/internal/numbering"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(citeCmd)

	// cite add flags
	citeAddCmd.Flags().String("pages", "", "Page range, e.g. 12-15")
	citeAddCmd.Flags().String("note", "", "Free-form note")
	citeCmd.AddCommand(citeAddCmd)

	citeCmd.AddCommand(citeRemoveCmd)
	citeCmd.AddCommand(citeListCmd)
	citeCmd.AddCommand(citeSyncCmd)
}

var citeCmd = &cobra.Command{
	Use:   "cite",
	Short: "Manage document citations",
	Long: `Commands for managing the citations of a document.

Citations of the same source share one inline number; repeat citations get
sub-numbers. Numbers within a document are always dense: removing a
citation closes the gap immediately.`,
}

// exitForNumberingError maps domain errors to exit codes.
func exitForNumberingError(err error, action string) {
	switch {
	case errors.Is(err, article.ErrDocumentNotFound),
		errors.Is(err, article.ErrArticleNotFound),
		errors.Is(err, article.ErrCitationNotFound):
		exitWithError(ExitNotFound, "%s: %v", action, err)
	case errors.Is(err, numbering.ErrInvariantViolation):
		exitWithError(ExitDataError, "%s: %v", action, err)
	default:
		exitWithError(ExitError, "%s: %v", action, err)
	}
}

// CiteAddResult is the response for the cite add command.
type CiteAddResult struct {
	Status   string           `json:"status"`
	Citation article.Citation `json:"citation"`
}

var citeAddCmd = &cobra.Command{
	Use:   "add <doc-id> <article-id>",
	Short: "Cite an article in a document",
	Args:  cobra.ExactArgs(2),
	RunE:  runCiteAdd,
}

func runCiteAdd(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	pages, _ := cmd.Flags().GetString("pages")
	note, _ := cmd.Flags().GetString("note")

	engine := numbering.NewEngine(db)
	c, err := engine.Add(args[0], args[1], pages, note)
	if err != nil {
		exitForNumberingError(err, "adding citation")
	}

	if humanOutput {
		outputHuman("Added citation %s as [%d.%d]\n", c.ID, c.InlineNumber, c.SubNumber)
		return nil
	}
	return outputJSON(CiteAddResult{Status: "created", Citation: *c})
}

var citeRemoveCmd = &cobra.Command{
	Use:   "remove <citation-id>",
	Short: "Remove a citation",
	Args:  cobra.ExactArgs(1),
	RunE:  runCiteRemove,
}

func runCiteRemove(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	engine := numbering.NewEngine(db)
	if err := engine.Remove(args[0]); err != nil {
		exitForNumberingError(err, "removing citation")
	}

	if humanOutput {
		outputHuman("Removed citation %s\n", args[0])
		return nil
	}
	return outputJSON(StatusResponse{Status: "removed"})
}

// CiteListResult is the response for the cite list command.
type CiteListResult struct {
	DocumentID string             `json:"document_id"`
	Count      int                `json:"count"`
	Citations  []article.Citation `json:"citations"`
}

var citeListCmd = &cobra.Command{
	Use:   "list <doc-id>",
	Short: "List a document's citations",
	Args:  cobra.ExactArgs(1),
	RunE:  runCiteList,
}

func runCiteList(cmd *cobra.Command, args []string) error {
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

	cits, err := db.ListCitations(doc.ID)
	if err != nil {
		exitWithError(ExitError, "listing citations: %v", err)
	}

	if humanOutput {
		for _, c := range cits {
			line := c.ID
			if a, err := db.GetArticle(c.ArticleID); err == nil && a != nil {
				line += "  " + truncateString(a.Title, ListTitleMaxLen)
			}
			outputHuman("[%d.%d] %s\n", c.InlineNumber, c.SubNumber, line)
		}
		outputHuman("%d citation(s)\n", len(cits))
		return nil
	}
	return outputJSON(CiteListResult{DocumentID: doc.ID, Count: len(cits), Citations: cits})
}

// citationMarkerRe finds citation ids referenced by the document content.
var citationMarkerRe = regexp.MustCompile(`data-citation-id="([^"]+)"`)

// SyncResult is the response for the cite sync command.
type SyncResult struct {
	Status  string `json:"status"`
	Changed int    `json:"changed"`
}

var citeSyncCmd = &cobra.Command{
	Use:   "sync <doc-id> [citation-id...]",
	Short: "Reconcile citation rows with document content",
	Long: `Reconcile a document's citation rows with the citations its content
still references, then renumber from scratch.

With no citation ids given, the stored content is scanned for citation
markers. Rows absent from the content are deleted; distinct article rows
describing the same source merge into one number group.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCiteSync,
}

func runCiteSync(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	docID := args[0]
	presentIDs := args[1:]
	if len(presentIDs) == 0 {
		doc, err := db.GetDocument(docID)
		if err != nil {
			exitWithError(ExitError, "reading document: %v", err)
		}
		if doc == nil {
			exitWithError(ExitNotFound, "document %q not found", docID)
		}
		for _, m := range citationMarkerRe.FindAllStringSubmatch(doc.Content, -1) {
			presentIDs = append(presentIDs, m[1])
		}
	}

	engine := numbering.NewEngine(db)
	changed, err := engine.Synchronize(docID, presentIDs)
	if err != nil {
		exitForNumberingError(err, "synchronizing citations")
	}

	if humanOutput {
		outputHuman("Synchronized: %d citation(s) changed\n", changed)
		return nil
	}
	return outputJSON(SyncResult{Status: "synchronized", Changed: changed})
}
