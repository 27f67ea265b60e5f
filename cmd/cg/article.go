package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/matsen/citegraph/internal/article"
	"github.com/matsen/citegraph/internal/config"
	"github.com/matsen/citegraph/internal/dedupe"
	"github.com/matsen/citegraph/internal/enrich"
	"github.com/matsen/citegraph/internal/pdfid"
	"github.com/matsen/citegraph/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(articleCmd)

	// article add flags
	articleAddCmd.Flags().StringP("title", "t", "", "Article title (required)")
	articleAddCmd.Flags().String("pmid", "", "PubMed ID")
	articleAddCmd.Flags().String("doi", "", "DOI")
	articleAddCmd.Flags().StringP("authors", "a", "", "Comma-separated author names")
	articleAddCmd.Flags().IntP("year", "y", 0, "Publication year")
	articleAddCmd.Flags().StringP("journal", "j", "", "Journal name")
	articleAddCmd.Flags().String("abstract", "", "Abstract text")
	articleAddCmd.Flags().BoolP("force", "f", false, "Add even if a duplicate exists")
	articleAddCmd.MarkFlagRequired("title")
	articleCmd.AddCommand(articleAddCmd)

	articleCmd.AddCommand(articleGetCmd)
	articleCmd.AddCommand(articleListCmd)

	// article export/import flags
	articleExportCmd.Flags().StringP("output", "o", "", "Output file path (default: .citegraph/articles.jsonl)")
	articleCmd.AddCommand(articleExportCmd)
	articleImportCmd.Flags().StringP("input", "i", "", "Input file path (default: .citegraph/articles.jsonl)")
	articleCmd.AddCommand(articleImportCmd)

	// article import-pdf flags
	articleImportPDFCmd.Flags().Bool("no-fetch", false, "Skip metadata lookup for the extracted DOI")
	articleCmd.AddCommand(articleImportPDFCmd)
}

var articleCmd = &cobra.Command{
	Use:   "article",
	Short: "Manage the article catalog",
	Long:  `Commands for managing articles in the local catalog.`,
}

// ArticleAddResult is the response for the article add command.
type ArticleAddResult struct {
	Status  string          `json:"status"`
	Article article.Article `json:"article"`
}

var articleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an article to the catalog",
	Args:  cobra.NoArgs,
	RunE:  runArticleAdd,
}

func runArticleAdd(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	title, _ := cmd.Flags().GetString("title")
	pmid, _ := cmd.Flags().GetString("pmid")
	doi, _ := cmd.Flags().GetString("doi")
	authorsStr, _ := cmd.Flags().GetString("authors")
	year, _ := cmd.Flags().GetInt("year")
	journal, _ := cmd.Flags().GetString("journal")
	abstract, _ := cmd.Flags().GetString("abstract")
	force, _ := cmd.Flags().GetBool("force")

	a := &article.Article{
		ID:       uuid.NewString(),
		PMID:     pmid,
		DOI:      dedupe.NormalizeDOI(doi),
		Title:    title,
		Authors:  splitCommaList(authorsStr),
		Abstract: abstract,
		Journal:  journal,
		Year:     year,
		Source:   "manual",
	}
	if abstract != "" {
		a.StatsQuality = enrich.ScoreStatsQuality(abstract)
	}

	if err := a.ValidateForCreate(); err != nil {
		exitWithError(ExitDataError, "invalid article: %v", err)
	}

	if !force {
		if dup := findDuplicate(db, a); dup != nil {
			exitWithError(ExitDataError, "duplicate of existing article %s (%s); use --force to add anyway",
				dup.ID, truncateString(dup.Title, ListTitleMaxLen))
		}
	}

	if err := db.InsertArticle(a); err != nil {
		exitWithError(ExitDataError, "inserting article: %v", err)
	}

	if humanOutput {
		outputHuman("Added article %s\n  %s\n", a.ID, a.Title)
		return nil
	}
	return outputJSON(ArticleAddResult{Status: "created", Article: *a})
}

// findDuplicate looks up an existing article sharing an identifier with a.
func findDuplicate(db *storage.DB, a *article.Article) *article.Article {
	if a.PMID != "" {
		if matches, err := db.FindArticlesByPmids([]string{a.PMID}); err == nil && len(matches) > 0 {
			return &matches[0]
		}
	}
	if a.DOI != "" {
		if matches, err := db.FindArticlesByDois([]string{a.DOI}); err == nil && len(matches) > 0 {
			return &matches[0]
		}
	}
	return nil
}

var articleGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show an article",
	Args:  cobra.ExactArgs(1),
	RunE:  runArticleGet,
}

func runArticleGet(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	a, err := db.GetArticle(args[0])
	if err != nil {
		exitWithError(ExitError, "reading article: %v", err)
	}
	if a == nil {
		exitWithError(ExitNotFound, "article %q not found", args[0])
	}

	if humanOutput {
		outputHuman("%s\n  %s\n", a.ID, truncateString(a.Title, DetailTitleMaxLen))
		if len(a.Authors) > 0 {
			outputHuman("  %s\n", formatAuthorsShort(a.Authors, 3))
		}
		if a.Journal != "" || a.Year != 0 {
			outputHuman("  %s (%d)\n", a.Journal, a.Year)
		}
		if a.PMID != "" {
			outputHuman("  PMID: %s\n", a.PMID)
		}
		if a.DOI != "" {
			outputHuman("  DOI: %s\n", a.DOI)
		}
		return nil
	}
	return outputJSON(a)
}

// ArticleListResult is the response for the article list command.
type ArticleListResult struct {
	Count    int               `json:"count"`
	Articles []article.Article `json:"articles"`
}

var articleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all articles",
	Args:  cobra.NoArgs,
	RunE:  runArticleList,
}

func runArticleList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	articles, err := db.ListArticles()
	if err != nil {
		exitWithError(ExitError, "listing articles: %v", err)
	}

	if humanOutput {
		for _, a := range articles {
			outputHuman("%s  %s (%d)\n", a.ID, truncateString(a.Title, ListTitleMaxLen), a.Year)
		}
		outputHuman("%d article(s)\n", len(articles))
		return nil
	}
	return outputJSON(ArticleListResult{Count: len(articles), Articles: articles})
}

// TransferResult is the response for export/import commands.
type TransferResult struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	Path   string `json:"path"`
}

var articleExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog to JSONL",
	Long:  `Export all articles to a git-versionable JSONL file.`,
	Args:  cobra.NoArgs,
	RunE:  runArticleExport,
}

func runArticleExport(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		path = config.ArticlesPath(repoRoot)
	}

	n, err := db.ExportArticles(path)
	if err != nil {
		exitWithError(ExitDataError, "exporting articles: %v", err)
	}

	if humanOutput {
		outputHuman("Exported %d article(s) to %s\n", n, path)
		return nil
	}
	return outputJSON(TransferResult{Status: "exported", Count: n, Path: path})
}

var articleImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import articles from JSONL",
	Long:  `Import articles from a JSONL file. Articles whose IDs already exist are skipped.`,
	Args:  cobra.NoArgs,
	RunE:  runArticleImport,
}

func runArticleImport(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	path, _ := cmd.Flags().GetString("input")
	if path == "" {
		path = config.ArticlesPath(repoRoot)
	}
	if _, err := os.Stat(path); err != nil {
		exitWithError(ExitDataError, "input file: %v", err)
	}

	n, err := db.ImportArticles(path)
	if err != nil {
		exitWithError(ExitDataError, "importing articles: %v", err)
	}

	if humanOutput {
		outputHuman("Imported %d article(s) from %s\n", n, path)
		return nil
	}
	return outputJSON(TransferResult{Status: "imported", Count: n, Path: path})
}

var articleImportPDFCmd = &cobra.Command{
	Use:   "import-pdf <file.pdf>",
	Short: "Add an article from a PDF",
	Long: `Extract a DOI, PMID, and title from a PDF and add the article to the
catalog. When a DOI is found, metadata is fetched from Crossref unless
--no-fetch is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runArticleImportPDF,
}

func runArticleImportPDF(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	pdfPath := args[0]
	cfg := mustLoadConfig(repoRoot)
	if !filepath.IsAbs(pdfPath) && cfg.PDFRoot != "" {
		if _, err := os.Stat(pdfPath); err != nil {
			pdfPath = filepath.Join(cfg.PDFRoot, pdfPath)
		}
	}

	a, err := articleFromPDF(cmd, pdfPath)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if dup := findDuplicate(db, a); dup != nil {
		exitWithError(ExitDataError, "duplicate of existing article %s (%s)",
			dup.ID, truncateString(dup.Title, ListTitleMaxLen))
	}
	if err := a.ValidateForCreate(); err != nil {
		exitWithError(ExitDataError, "PDF yielded no usable metadata: %v", err)
	}

	if err := db.InsertArticle(a); err != nil {
		exitWithError(ExitDataError, "inserting article: %v", err)
	}

	if humanOutput {
		outputHuman("Added article %s from %s\n  %s\n", a.ID, filepath.Base(pdfPath), a.Title)
		return nil
	}
	return outputJSON(ArticleAddResult{Status: "created", Article: *a})
}

func articleFromPDF(cmd *cobra.Command, pdfPath string) (*article.Article, error) {
	ids, err := pdfid.Extract(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("reading PDF: %w", err)
	}

	a := &article.Article{
		ID:     uuid.NewString(),
		PMID:   ids.PMID,
		DOI:    dedupe.NormalizeDOI(ids.DOI),
		Title:  ids.Title,
		Source: "pdf",
	}

	noFetch, _ := cmd.Flags().GetBool("no-fetch")
	if ids.DOI != "" && !noFetch {
		if partial, err := fetchByDOI(cmd.Context(), ids.DOI); err == nil && partial != nil {
			if partial.Title != "" {
				a.Title = partial.Title
			}
			a.Authors = partial.Authors
			a.Year = partial.Year
			a.Journal = partial.Journal
			if a.PMID == "" {
				a.PMID = partial.PMID
			}
		}
	}
	return a, nil
}
