package main

import (
	"github.com/matsen/citegraph/internal/article"
	"github.com/matsen/citegraph/internal/dedupe"
	"github.com/matsen/citegraph/internal/enrich"
	"github.com/matsen/citegraph/internal/pubmed"
	"github.com/spf13/cobra"
)

func init() {
	articleCmd.AddCommand(articleEnrichCmd)

	// article set-refs flags
	articleSetRefsCmd.Flags().String("ref-pmids", "", "Comma-separated PMIDs this article references")
	articleSetRefsCmd.Flags().String("ref-dois", "", "Comma-separated DOIs this article references")
	articleSetRefsCmd.Flags().String("cited-by", "", "Comma-separated PMIDs of works citing this article")
	articleCmd.AddCommand(articleSetRefsCmd)
}

var articleEnrichCmd = &cobra.Command{
	Use:   "enrich <id>",
	Short: "Refresh an article's metadata from external sources",
	Long: `Refresh an article's metadata from NCBI (by PMID) or Crossref (by DOI).

Fields already set locally are only overwritten when the lookup returns a
value. The abstract's stats-quality score is recomputed.`,
	Args: cobra.ExactArgs(1),
	RunE: runArticleEnrich,
}

func runArticleEnrich(cmd *cobra.Command, args []string) error {
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
	if a.PMID == "" && a.DOI == "" {
		exitWithError(ExitDataError, "article %s has no PMID or DOI to look up", a.ID)
	}

	client := newAPIClient()
	if a.PMID != "" {
		partials, err := client.FetchByPmids(cmd.Context(), []string{a.PMID})
		if err != nil {
			exitWithError(ExitAPIError, "NCBI lookup: %v", err)
		}
		if len(partials) > 0 {
			mergePartial(a, &partials[0])
		}
	} else {
		partial, err := client.FetchByDoi(cmd.Context(), a.DOI)
		if err != nil {
			exitWithError(ExitAPIError, "Crossref lookup: %v", err)
		}
		if partial != nil {
			mergePartial(a, partial)
		}
	}

	if a.Abstract != "" {
		a.StatsQuality = enrich.ScoreStatsQuality(a.Abstract)
	}

	if err := db.UpdateArticleEnrichment(a); err != nil {
		exitWithError(ExitDataError, "updating article: %v", err)
	}

	if humanOutput {
		outputHuman("Enriched article %s\n  %s\n", a.ID, a.Title)
		return nil
	}
	return outputJSON(ArticleAddResult{Status: "enriched", Article: *a})
}

// mergePartial overlays looked-up metadata onto a, keeping local values for
// fields the lookup left empty.
func mergePartial(a *article.Article, p *pubmed.PartialArticle) {
	if p.Title != "" {
		a.Title = p.Title
	}
	if len(p.Authors) > 0 {
		a.Authors = p.Authors
	}
	if p.Year != 0 {
		a.Year = p.Year
	}
	if p.Journal != "" {
		a.Journal = p.Journal
	}
	if p.Abstract != "" {
		a.Abstract = p.Abstract
	}
	if a.DOI == "" {
		a.DOI = dedupe.NormalizeDOI(p.DOI)
	}
	if a.PMID == "" {
		a.PMID = p.PMID
	}
}

// SetRefsResult is the response for the article set-refs command.
type SetRefsResult struct {
	Status         string `json:"status"`
	ArticleID      string `json:"article_id"`
	ReferencePmids int    `json:"reference_pmids"`
	ReferenceDois  int    `json:"reference_dois"`
	CitedByPmids   int    `json:"cited_by_pmids"`
}

var articleSetRefsCmd = &cobra.Command{
	Use:   "set-refs <id>",
	Short: "Set an article's reference and citing lists",
	Long: `Set the reference and citing identifier lists used by graph expansion.
A flag that is not given leaves the corresponding list unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: runArticleSetRefs,
}

func runArticleSetRefs(cmd *cobra.Command, args []string) error {
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

	if cmd.Flags().Changed("ref-pmids") {
		s, _ := cmd.Flags().GetString("ref-pmids")
		a.ReferencePmids = splitCommaList(s)
	}
	if cmd.Flags().Changed("ref-dois") {
		s, _ := cmd.Flags().GetString("ref-dois")
		dois := splitCommaList(s)
		for i := range dois {
			dois[i] = dedupe.NormalizeDOI(dois[i])
		}
		a.ReferenceDois = dois
	}
	if cmd.Flags().Changed("cited-by") {
		s, _ := cmd.Flags().GetString("cited-by")
		a.CitedByPmids = splitCommaList(s)
	}

	if err := db.UpdateArticleEnrichment(a); err != nil {
		exitWithError(ExitDataError, "updating article: %v", err)
	}

	if humanOutput {
		outputHuman("Updated reference lists of %s\n", a.ID)
		return nil
	}
	return outputJSON(SetRefsResult{
		Status:         "updated",
		ArticleID:      a.ID,
		ReferencePmids: len(a.ReferencePmids),
		ReferenceDois:  len(a.ReferenceDois),
		CitedByPmids:   len(a.CitedByPmids),
	})
}
