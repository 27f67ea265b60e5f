package main

import (
	"github.com/matsen/citegraph/internal/article"
	"github.com/spf13/cobra"
)

var projectFlag string

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.PersistentFlags().StringVarP(&projectFlag, "project", "p", "", "Project ID (default: repository config)")

	// project add flags
	projectAddCmd.Flags().StringP("status", "s", article.StatusCandidate, "Membership status: candidate, selected, excluded, deleted")
	projectAddCmd.Flags().StringP("query", "q", "", "Source query that surfaced this article")
	projectCmd.AddCommand(projectAddCmd)

	// project list flags
	projectListCmd.Flags().StringP("status", "s", "", "Filter by membership status")
	projectCmd.AddCommand(projectListCmd)

	// project set-status flags
	projectSetStatusCmd.Flags().StringP("status", "s", "", "New membership status (required)")
	projectSetStatusCmd.MarkFlagRequired("status")
	projectCmd.AddCommand(projectSetStatusCmd)
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage project article membership",
	Long:  `Commands for managing which catalog articles belong to a project.`,
}

// MembershipResult is the response for project add and set-status.
type MembershipResult struct {
	Status     string                 `json:"status"`
	Membership article.ProjectArticle `json:"membership"`
}

var projectAddCmd = &cobra.Command{
	Use:   "add <article-id>",
	Short: "Add an article to a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectAdd,
}

func runProjectAdd(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	projectID := resolveProjectID(projectFlag, repoRoot)
	status, _ := cmd.Flags().GetString("status")
	query, _ := cmd.Flags().GetString("query")

	if !article.ValidStatus(status) {
		exitWithError(ExitDataError, "invalid status %q", status)
	}

	a, err := db.GetArticle(args[0])
	if err != nil {
		exitWithError(ExitError, "reading article: %v", err)
	}
	if a == nil {
		exitWithError(ExitNotFound, "article %q not found", args[0])
	}

	pa := &article.ProjectArticle{
		ProjectID:   projectID,
		ArticleID:   a.ID,
		Status:      status,
		SourceQuery: query,
	}
	if err := db.UpsertProjectArticle(pa); err != nil {
		exitWithError(ExitDataError, "saving membership: %v", err)
	}

	if humanOutput {
		outputHuman("Added %s to project %s (%s)\n", a.ID, projectID, status)
		return nil
	}
	return outputJSON(MembershipResult{Status: "added", Membership: *pa})
}

// ProjectListResult is the response for the project list command.
type ProjectListResult struct {
	ProjectID string                   `json:"project_id"`
	Count     int                      `json:"count"`
	Members   []article.ProjectArticle `json:"members"`
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a project's articles",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

func runProjectList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	projectID := resolveProjectID(projectFlag, repoRoot)
	status, _ := cmd.Flags().GetString("status")
	if status != "" && !article.ValidStatus(status) {
		exitWithError(ExitDataError, "invalid status %q", status)
	}

	members, err := db.ListProjectArticles(projectID, status)
	if err != nil {
		exitWithError(ExitError, "listing project articles: %v", err)
	}

	if humanOutput {
		for _, m := range members {
			line := m.ArticleID + "  [" + m.Status + "]"
			if a, err := db.GetArticle(m.ArticleID); err == nil && a != nil {
				line += "  " + truncateString(a.Title, ListTitleMaxLen)
			}
			outputHuman("%s\n", line)
		}
		outputHuman("%d member(s)\n", len(members))
		return nil
	}
	return outputJSON(ProjectListResult{ProjectID: projectID, Count: len(members), Members: members})
}

var projectSetStatusCmd = &cobra.Command{
	Use:   "set-status <article-id>",
	Short: "Change an article's membership status",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectSetStatus,
}

func runProjectSetStatus(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	projectID := resolveProjectID(projectFlag, repoRoot)
	status, _ := cmd.Flags().GetString("status")
	if !article.ValidStatus(status) {
		exitWithError(ExitDataError, "invalid status %q", status)
	}

	members, err := db.ListProjectArticles(projectID, "")
	if err != nil {
		exitWithError(ExitError, "listing project articles: %v", err)
	}
	var existing *article.ProjectArticle
	for i := range members {
		if members[i].ArticleID == args[0] {
			existing = &members[i]
			break
		}
	}
	if existing == nil {
		exitWithError(ExitNotFound, "article %q is not in project %s", args[0], projectID)
	}

	existing.Status = status
	if err := db.UpsertProjectArticle(existing); err != nil {
		exitWithError(ExitDataError, "saving membership: %v", err)
	}

	if humanOutput {
		outputHuman("Set %s to %s in project %s\n", args[0], status, projectID)
		return nil
	}
	return outputJSON(MembershipResult{Status: "updated", Membership: *existing})
}
