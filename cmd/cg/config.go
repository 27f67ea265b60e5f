package main

import (
	"github.com/matsen/citegraph/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage repository configuration",
	Long: `Manage repository configuration stored in .citegraph/config.json.

Keys:
  project_id  Default project for commands
  pdf_root    Absolute path to the PDF folder used by 'article import-pdf'`,
}

// ConfigResponse is the response for config get.
type ConfigResponse struct {
	ProjectID string `json:"project_id,omitempty"`
	PDFRoot   string `json:"pdf_root,omitempty"`
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show repository configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigGet,
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	if humanOutput {
		outputHuman("project_id: %s\npdf_root: %s\n", cfg.ProjectID, cfg.PDFRoot)
		return nil
	}
	return outputJSON(ConfigResponse{ProjectID: cfg.ProjectID, PDFRoot: cfg.PDFRoot})
}

// UpdateResponse is the response for config set.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a repository configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	key, value := args[0], args[1]
	switch key {
	case "project_id":
		cfg.ProjectID = value
	case "pdf_root":
		cfg.PDFRoot = value
	default:
		exitWithError(ExitDataError, "unknown config key %q", key)
	}

	if err := config.Save(repoRoot, cfg); err != nil {
		exitWithError(ExitConfigError, "saving config: %v", err)
	}

	if humanOutput {
		outputHuman("Set %s = %s\n", key, value)
		return nil
	}
	return outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
}
