package main

import (
	"os"

	"github.com/matsen/citegraph/internal/config"
	"github.com/spf13/cobra"
)

var initProject string

func init() {
	initCmd.Flags().StringVarP(&initProject, "project", "p", "", "Default project ID for this repository")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a citegraph repository",
	Long: `Initialize a citegraph repository in the current directory.

Creates a .citegraph/ directory holding the configuration file and the
SQLite database.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	cfg := &config.Config{ProjectID: initProject}
	if err := config.Init(cwd, cfg); err != nil {
		exitWithError(ExitConfigError, "initializing repository: %v", err)
	}

	if humanOutput {
		outputHuman("Initialized citegraph repository at %s\n", config.CitegraphPath(cwd))
		return nil
	}
	return outputJSON(StatusResponse{Status: "initialized", Path: config.CitegraphPath(cwd)})
}
