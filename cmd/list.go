package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"docsdiff/internal/config"
	"docsdiff/internal/security"
	"docsdiff/internal/ui"
	"docsdiff/pkg/errors"
)

var listOutput string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the repositories a sync would track",
	Long: `List queries the organization's repository directory, applies the
exclusion patterns and prints what remains. Nothing on disk is touched.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "output format: table or yaml")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if listOutput != "table" && listOutput != "yaml" {
		return errors.ConfigError(fmt.Sprintf("unknown output format %q", listOutput), "output")
	}

	if err := config.ResolveCredentials(cfg, security.NewCredentialManager(), logger); err != nil {
		return err
	}

	client, err := newDirectoryClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	repos, err := client.ListRepositories(cmd.Context(), cfg.GitHub.Org)
	if err != nil {
		return err
	}

	if listOutput == "yaml" {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(repos)
	}

	ui.RenderRepositories(cmd.OutOrStdout(), repos)
	return nil
}
