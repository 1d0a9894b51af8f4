package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"docsdiff/internal/config"
	"docsdiff/internal/ui"
	"docsdiff/pkg/errors"
)

var (
	initPath        string
	initForce       bool
	initInteractive bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration docsdiff would run with after merging defaults,
the config file, AWSDOCSDIFF_* environment variables and flags. Secrets are
masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg.Redacted())
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file in use",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if used := v.ConfigFileUsed(); used != "" {
			fmt.Fprintln(cmd.OutOrStdout(), used)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (not present)\n", config.GetConfigFile())
	},
}

func init() {
	configInitCmd.Flags().StringVar(&initPath, "path", "", "file to write (default $HOME/.docsdiff/config.yaml)")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
	configInitCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "prompt for the main settings")

	configCmd.AddCommand(configInitCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := initPath
	if path == "" {
		path = config.GetConfigFile()
	}

	if config.Exists(path) && !initForce {
		return errors.New(errors.ErrCodeFileOperation, "configuration file already exists").
			WithContext("path", path).
			WithSuggestions("Pass --force to overwrite it")
	}

	out := *cfg
	if initInteractive {
		answered, err := ui.NewConfigWizard().Run(cfg)
		if err != nil {
			return err
		}
		out = *answered
	}

	// secrets belong in the keyring, see 'docsdiff auth login'
	out.GitHub.Username = ""
	out.GitHub.Password = ""
	out.GitHub.Token = ""

	if err := config.Validate(&out); err != nil {
		return err
	}
	if err := config.Save(&out, path); err != nil {
		return err
	}

	ui.ShowSuccess(fmt.Sprintf("Configuration written to %s", path))
	return nil
}
