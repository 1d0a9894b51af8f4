package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"docsdiff/internal/security"
	"docsdiff/internal/ui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage GitHub credentials in the system keyring",
	Long: `Credentials stored here are used for the repository listing and for
HTTPS clones whenever the configuration and environment provide none.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a GitHub password or token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		login, err := ui.NewConfigWizard().Login(cfg.GitHub.Username)
		if err != nil {
			return err
		}

		cm := security.NewCredentialManager()
		if login.Method == ui.LoginToken {
			err = cm.StoreGitHubToken(login.Secret)
		} else {
			err = cm.StoreGitHubLogin(login.Username, login.Secret)
		}
		if err != nil {
			return err
		}

		ui.ShowSuccess(fmt.Sprintf("Stored GitHub %s in the keyring", login.Method))
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored GitHub credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := security.NewCredentialManager().DeleteGitHub(); err != nil {
			return err
		}
		ui.ShowSuccess("Removed GitHub credentials from the keyring")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which stored credentials exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cm := security.NewCredentialManager()
		for _, name := range []string{security.GitHubLogin, security.GitHubToken} {
			cred, found, err := cm.GetCredential(name)
			if err != nil {
				return err
			}
			switch {
			case !found:
				fmt.Fprintf(cmd.OutOrStdout(), "%-13s %s\n", name, ui.ColorDim("not stored"))
			case cred.Username() != "":
				fmt.Fprintf(cmd.OutOrStdout(), "%-13s %s (%s, stored %s)\n", name,
					ui.ColorSuccess("stored"), cred.Username(), cred.CreatedAt.Format("2006-01-02"))
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "%-13s %s (stored %s)\n", name,
					ui.ColorSuccess("stored"), cred.CreatedAt.Format("2006-01-02"))
			}
		}
		return nil
	},
}

func init() {
	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
