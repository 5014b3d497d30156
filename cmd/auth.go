package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/calendaragent/internal/google"
)

func newAuthCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Calendar",
		Long: `Bootstrap the OAuth token used by the google calendar backend.

  1. calendaragent auth url          prints the consent URL
  2. open it, grant access and copy the code parameter of the redirect
  3. calendaragent auth save-code <code>

The client credentials come from the [google] config section or the
GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables.`,
	}
	cmd.PersistentFlags().StringVar(&account, "account", "", "Account name the token is stored under (default: google.account from config)")

	cmd.AddCommand(&cobra.Command{
		Use:   "url",
		Short: "Print the Google consent URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(nil)
			if err != nil {
				return err
			}
			conf, err := googleOAuthConfig(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), google.AuthURL(conf, uuid.NewString()))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save-code <code>",
		Short: "Exchange an authorization code and store the token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(nil)
			if err != nil {
				return err
			}
			conf, err := googleOAuthConfig(cfg)
			if err != nil {
				return err
			}
			name := account
			if name == "" {
				name = cfg.Google.Account
			}
			tokens := google.NewFileTokenProvider(cfg.Google.TokenDir)
			if err := google.ExchangeAndSave(context.Background(), conf, tokens, name, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token for account %q saved to %s\n", name, tokens.TokenPath(name))
			return nil
		},
	})

	return cmd
}
