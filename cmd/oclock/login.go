package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/boudmaker/oclock/internal/auth"
	"github.com/boudmaker/oclock/internal/store/local"
	"github.com/boudmaker/oclock/internal/ui"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in so data lives in the shared database",
	Long: `Sign in with a bearer token. While signed in, todos, sessions, and
settings are stored in the shared SQLite database under your account
instead of the local JSON files. The local files are left untouched and
come back when you log out.

Provide an existing token with --token, or mint one for a principal
with --as (requires auth_secret in the config).

Example usage:
  oclock login --token eyJhbGciOi...
  oclock login --as alice`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		principal, _ := cmd.Flags().GetString("as")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		if token == "" && principal == "" {
			return fmt.Errorf("provide --token or --as")
		}
		secret := viper.GetString("auth_secret")
		if secret == "" {
			return fmt.Errorf("auth_secret is not configured; set it in %s/oclock.yaml", configDir())
		}

		logger := newLogger("[oclock] ")
		store, err := local.Open(viper.GetString("data_dir"))
		if err != nil {
			return fmt.Errorf("opening data directory: %w", err)
		}
		provider := auth.New([]byte(secret), logger)

		if token == "" {
			token, err = provider.IssueToken(principal, ttl)
			if err != nil {
				return fmt.Errorf("issuing token: %w", err)
			}
		}
		who, err := provider.SignIn(token)
		if err != nil {
			return fmt.Errorf("signing in: %w", err)
		}
		if err := store.Put(local.KeyAuthToken, token); err != nil {
			return fmt.Errorf("storing token: %w", err)
		}
		fmt.Printf("%s Signed in as %s\n", ui.RenderPass("✓"), who)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and return to local data",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := local.Open(viper.GetString("data_dir"))
		if err != nil {
			return fmt.Errorf("opening data directory: %w", err)
		}
		if err := store.Delete(local.KeyAuthToken); err != nil {
			return fmt.Errorf("clearing token: %w", err)
		}
		fmt.Printf("%s Signed out\n", ui.RenderPass("✓"))
		return nil
	},
}

func init() {
	loginCmd.Flags().String("token", "", "Bearer token to sign in with")
	loginCmd.Flags().String("as", "", "Principal to mint a token for")
	loginCmd.Flags().Duration("ttl", 30*24*time.Hour, "Lifetime of a minted token")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
