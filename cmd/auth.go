package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/gmailtriage/internal/google"
	"github.com/teemow/gmailtriage/internal/logging"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Run the interactive OAuth authorization flow",
		Long: `Authorize gmailtriage against your Gmail account. Prints an
authorization URL, waits for the code on stdin, and caches the
resulting token. Replaces any previously cached token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.WithOperation(logging.New(verbose), "auth")
			mgr, err := google.NewManager(configDir, log)
			if err != nil {
				return err
			}
			if mgr.HasToken() {
				fmt.Fprintln(cmd.OutOrStdout(), "A cached token exists; re-authorizing will replace it.")
			}
			if _, err := mgr.Authorize(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Authorization successful.")
			return nil
		},
	}

	cmd.AddCommand(newAuthResetCmd())
	return cmd
}

func newAuthResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the cached OAuth token",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.WithOperation(logging.New(verbose), "auth")
			mgr, err := google.NewManager(configDir, log)
			if err != nil {
				return err
			}
			if !mgr.HasToken() {
				fmt.Fprintln(cmd.OutOrStdout(), "No cached token to remove.")
				return nil
			}
			if err := mgr.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cached token removed.")
			return nil
		},
	}
}
