package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configDir string
	verbose   bool
)

// rootCmd represents the base command for the gmailtriage application
var rootCmd = &cobra.Command{
	Use:   "gmailtriage",
	Short: "Suggests and archives unread Gmail messages using an LLM",
	Long: `gmailtriage scans the unread messages in your Gmail inbox, asks an
OpenAI model which of them can be safely archived, and applies the
suggestions after confirmation (or automatically with --yes).

Authentication uses OAuth2; the token is cached in your user
configuration directory. The OpenAI API key is read from the
OPENAI_API_KEY environment variable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// exitCodeError carries a specific process exit code through cobra's
// error return. Used to distinguish partial failure (2) from fatal
// failure (1).
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gmailtriage version %s\n" .Version}}`)

	// If no subcommand is provided, run the triage command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "triage")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Errors are printed here exactly once; cobra's own printing is
	// silenced so the degraded-run message does not appear twice.
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.msg)
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding credentials.json and the cached token (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newTriageCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
