package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/gmailtriage/internal/extract"
	"github.com/teemow/gmailtriage/internal/gmail"
	"github.com/teemow/gmailtriage/internal/google"
	"github.com/teemow/gmailtriage/internal/logging"
	"github.com/teemow/gmailtriage/internal/suggest"
	"github.com/teemow/gmailtriage/internal/triage"
)

func newTriageCmd() *cobra.Command {
	var (
		maxMessages int64
		dryRun      bool
		autoApply   bool
		resetAuth   bool
		model       string
		bodyLimit   int
	)

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Scan unread messages and archive what the model suggests",
		Long: `Scan up to --max-messages unread inbox messages, classify each with
the configured OpenAI model, and archive the ones suggested for
archiving. Without --yes each archive action is confirmed
interactively; --dry-run only prints the suggestions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New(verbose)
			ctx := cmd.Context()

			apiKey := os.Getenv("OPENAI_API_KEY")
			if apiKey == "" {
				return fmt.Errorf("OPENAI_API_KEY environment variable is not set")
			}

			mgr, err := google.NewManager(configDir, log)
			if err != nil {
				return err
			}
			if resetAuth {
				if err := mgr.Reset(); err != nil {
					return err
				}
			}

			httpClient, err := mgr.Client(ctx)
			if err != nil {
				return fmt.Errorf("authenticate with Gmail: %w", err)
			}
			mail, err := gmail.NewClient(ctx, httpClient)
			if err != nil {
				return fmt.Errorf("create Gmail client: %w", err)
			}

			svc := triage.NewService(mail, suggest.New(apiKey, model), log)
			report, err := svc.Run(ctx, triage.Spec{
				MaxMessages: maxMessages,
				DryRun:      dryRun,
				AutoApply:   autoApply,
				BodyLimit:   bodyLimit,
			})
			if err != nil {
				return err
			}

			if err := report.WriteSummary(cmd.OutOrStdout()); err != nil {
				return err
			}
			if report.Partial() {
				return &exitCodeError{
					code: 2,
					msg: fmt.Sprintf("run degraded: %d inference fallbacks, %d messages skipped",
						report.Fallbacks, report.Skipped),
				}
			}
			return nil
		},
	}

	cmd.Flags().Int64VarP(&maxMessages, "max-messages", "m", 50, "maximum number of unread messages to scan")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print suggestions without archiving")
	cmd.Flags().BoolVarP(&autoApply, "yes", "y", false, "archive suggested messages without confirmation")
	cmd.Flags().BoolVar(&resetAuth, "reset-auth", false, "discard the cached token and re-authenticate")
	cmd.Flags().StringVar(&model, "model", suggest.DefaultModel, "OpenAI model used for suggestions")
	cmd.Flags().IntVar(&bodyLimit, "body-limit", extract.DefaultLimit, "maximum characters of message text sent to the model")

	return cmd
}
