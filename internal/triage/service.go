package triage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/teemow/gmailtriage/internal/extract"
	"github.com/teemow/gmailtriage/internal/gmail"
	"github.com/teemow/gmailtriage/internal/logging"
	"github.com/teemow/gmailtriage/internal/suggest"
)

// Service runs the triage pipeline. Mail and Suggester are interfaces so
// tests can substitute fakes.
type Service struct {
	Mail      Mailbox
	Suggester Suggester
	Log       *slog.Logger

	// In and Out drive the interactive confirmation prompt and the
	// suggestion output.
	In  io.Reader
	Out io.Writer

	// Bounded retry for transient archive failures.
	MaxTries      uint
	RetryInterval time.Duration
}

// NewService returns a Service with terminal I/O and default retry knobs.
func NewService(mail Mailbox, suggester Suggester, log *slog.Logger) *Service {
	return &Service{
		Mail:          mail,
		Suggester:     suggester,
		Log:           log,
		In:            os.Stdin,
		Out:           os.Stdout,
		MaxTries:      3,
		RetryInterval: 500 * time.Millisecond,
	}
}

// Run processes up to spec.MaxMessages unread messages end-to-end. Each
// message is handled independently; inference failures fall back to
// "keep" and archive failures skip the message, so the run continues.
func (s *Service) Run(ctx context.Context, spec Spec) (Report, error) {
	var report Report
	confirm := bufio.NewScanner(s.In)

	err := s.Mail.ForeachUnread(ctx, spec.MaxMessages, func(m *gmail.Message) error {
		report.Scanned++

		sug, err := s.suggestFor(ctx, m, spec.BodyLimit)
		if err != nil {
			return err
		}
		s.printSuggestion(m, sug)

		if sug.Decision == suggest.DecisionKeep {
			report.Kept++
			return nil
		}
		if spec.DryRun {
			fmt.Fprintln(s.Out, "  dry-run: not archiving")
			report.WouldArchive++
			return nil
		}
		if !spec.AutoApply && !s.confirmArchive(confirm) {
			report.Kept++
			return nil
		}

		if err := s.archiveWithRetry(ctx, m.ID); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			s.Log.Error("archive failed; skipping message",
				logging.Operation("archive"), logging.Status(logging.StatusError),
				logging.MessageID(m.ID), logging.SenderHash(m.From), logging.Err(err))
			report.Skipped++
			return nil
		}
		s.Log.Info("archived",
			logging.Operation("archive"), logging.Status(logging.StatusSuccess),
			logging.MessageID(m.ID), logging.SenderHash(m.From))
		report.Archived++
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("process unread messages: %w", err)
	}
	return report, nil
}

// suggestFor extracts the message text and asks the engine for a
// decision. Inference failures are the designed fallback: the message is
// kept and the failure counted, never surfaced as a run error.
func (s *Service) suggestFor(ctx context.Context, m *gmail.Message, bodyLimit int) (suggest.Suggestion, error) {
	text := extract.Text(m.Body, bodyLimit)
	if text == "" {
		text = m.Snippet
	}

	sug, err := s.Suggester.Suggest(ctx, m.Subject, text)
	if err != nil {
		var infErr *suggest.InferenceError
		if !errors.As(err, &infErr) {
			return suggest.Suggestion{}, err
		}
		s.Log.Warn("inference failed; keeping message",
			logging.Operation("suggest"), logging.Status(logging.StatusError),
			logging.MessageID(m.ID), logging.Err(err))
		sug = suggest.Suggestion{
			Decision:  suggest.DecisionKeep,
			Category:  "Unknown",
			Rationale: "inference unavailable, keeping to be safe",
		}
	}
	sug.MessageID = m.ID
	return sug, nil
}

// archiveWithRetry retries transient failures with exponential backoff,
// bounded by MaxTries. Permanent failures stop immediately.
func (s *Service) archiveWithRetry(ctx context.Context, id string) error {
	operation := func() (struct{}, error) {
		err := s.Mail.Archive(ctx, id)
		if err == nil {
			return struct{}{}, nil
		}
		var transient *gmail.TransientError
		if errors.As(err, &transient) {
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.RetryInterval

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.MaxTries))
	return err
}

func (s *Service) printSuggestion(m *gmail.Message, sug suggest.Suggestion) {
	fmt.Fprintf(s.Out, "[%s] %s\n  from: %s\n  subject: %s\n  reason: %s\n",
		strings.ToUpper(string(sug.Decision)), sug.Category, m.From, m.Subject, sug.Rationale)
}

func (s *Service) confirmArchive(scanner *bufio.Scanner) bool {
	fmt.Fprint(s.Out, "  archive? [y/N] ")
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
