package triage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gmailtriage/internal/gmail"
	"github.com/teemow/gmailtriage/internal/logging"
	"github.com/teemow/gmailtriage/internal/suggest"
)

type fakeMailbox struct {
	messages    []*gmail.Message
	archived    []string
	archiveErrs map[string][]error // consumed per Archive call
}

func (f *fakeMailbox) ForeachUnread(ctx context.Context, max int64, fn func(*gmail.Message) error) error {
	for i, m := range f.messages {
		if int64(i) >= max {
			return nil
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeMailbox) Archive(ctx context.Context, id string) error {
	if errs := f.archiveErrs[id]; len(errs) > 0 {
		err := errs[0]
		f.archiveErrs[id] = errs[1:]
		if err != nil {
			return err
		}
	}
	f.archived = append(f.archived, id)
	return nil
}

type fakeSuggester struct {
	decisions map[string]suggest.Decision // keyed by subject
	err       error
	calls     int
}

func (f *fakeSuggester) Suggest(ctx context.Context, subject, body string) (suggest.Suggestion, error) {
	f.calls++
	if f.err != nil {
		return suggest.Suggestion{}, f.err
	}
	decision, ok := f.decisions[subject]
	if !ok {
		decision = suggest.DecisionKeep
	}
	return suggest.Suggestion{
		Decision:  decision,
		Category:  "Informational",
		Rationale: "test rationale",
	}, nil
}

func message(id, subject string) *gmail.Message {
	return &gmail.Message{
		ID:      id,
		From:    fmt.Sprintf("%s@example.com", id),
		Subject: subject,
		Body:    "<p>some body</p>",
	}
}

func newTestService(mail *fakeMailbox, sugg *fakeSuggester, in string) (*Service, *bytes.Buffer) {
	out := &bytes.Buffer{}
	svc := NewService(mail, sugg, logging.New(false))
	svc.In = strings.NewReader(in)
	svc.Out = out
	svc.RetryInterval = time.Millisecond
	return svc, out
}

func TestRunAutoApply(t *testing.T) {
	mail := &fakeMailbox{messages: []*gmail.Message{
		message("m1", "Newsletter"),
		message("m2", "Sale ends today"),
		message("m3", "Question from Bob"),
	}}
	sugg := &fakeSuggester{decisions: map[string]suggest.Decision{
		"Newsletter":        suggest.DecisionArchive,
		"Sale ends today":   suggest.DecisionArchive,
		"Question from Bob": suggest.DecisionKeep,
	}}
	svc, _ := newTestService(mail, sugg, "")

	report, err := svc.Run(context.Background(), Spec{MaxMessages: 10, AutoApply: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"m1", "m2"}, mail.archived)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 2, report.Archived)
	assert.Equal(t, 1, report.Kept)
	assert.False(t, report.Partial())
}

func TestRunInferenceUnreachable(t *testing.T) {
	mail := &fakeMailbox{messages: []*gmail.Message{
		message("m1", "a"), message("m2", "b"), message("m3", "c"),
	}}
	sugg := &fakeSuggester{err: &suggest.InferenceError{Err: errors.New("connection refused")}}
	svc, out := newTestService(mail, sugg, "")

	report, err := svc.Run(context.Background(), Spec{MaxMessages: 10, AutoApply: true})
	require.NoError(t, err, "inference failure degrades the run, it does not abort it")

	assert.Empty(t, mail.archived, "never archive on an uncertain outcome")
	assert.Equal(t, 3, report.Kept)
	assert.Equal(t, 3, report.Fallbacks)
	assert.True(t, report.Partial())
	assert.Contains(t, out.String(), "KEEP")
}

func TestRunDryRun(t *testing.T) {
	mail := &fakeMailbox{messages: []*gmail.Message{message("m1", "Newsletter")}}
	sugg := &fakeSuggester{decisions: map[string]suggest.Decision{"Newsletter": suggest.DecisionArchive}}
	svc, out := newTestService(mail, sugg, "")

	report, err := svc.Run(context.Background(), Spec{MaxMessages: 10, DryRun: true, AutoApply: true})
	require.NoError(t, err)

	assert.Empty(t, mail.archived)
	assert.Equal(t, 1, report.WouldArchive)
	assert.Contains(t, out.String(), "dry-run")
}

func TestRunInteractiveConfirm(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantArchived []string
		wantKept     int
	}{
		{name: "confirmed", input: "y\n", wantArchived: []string{"m1"}, wantKept: 0},
		{name: "declined", input: "n\n", wantArchived: nil, wantKept: 1},
		{name: "empty answer declines", input: "\n", wantArchived: nil, wantKept: 1},
		{name: "eof declines", input: "", wantArchived: nil, wantKept: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mail := &fakeMailbox{messages: []*gmail.Message{message("m1", "Newsletter")}}
			sugg := &fakeSuggester{decisions: map[string]suggest.Decision{"Newsletter": suggest.DecisionArchive}}
			svc, out := newTestService(mail, sugg, tt.input)

			report, err := svc.Run(context.Background(), Spec{MaxMessages: 10})
			require.NoError(t, err)
			assert.Equal(t, tt.wantArchived, mail.archived)
			assert.Equal(t, tt.wantKept, report.Kept)
			assert.Contains(t, out.String(), "archive? [y/N]")
		})
	}
}

func TestRunPermanentArchiveErrorSkips(t *testing.T) {
	mail := &fakeMailbox{
		messages: []*gmail.Message{message("m1", "Newsletter"), message("m2", "Digest")},
		archiveErrs: map[string][]error{
			"m1": {&gmail.PermanentError{Err: errors.New("not found")}},
		},
	}
	sugg := &fakeSuggester{decisions: map[string]suggest.Decision{
		"Newsletter": suggest.DecisionArchive,
		"Digest":     suggest.DecisionArchive,
	}}
	svc, _ := newTestService(mail, sugg, "")

	report, err := svc.Run(context.Background(), Spec{MaxMessages: 10, AutoApply: true})
	require.NoError(t, err, "a permanent failure skips the message, not the run")

	assert.Equal(t, []string{"m2"}, mail.archived)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Archived)
}

func TestRunTransientArchiveErrorRetries(t *testing.T) {
	mail := &fakeMailbox{
		messages: []*gmail.Message{message("m1", "Newsletter")},
		archiveErrs: map[string][]error{
			"m1": {&gmail.TransientError{Err: errors.New("rate limited")}},
		},
	}
	sugg := &fakeSuggester{decisions: map[string]suggest.Decision{"Newsletter": suggest.DecisionArchive}}
	svc, _ := newTestService(mail, sugg, "")

	report, err := svc.Run(context.Background(), Spec{MaxMessages: 10, AutoApply: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"m1"}, mail.archived)
	assert.Equal(t, 1, report.Archived)
	assert.Equal(t, 0, report.Skipped)
}

func TestRunTransientArchiveErrorBounded(t *testing.T) {
	transient := &gmail.TransientError{Err: errors.New("rate limited")}
	mail := &fakeMailbox{
		messages: []*gmail.Message{message("m1", "Newsletter")},
		archiveErrs: map[string][]error{
			"m1": {transient, transient, transient, transient, transient},
		},
	}
	sugg := &fakeSuggester{decisions: map[string]suggest.Decision{"Newsletter": suggest.DecisionArchive}}
	svc, _ := newTestService(mail, sugg, "")
	svc.MaxTries = 2

	report, err := svc.Run(context.Background(), Spec{MaxMessages: 10, AutoApply: true})
	require.NoError(t, err)

	assert.Empty(t, mail.archived)
	assert.Equal(t, 1, report.Skipped)
	// Two tries consumed, the rest of the queue untouched.
	assert.Len(t, mail.archiveErrs["m1"], 3)
}

func TestRunRespectsMaxMessages(t *testing.T) {
	mail := &fakeMailbox{messages: []*gmail.Message{
		message("m1", "a"), message("m2", "b"), message("m3", "c"),
	}}
	sugg := &fakeSuggester{}
	svc, _ := newTestService(mail, sugg, "")

	report, err := svc.Run(context.Background(), Spec{MaxMessages: 2, AutoApply: true})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 2, sugg.calls)
}

func TestRunNonInferenceSuggestErrorAborts(t *testing.T) {
	mail := &fakeMailbox{messages: []*gmail.Message{message("m1", "a")}}
	sugg := &fakeSuggester{err: context.Canceled}
	svc, _ := newTestService(mail, sugg, "")

	_, err := svc.Run(context.Background(), Spec{MaxMessages: 10, AutoApply: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunLogsOperationAndStatus(t *testing.T) {
	var logBuf bytes.Buffer
	mail := &fakeMailbox{messages: []*gmail.Message{message("m1", "Newsletter")}}
	sugg := &fakeSuggester{decisions: map[string]suggest.Decision{"Newsletter": suggest.DecisionArchive}}
	svc := NewService(mail, sugg, slog.New(slog.NewTextHandler(&logBuf, nil)))
	svc.In = strings.NewReader("")
	svc.Out = &bytes.Buffer{}
	svc.RetryInterval = time.Millisecond

	_, err := svc.Run(context.Background(), Spec{MaxMessages: 10, AutoApply: true})
	require.NoError(t, err)

	out := logBuf.String()
	assert.Contains(t, out, "operation=archive")
	assert.Contains(t, out, "status="+logging.StatusSuccess)
}

func TestRunLogsInferenceFailureStatus(t *testing.T) {
	var logBuf bytes.Buffer
	mail := &fakeMailbox{messages: []*gmail.Message{message("m1", "Newsletter")}}
	sugg := &fakeSuggester{err: &suggest.InferenceError{Err: errors.New("connection refused")}}
	svc := NewService(mail, sugg, slog.New(slog.NewTextHandler(&logBuf, nil)))
	svc.In = strings.NewReader("")
	svc.Out = &bytes.Buffer{}
	svc.RetryInterval = time.Millisecond

	_, err := svc.Run(context.Background(), Spec{MaxMessages: 10, AutoApply: true})
	require.NoError(t, err)

	out := logBuf.String()
	assert.Contains(t, out, "operation=suggest")
	assert.Contains(t, out, "status="+logging.StatusError)
}

func TestReportSummary(t *testing.T) {
	report := Report{Scanned: 5, Archived: 2, Kept: 2, Fallbacks: 1}
	var buf bytes.Buffer
	require.NoError(t, report.WriteSummary(&buf))

	out := buf.String()
	assert.Contains(t, out, "scanned")
	assert.Contains(t, out, "archived")
	assert.Contains(t, out, "inference fallbacks")
	assert.NotContains(t, out, "would archive", "dry-run line omitted when zero")
}
