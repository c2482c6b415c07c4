package triage

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/teemow/gmailtriage/internal/gmail"
	"github.com/teemow/gmailtriage/internal/suggest"
)

// Mailbox is the narrow Gmail surface the pipeline needs.
type Mailbox interface {
	ForeachUnread(ctx context.Context, max int64, fn func(*gmail.Message) error) error
	Archive(ctx context.Context, id string) error
}

// Suggester produces an archive/keep suggestion for one message.
type Suggester interface {
	Suggest(ctx context.Context, subject, body string) (suggest.Suggestion, error)
}

// Spec configures a single run.
type Spec struct {
	MaxMessages int64
	DryRun      bool
	AutoApply   bool // archive without per-message confirmation
	BodyLimit   int  // max runes of extracted text sent to inference
}

// Report summarizes what a run did.
type Report struct {
	Scanned      int
	Archived     int
	WouldArchive int // archive decisions observed in dry-run mode
	Kept         int
	Skipped      int // archive attempts abandoned after errors
	Fallbacks    int // inference failures that fell back to keep
}

// Partial reports whether the run completed but degraded for at least
// one message, e.g. the inference API was unreachable.
func (r Report) Partial() bool {
	return r.Fallbacks > 0 || r.Skipped > 0
}

// WriteSummary renders the report as an aligned table.
func (r Report) WriteSummary(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "scanned\t%d\n", r.Scanned)
	fmt.Fprintf(tw, "archived\t%d\n", r.Archived)
	if r.WouldArchive > 0 {
		fmt.Fprintf(tw, "would archive\t%d\n", r.WouldArchive)
	}
	fmt.Fprintf(tw, "kept\t%d\n", r.Kept)
	if r.Skipped > 0 {
		fmt.Fprintf(tw, "skipped\t%d\n", r.Skipped)
	}
	if r.Fallbacks > 0 {
		fmt.Fprintf(tw, "inference fallbacks\t%d\n", r.Fallbacks)
	}
	return tw.Flush()
}
