package gmail

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Message is an immutable snapshot of a fetched Gmail message.
type Message struct {
	ID       string
	ThreadID string
	From     string
	Subject  string
	Date     string
	Snippet  string
	Body     string // raw body of the first text/plain or text/html part
}

// TransientError marks a failure worth retrying: network trouble, rate
// limiting, or a server-side error.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient gmail error: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a failure retrying cannot fix: an unknown message
// id, insufficient scope, or a malformed request.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return fmt.Sprintf("permanent gmail error: %v", e.Err) }
func (e *PermanentError) Unwrap() error { return e.Err }

// wrapErr classifies an API failure into the transient/permanent
// taxonomy. Context cancellation passes through untouched.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError {
			return &TransientError{Err: err}
		}
		return &PermanentError{Err: err}
	}
	// Transport-level failures (DNS, connection reset) are retryable.
	return &TransientError{Err: err}
}
