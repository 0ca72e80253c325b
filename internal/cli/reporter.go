package cli

import (
	"fmt"
	"os"
	"sync/atomic"
)

// Reporter prints command outcomes to stderr and tracks whether the
// current operation was cancelled via a signal. GhostVault's
// operations are single-shot (one upload, one backup), so unlike a
// byte-throughput progress bar this only ever reports start/end state.
type Reporter struct {
	quiet     bool
	cancelled atomic.Bool
}

// NewReporter creates a new CLI reporter. If quiet is true, only
// errors are printed.
func NewReporter(quiet bool) *Reporter {
	return &Reporter{quiet: quiet}
}

// IsCancelled checks if the operation was cancelled.
func (r *Reporter) IsCancelled() bool {
	return r.cancelled.Load()
}

// Cancel marks the operation as cancelled.
func (r *Reporter) Cancel() {
	r.cancelled.Store(true)
}

// PrintError prints an error message.
func (r *Reporter) PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// PrintSuccess prints a success message.
func (r *Reporter) PrintSuccess(format string, args ...any) {
	if r.quiet {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// globalReporter lets the signal handler installed by Execute cancel
// whatever operation is in flight.
var globalReporter = NewReporter(false)
