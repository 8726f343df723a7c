package flowpipe

import "fmt"

// Sentinel errors for the conditions spec §7 calls Closed, SourceClosed and
// IllegalState. Timeout and Interrupted are distinct types below so callers
// can tell a deadline expiry from a cancelled wait, per spec §4.5 and §9.
var (
	// ErrClosed is returned by an operation invoked on an endpoint whose
	// own closed flag is already set.
	ErrClosed = fmt.Errorf("flowpipe: endpoint closed")

	// ErrSourceClosed is returned to a writer when the source has gone
	// away and the write or flush cannot succeed.
	ErrSourceClosed = fmt.Errorf("flowpipe: source closed")

	// ErrIllegalState is returned by Pipe.Fold when its preconditions
	// (empty buffer, open sink, open source, no existing fold) are
	// violated.
	ErrIllegalState = fmt.Errorf("flowpipe: illegal fold state")
)

// TimeoutError is returned when a blocking Write or Read exceeds its
// endpoint's deadline. It implements the informal net.Error shape
// (Timeout/Temporary) used throughout the corpus so callers written
// against that convention keep working unmodified.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("flowpipe: %s: deadline exceeded", e.Op)
}

// Timeout reports that this error was caused by a deadline expiry.
func (e *TimeoutError) Timeout() bool { return true }

// Temporary reports that the operation may succeed if retried.
func (e *TimeoutError) Temporary() bool { return true }

// InterruptedError is returned when a blocking Write or Read is cancelled
// through the caller's context.Context rather than by its deadline
// elapsing. It is kept distinct from TimeoutError so the two dispositions
// spec §4.5 requires stay distinguishable.
type InterruptedError struct {
	Op  string
	Err error
}

func (e *InterruptedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flowpipe: %s: interrupted: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("flowpipe: %s: interrupted", e.Op)
}

func (e *InterruptedError) Unwrap() error { return e.Err }
