package catalog

import (
	"fmt"
	"time"
)

// TimeoutError is returned once every transport attempt has timed out.
type TimeoutError struct {
	Attempts int
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	msg := "flow search request timed out"
	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	if e.Timeout > 0 {
		msg = fmt.Sprintf("%s (timeout=%s)", msg, e.Timeout)
	}
	return msg
}

// UnavailableError is returned when the catalog keeps answering with a
// server-side failure, rejects the payload as too large, or cannot be
// reached at all. StatusCode is zero for connection-level failures.
type UnavailableError struct {
	StatusCode int
	Attempts   int
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("flow search unavailable: status %d after %d attempts", e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("flow search unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// contentSized reports whether the status suggests the request body itself
// was the problem rather than a genuine outage.
func (e *UnavailableError) contentSized() bool {
	return e.StatusCode == 413 || e.StatusCode >= 500
}
