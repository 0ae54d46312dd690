package debias

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// TransientError marks a failure as retryable: network errors, timeouts and
// 5xx responses from the service.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ThrottledError marks a rate-limit response. Retryable on the same backoff
// path as TransientError.
type ThrottledError struct {
	Err error
}

func (e *ThrottledError) Error() string {
	if e == nil || e.Err == nil {
		return "throttled"
	}
	return e.Err.Error()
}

func (e *ThrottledError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PermanentError marks a failure that retrying cannot fix: malformed requests,
// non-429 4xx responses, and responses that fail schema validation.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	if e == nil || e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RetriesExhaustedError is the terminal per-file failure after the retry
// budget ran out. Last holds the failure from the final attempt.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}

// IsRetryable reports whether err may succeed on a later attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var th *ThrottledError
	if errors.As(err, &th) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
