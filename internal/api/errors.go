package api

import (
	"errors"
	"fmt"
	"time"
)

// Errors reported by the remote source adapter. ErrRemoteNotFound is the
// remote's authoritative "does not exist"; ErrRemoteUnavailable covers
// transport-level failures that may succeed on retry.
var (
	ErrRemoteNotFound    = errors.New("not found on remote")
	ErrUnauthorized      = errors.New("remote rejected credentials")
	ErrRemoteUnavailable = errors.New("remote unavailable")
)

// RateLimitError reports an exhausted API quota. It is retryable once the
// reset time passes; the adapter never waits or retries on its own.
type RateLimitError struct {
	ResetTime time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited until %s", e.ResetTime.Format(time.RFC3339))
}
