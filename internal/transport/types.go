// Package transport defines the outbound messaging surface and the error
// taxonomy the dispatcher retries against.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sender delivers one rendered message to the announcement channel.
//
// Implementations return errors from this package's taxonomy so callers
// can tell retryable conditions from permanent ones.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Permanent failures. Retrying cannot fix these; the dispatcher drops the
// message and moves on.
var (
	ErrUnauthorized   = errors.New("transport: unauthorized")
	ErrChatNotFound   = errors.New("transport: chat not found")
	ErrMessageTooLong = errors.New("transport: message too long")
)

// RateLimitedError reports throttling by the backend. RetryAfter is the
// wait the backend asked for (zero when it did not say).
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("transport: rate limited, retry after %s", e.RetryAfter)
	}
	return "transport: rate limited"
}

// PermanentError marks a delivery failure that retrying cannot fix but
// that has no dedicated sentinel (e.g. other 4xx API rejections).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// IsPermanent reports whether err is a delivery failure that no amount of
// retrying can fix. Everything else (rate limits, timeouts, 5xx, network
// errors) counts as transient.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var pe *PermanentError
	if errors.As(err, &pe) {
		return true
	}
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrChatNotFound) ||
		errors.Is(err, ErrMessageTooLong)
}

// RetryAfterHint extracts the backend-requested wait from a rate limit
// error, if any.
func RetryAfterHint(err error) (time.Duration, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}
