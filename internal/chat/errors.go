package chat

import (
	"errors"
	"fmt"
	"time"
)

// Gateway errors. Handlers map them to HTTP statuses.
var (
	ErrRateLimitExceeded   = errors.New("rate limit exceeded")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// LimitError is returned when a client has used up its window. It matches
// ErrRateLimitExceeded.
type LimitError struct {
	Limit      int
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: %d per window, retry in %s", ErrRateLimitExceeded, e.Limit, e.RetryAfter.Round(time.Second))
}

func (e *LimitError) Unwrap() error { return ErrRateLimitExceeded }

// User-facing messages for each error.
const (
	MsgRateLimited = "Too many requests. Please try again later."
	MsgInvalid     = "Query is required"
	MsgUpstream    = "Sorry, I'm having trouble answering right now. Please try again shortly."
)
