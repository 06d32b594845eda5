// Package ratelimit implements fixed-window, per-client request limits.
//
// Each client gets a window that starts on its first request and lasts for
// the configured duration. Requests beyond the limit inside the window are
// rejected without being counted; the first request after the window expires
// starts a fresh one with a count of 1.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Entry is the counter state for one client.
type Entry struct {
	Count         int       `json:"count"`
	WindowResetAt time.Time `json:"windowResetAt"`
}

// Store persists entries. Implementations must be safe for concurrent use;
// a Get/Set pair is not atomic, so two racing requests from one client may
// be counted as one.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry) error
}

// Limiter gates requests for one endpoint.
type Limiter struct {
	name   string
	limit  int
	window time.Duration
	store  Store
	now    func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter allowing limit requests per window. name namespaces
// the keys so several limiters can share a store.
func New(name string, limit int, window time.Duration, store Store, opts ...Option) *Limiter {
	l := &Limiter{
		name:   name,
		limit:  limit,
		window: window,
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the limiter's namespace.
func (l *Limiter) Name() string { return l.name }

// Limit returns the number of requests allowed per window.
func (l *Limiter) Limit() int { return l.limit }

// Window returns the window length.
func (l *Limiter) Window() time.Duration { return l.window }

// IsRateLimited records a request from clientID and reports whether it must
// be rejected.
func (l *Limiter) IsRateLimited(ctx context.Context, clientID string) (bool, error) {
	key := l.name + ":" + clientID
	now := l.now()

	entry, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read rate limit entry: %w", err)
	}

	switch {
	case !ok, now.After(entry.WindowResetAt):
		entry = Entry{Count: 1, WindowResetAt: now.Add(l.window)}
	case entry.Count >= l.limit:
		return true, nil
	default:
		entry.Count++
	}

	if err := l.store.Set(ctx, key, entry); err != nil {
		return false, fmt.Errorf("failed to write rate limit entry: %w", err)
	}
	return false, nil
}

// Peek returns the current entry for clientID without recording a request.
func (l *Limiter) Peek(ctx context.Context, clientID string) (Entry, bool, error) {
	return l.store.Get(ctx, l.name+":"+clientID)
}

// RetryAfter returns how long clientID must wait for its window to reset.
// It falls back to the full window when the entry cannot be read.
func (l *Limiter) RetryAfter(ctx context.Context, clientID string) time.Duration {
	entry, ok, err := l.Peek(ctx, clientID)
	if err != nil || !ok {
		return l.window
	}
	if d := entry.WindowResetAt.Sub(l.now()); d > 0 {
		return d
	}
	return 0
}
