package ai

import (
	"context"
	"sync"
	"time"
)

var sleep = time.Sleep

// RateLimitedCompleter enforces a minimum interval between outbound
// calls to the wrapped completer. Waiting is context-aware: a cancelled
// context aborts the wait instead of blocking the turn loop.
type RateLimitedCompleter struct {
	inner    Completer
	interval time.Duration

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewRateLimitedCompleter wraps the inner completer with a minimum
// interval between calls. A non-positive interval disables the wait.
func NewRateLimitedCompleter(inner Completer, interval time.Duration) *RateLimitedCompleter {
	return &RateLimitedCompleter{
		inner:    inner,
		interval: interval,
		now:      time.Now,
	}
}

// Complete waits out the remainder of the interval since the previous
// call, then forwards to the inner completer.
func (r *RateLimitedCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	if err := r.reserve(ctx); err != nil {
		return "", err
	}
	return r.inner.Complete(ctx, systemPrompt, userPrompt, opts)
}

func (r *RateLimitedCompleter) reserve(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.interval <= 0 {
		r.last = r.now()
		return nil
	}

	if !r.last.IsZero() {
		if remaining := r.interval - r.now().Sub(r.last); remaining > 0 {
			if err := waitFor(ctx, remaining); err != nil {
				return err
			}
		}
	}

	r.last = r.now()
	return nil
}

func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
