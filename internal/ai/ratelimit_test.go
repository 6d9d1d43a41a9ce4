package ai

import (
	"context"
	"testing"
	"time"
)

type recordingCompleter struct {
	calls int
}

func (r *recordingCompleter) Complete(context.Context, string, string, Options) (string, error) {
	r.calls++
	return "ok", nil
}

func TestRateLimitedCompleterWaitsBetweenCalls(t *testing.T) {
	var slept []time.Duration
	originalSleep := sleep
	sleep = func(d time.Duration) { slept = append(slept, d) }
	defer func() { sleep = originalSleep }()

	now := time.Unix(0, 0)
	inner := &recordingCompleter{}
	limited := NewRateLimitedCompleter(inner, time.Second)
	limited.now = func() time.Time { return now }

	ctx := context.Background()

	// First call goes straight through.
	if _, err := limited.Complete(ctx, "", "one", Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slept) != 0 {
		t.Fatalf("first call should not wait, slept %v", slept)
	}

	// An immediate second call waits out the full interval.
	if _, err := limited.Complete(ctx, "", "two", Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected a 1s wait, slept %v", slept)
	}

	// After part of the interval elapsed only the remainder is waited.
	now = now.Add(600 * time.Millisecond)
	if _, err := limited.Complete(ctx, "", "three", Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slept) != 2 || slept[1] != 400*time.Millisecond {
		t.Fatalf("expected a 400ms wait, slept %v", slept)
	}

	if inner.calls != 3 {
		t.Fatalf("expected 3 inner calls, got %d", inner.calls)
	}
}

func TestRateLimitedCompleterZeroIntervalDisablesWait(t *testing.T) {
	var waited bool
	originalSleep := sleep
	sleep = func(time.Duration) { waited = true }
	defer func() { sleep = originalSleep }()

	inner := &recordingCompleter{}
	limited := NewRateLimitedCompleter(inner, 0)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := limited.Complete(ctx, "", "x", Options{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if waited {
		t.Fatalf("zero interval must not wait")
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 inner calls, got %d", inner.calls)
	}
}

func TestRateLimitedCompleterAbortsOnCancelledContext(t *testing.T) {
	originalSleep := sleep
	sleep = func(d time.Duration) { time.Sleep(50 * time.Millisecond) }
	defer func() { sleep = originalSleep }()

	inner := &recordingCompleter{}
	limited := NewRateLimitedCompleter(inner, time.Minute)

	ctx := context.Background()
	if _, err := limited.Complete(ctx, "", "one", Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	if _, err := limited.Complete(cancelled, "", "two", Options{}); err == nil {
		t.Fatalf("expected context error while waiting")
	}
	if inner.calls != 1 {
		t.Fatalf("cancelled call must not reach the inner completer, got %d calls", inner.calls)
	}
}
