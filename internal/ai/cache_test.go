package ai

import (
	"context"
	"fmt"
	"testing"
)

type countingCompleter struct {
	calls int
}

func (c *countingCompleter) Complete(_ context.Context, _, userPrompt string, _ Options) (string, error) {
	c.calls++
	return fmt.Sprintf("reply-%s-%d", userPrompt, c.calls), nil
}

func TestCachingCompleterReturnsCachedPayload(t *testing.T) {
	t.Parallel()

	inner := &countingCompleter{}
	cached := NewCachingCompleter(inner, 10, nil)
	ctx := context.Background()

	first, err := cached.Complete(ctx, "sys", "hello", Options{JSONMode: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := cached.Complete(ctx, "sys", "hello", Options{JSONMode: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Fatalf("expected cached payload, got %q and %q", first, second)
	}
	if inner.calls != 1 {
		t.Fatalf("expected a single inner call, got %d", inner.calls)
	}

	hits, misses := cached.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("expected 1 hit / 1 miss, got %d / %d", hits, misses)
	}
}

func TestCachingCompleterKeyIncludesAllArguments(t *testing.T) {
	t.Parallel()

	inner := &countingCompleter{}
	cached := NewCachingCompleter(inner, 10, nil)
	ctx := context.Background()

	calls := []struct {
		system string
		user   string
		opts   Options
	}{
		{system: "sys", user: "hello", opts: Options{JSONMode: true}},
		{system: "sys", user: "hello", opts: Options{JSONMode: false}},
		{system: "other", user: "hello", opts: Options{JSONMode: true}},
		{system: "sys", user: "world", opts: Options{JSONMode: true}},
	}

	for _, call := range calls {
		if _, err := cached.Complete(ctx, call.system, call.user, call.opts); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if inner.calls != len(calls) {
		t.Fatalf("expected %d distinct inner calls, got %d", len(calls), inner.calls)
	}
}

func TestCachingCompleterEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	inner := &countingCompleter{}
	cached := NewCachingCompleter(inner, 2, nil)
	ctx := context.Background()

	mustComplete := func(user string) {
		t.Helper()
		if _, err := cached.Complete(ctx, "", user, Options{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	mustComplete("a")
	mustComplete("b")
	// Touch "a" so "b" becomes the eviction candidate.
	mustComplete("a")
	mustComplete("c")

	if inner.calls != 3 {
		t.Fatalf("expected 3 inner calls before re-querying, got %d", inner.calls)
	}

	// "a" survived the eviction of "b".
	mustComplete("a")
	if inner.calls != 3 {
		t.Fatalf("expected recently used entry to stay cached, got %d calls", inner.calls)
	}

	// "b" was evicted; asking again reaches the inner completer.
	mustComplete("b")
	if inner.calls != 4 {
		t.Fatalf("expected eviction of least recently used entry, got %d calls", inner.calls)
	}
}
