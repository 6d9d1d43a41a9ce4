package ai

import (
	"container/list"
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

const defaultCacheCapacity = 100

// CachingCompleter memoizes completions for identical calls with a
// least-recently-used bound on memory. The cache key is derived from
// the call arguments only; credentials live inside the wrapped client
// and never reach the key.
type CachingCompleter struct {
	inner    Completer
	capacity int
	logger   *zap.Logger

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is most recently used
	hits    int
	misses  int
}

type cacheEntry struct {
	key     string
	payload string
}

// NewCachingCompleter wraps the inner completer with an LRU response
// cache of the given capacity.
func NewCachingCompleter(inner Completer, capacity int, logger *zap.Logger) *CachingCompleter {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingCompleter{
		inner:    inner,
		capacity: capacity,
		logger:   logger,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Complete returns the cached payload for a previously seen call
// without touching the inner completer, otherwise it forwards the call
// and stores the result.
func (c *CachingCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	key := cacheKey(systemPrompt, userPrompt, opts)

	if payload, ok := c.lookup(key); ok {
		c.logger.Debug("completion cache hit", zap.String("key", key[:12]))
		return payload, nil
	}

	payload, err := c.inner.Complete(ctx, systemPrompt, userPrompt, opts)
	if err != nil {
		return "", err
	}

	c.store(key, payload)
	return payload, nil
}

// Stats returns the hit and miss counters accumulated so far.
func (c *CachingCompleter) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *CachingCompleter) lookup(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.entries[key]
	if !ok {
		c.misses++
		return "", false
	}

	c.hits++
	c.order.MoveToFront(element)
	return element.Value.(*cacheEntry).payload, true
}

func (c *CachingCompleter) store(key, payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.entries[key]; ok {
		element.Value.(*cacheEntry).payload = payload
		c.order.MoveToFront(element)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, payload: payload})

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func cacheKey(systemPrompt, userPrompt string, opts Options) string {
	h := sha256.New()
	h.Write([]byte(systemPrompt))
	h.Write([]byte{0})
	h.Write([]byte(userPrompt))
	h.Write([]byte{0})
	if opts.JSONMode {
		h.Write([]byte{1})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
