// Package kv provides an in-process key value cache with per-entry TTLs
package kv

import (
	"context"
	"sync"
	"time"
)

// Config configures the cache
type Config struct {
	// SweepEvery is the interval of the background sweep that evicts
	// expired entries. Zero means 1 minute
	SweepEvery time.Duration
}

// Cache is a ttl keyed byte store.
// Entries expire at put-time + ttl; Put on an existing key replaces the
// value and restarts its clock. Expired entries are invisible to Get
// immediately and reclaimed by the sweeper eventually
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	done    chan struct{}
	closed  sync.Once

	// now is a seam for tests
	now func() time.Time
}

type entry struct {
	val      []byte
	expireAt time.Time
}

// Open creates a Cache and starts its background sweeper
func Open(cfg Config) *Cache {
	every := cfg.SweepEvery
	if every <= 0 {
		every = time.Minute
	}
	c := &Cache{
		entries: make(map[string]entry),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go c.sweep(every)
	return c
}

// Get returns the value stored under key, or ok=false when the key is
// absent or its ttl has elapsed
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expireAt) {
		return nil, false, nil
	}
	// copy so callers cannot mutate the cached bytes
	out := make([]byte, len(e.val))
	copy(out, e.val)
	return out, true, nil
}

// Put stores val under key for ttl, replacing any previous entry
func (c *Cache) Put(_ context.Context, key string, val []byte, ttl time.Duration) error {
	cp := make([]byte, len(val))
	copy(cp, val)
	c.mu.Lock()
	c.entries[key] = entry{val: cp, expireAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Delete removes key if present
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len reports the number of live entries, counting expired-but-unswept ones out
func (c *Cache) Len() int {
	now := c.now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.entries {
		if !now.After(e.expireAt) {
			n++
		}
	}
	return n
}

// Close stops the sweeper; the cache itself stays readable
func (c *Cache) Close() error {
	c.closed.Do(func() { close(c.done) })
	return nil
}

func (c *Cache) sweep(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			now := c.now()
			c.mu.Lock()
			for k, e := range c.entries {
				if now.After(e.expireAt) {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
