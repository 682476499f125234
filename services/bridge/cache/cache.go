// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package cache provides the TTL status cache that shields BUTT from
// polling storms.
//
// The cache stores immutable snapshots (status records, liveness
// booleans) under string keys. An entry is readable only while younger
// than its TTL; reading an expired entry counts as a miss and removes
// the entry, so correctness never depends on a background sweeper.
// SweepExpired exists purely to bound memory between reads.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Well-known cache keys used by the control service.
const (
	// KeyDetailedStatus holds the most recent parsed status snapshot.
	KeyDetailedStatus = "detailed_status"

	// KeyButtRunning holds the most recent process liveness result.
	KeyButtRunning = "butt_running"
)

// DefaultTTL is the status cache TTL when none is configured.
const DefaultTTL = 2 * time.Second

// entry is a stored value plus its insertion time and effective TTL.
type entry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

// expired reports whether the entry's TTL has elapsed at now.
func (e entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) >= e.ttl
}

// StatusCache is a mutex-protected TTL cache keyed by string.
//
// # Description
//
// StatusCache owns its entries exclusively: values are stored and
// returned by value (snapshots), never mutated in place. All methods
// are safe for concurrent use from gin's per-request goroutines. The
// lock is held only for the map check-and-write; it is never held
// across an external call.
//
// # Thread Safety
//
// Safe for concurrent use.
type StatusCache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	clock   func() time.Time
}

// New creates a StatusCache with the given default TTL.
//
// # Inputs
//
//   - ttl: Default entry lifetime. Zero or negative falls back to DefaultTTL.
//
// # Outputs
//
//   - *StatusCache: Ready-to-use empty cache.
//
// # Examples
//
//	c := cache.New(2 * time.Second)
//	c.Set(cache.KeyDetailedStatus, record)
func New(ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StatusCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		clock:   time.Now,
	}
}

// NewWithClock creates a StatusCache using a custom time source.
// Tests use this to step time deterministically instead of sleeping.
func NewWithClock(ttl time.Duration, clock func() time.Time) *StatusCache {
	c := New(ttl)
	c.clock = clock
	return c
}

// Get returns the cached value for key if present and unexpired.
//
// # Description
//
// An expired entry is treated as a miss and removed as a side effect
// (lazy eviction). The eviction happens under the same lock as the
// read, so a concurrent Set cannot interleave into a doubly-evicted
// or corrupted state.
//
// # Inputs
//
//   - key: Cache key. Typically KeyDetailedStatus or KeyButtRunning.
//
// # Outputs
//
//   - any: The stored value, nil on miss.
//   - bool: True on an unexpired hit.
func (c *StatusCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		cacheMisses.WithLabelValues(key).Inc()
		return nil, false
	}
	if e.expired(c.clock()) {
		delete(c.entries, key)
		cacheEvictions.WithLabelValues(key).Inc()
		cacheMisses.WithLabelValues(key).Inc()
		return nil, false
	}
	cacheHits.WithLabelValues(key).Inc()
	return e.value, true
}

// Set stores value under key with the cache's default TTL,
// overwriting any prior entry.
func (c *StatusCache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with an explicit TTL.
// Used for key classes that need a lifetime different from the
// cache-wide default.
func (c *StatusCache) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, storedAt: c.clock(), ttl: ttl}
}

// Invalidate removes the entry for key if present; no-op otherwise.
func (c *StatusCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		cacheInvalidations.WithLabelValues(key).Inc()
	}
}

// InvalidateAll clears every entry.
func (c *StatusCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]entry)
	if n > 0 {
		slog.Debug("status cache cleared", "removed", n)
	}
}

// SweepExpired removes all entries whose TTL has elapsed and returns
// the number removed. Safe to call at any time; not required for
// correctness (Get evicts lazily) but bounds memory growth when keys
// stop being read.
func (c *StatusCache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	var removed int
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			cacheEvictions.WithLabelValues(key).Inc()
			removed++
		}
	}
	return removed
}

// Len returns the current number of entries, expired or not.
// Useful for monitoring and tests.
func (c *StatusCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
