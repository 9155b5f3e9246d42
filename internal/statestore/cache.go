// Package statestore keeps per-user agent state across turns: an
// in-process cache in front of a durable SQLite store, plus the recent
// write-operation log.
package statestore

import (
	"sync"
	"time"

	"github.com/user/creatordesk/internal/types"
)

// Freshness windows. Complete collections stay useful longer than
// partial fetches; the operation log outlives both.
const (
	DefaultWindow    = 10 * time.Minute
	CompleteWindow   = 60 * time.Minute
	OperationsWindow = 24 * time.Hour

	maxOperationLog = 20
)

// CacheEntry is one immutable cached state. Freshness is derived from
// the clock at read time, never stored.
type CacheEntry struct {
	State        *types.PreviousState
	QueryContext string
	StoredAt     time.Time
	Window       time.Duration
}

// FreshAt reports whether the entry is still inside its window.
func (e CacheEntry) FreshAt(now time.Time) bool {
	return now.Sub(e.StoredAt) < e.Window
}

// MemoryCache is the in-process layer. Entries are replaced wholesale;
// the operation log is the only thing that accumulates.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[types.StateKey]CacheEntry
	ops     []types.OperationResult

	now func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[types.StateKey]CacheEntry),
		now:     time.Now,
	}
}

// Get returns the entry for key, fresh or stale, and whether it exists.
func (c *MemoryCache) Get(key types.StateKey) (CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Put stores a new entry for key, replacing any previous one.
func (c *MemoryCache) Put(key types.StateKey, state *types.PreviousState, queryContext string, complete bool) {
	window := DefaultWindow
	if complete {
		window = CompleteWindow
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = CacheEntry{
		State:        state,
		QueryContext: queryContext,
		StoredAt:     c.now(),
		Window:       window,
	}
}

// AppendOperations records write outcomes, newest first, capped at
// maxOperationLog entries.
func (c *MemoryCache) AppendOperations(results ...types.OperationResult) {
	if len(results) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	prepended := make([]types.OperationResult, 0, len(results)+len(c.ops))
	for i := len(results) - 1; i >= 0; i-- {
		prepended = append(prepended, results[i])
	}
	prepended = append(prepended, c.ops...)
	if len(prepended) > maxOperationLog {
		prepended = prepended[:maxOperationLog]
	}
	c.ops = prepended
}

// RecentOperations returns the logged operations still inside the
// operations window, newest first.
func (c *MemoryCache) RecentOperations() []types.OperationResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cutoff := c.now().Add(-OperationsWindow)
	var recent []types.OperationResult
	for _, op := range c.ops {
		if op.Timestamp.After(cutoff) {
			recent = append(recent, op)
		}
	}
	return recent
}

// Flush drops all cached state and the operation log.
func (c *MemoryCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[types.StateKey]CacheEntry)
	c.ops = nil
}
