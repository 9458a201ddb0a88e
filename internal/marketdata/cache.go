package marketdata

import (
	"fmt"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/feanalyst/fe-analyst/internal/domain"
)

// SnapshotCache holds msgpack-encoded snapshots with a TTL so repeated
// analyses within one scan do not rebuild context from the databases.
// Storing encoded bytes keeps cached snapshots immutable: every Get
// decodes a fresh copy, so no caller can mutate shared state.
type SnapshotCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewSnapshotCache creates a snapshot cache with the given TTL
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Put encodes and stores a snapshot
func (c *SnapshotCache) Put(snap *domain.Snapshot) error {
	payload, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for %s: %w", snap.Ticker, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[snap.Ticker] = cacheEntry{
		payload:   payload,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

// Get decodes a cached snapshot, or returns false when absent or expired
func (c *SnapshotCache) Get(ticker string) (*domain.Snapshot, bool) {
	c.mu.RLock()
	entry, ok := c.entries[ticker]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}

	var snap domain.Snapshot
	if err := msgpack.Unmarshal(entry.payload, &snap); err != nil {
		return nil, false
	}
	return &snap, true
}

// Clear drops all cached snapshots
func (c *SnapshotCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
