// Package cache holds the latest metrics snapshot per host in memory.
// It is the single low-latency read path for the dashboard: reads are O(1)
// map lookups and never touch the network, unlike the durable status store.
//
// Both the push path and the probe path write here. Writes are full-record
// replacements under a last-write-wins discipline; when the two paths race
// for the same host, whichever commits last wins, and the next write from
// either path self-corrects. That eventual consistency is accepted because
// both paths carry the same "current snapshot" semantics.
package cache

import (
	"sync"
	"time"

	"github.com/fleetwatch/fleetwatch/internal/metrics"
)

// Source identifies which data path produced an observation.
type Source string

const (
	SourcePush  Source = "push"
	SourceProbe Source = "probe"
)

// Entry is the cached state for one host.
type Entry struct {
	HostID   string           `json:"host_id"`
	Metrics  metrics.Snapshot `json:"metrics"`
	CachedAt time.Time        `json:"cached_at"`
	Source   Source           `json:"source"`
}

// Cache maps hostID to its latest snapshot. Entries are never evicted;
// freshness is a read-time computation over CachedAt, so a host that stops
// reporting simply grows stale rather than disappearing.
type Cache struct {
	staleAfter time.Duration

	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty cache. staleAfter bounds how old the latest push
// observation may be before the host is considered offline.
func New(staleAfter time.Duration) *Cache {
	return &Cache{
		staleAfter: staleAfter,
		entries:    make(map[string]Entry),
	}
}

// Set unconditionally replaces the entry for a host. The entry and its
// timestamp are committed together under one lock, so readers never see
// metrics without a coherent CachedAt.
func (c *Cache) Set(hostID string, snap metrics.Snapshot, at time.Time, source Source) {
	c.mu.Lock()
	c.entries[hostID] = Entry{
		HostID:   hostID,
		Metrics:  snap,
		CachedAt: at,
		Source:   source,
	}
	c.mu.Unlock()
}

// Get returns the latest entry for a host, if any.
func (c *Cache) Get(hostID string) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[hostID]
	c.mu.RUnlock()
	return e, ok
}

// LastSeen returns when the host last reported and through which path.
func (c *Cache) LastSeen(hostID string) (time.Time, Source, bool) {
	c.mu.RLock()
	e, ok := c.entries[hostID]
	c.mu.RUnlock()
	if !ok {
		return time.Time{}, "", false
	}
	return e.CachedAt, e.Source, true
}

// Online reports push-path liveness at the given instant: the host is
// online iff its latest observation is younger than the stale threshold.
// Liveness is recomputed on every read instead of stored as a flag, so a
// crashed agent cannot leave a dangling "online" behind.
func (c *Cache) Online(hostID string, now time.Time) bool {
	c.mu.RLock()
	e, ok := c.entries[hostID]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	return now.Sub(e.CachedAt) < c.staleAfter
}

// Len returns the number of cached hosts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
