// Package cache provides an expiring key/value cache for minimal article
// metadata keyed by external identifier. The in-memory implementation backs
// a single process; the storage package provides a SQLite-backed
// implementation shared across runs.
package cache

import (
	"sync"
	"time"
)

// Entry is the minimal metadata cached per external identifier.
type Entry struct {
	Title   string   `json:"title,omitempty"`
	Authors []string `json:"authors,omitempty"`
	Year    int      `json:"year,omitempty"`
	Journal string   `json:"journal,omitempty"`
	DOI     string   `json:"doi,omitempty"`

	// CitedByCount feeds the graph builder's citation-count sort.
	CitedByCount int `json:"cited_by_count,omitempty"`
}

// Cache is the expiring cache contract. Get reports a miss for absent or
// expired keys; Set overwrites any existing entry.
type Cache interface {
	Get(key string) (Entry, bool)
	Set(key string, e Entry, ttl time.Duration)
}

// Memory is an in-memory Cache safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   Entry
	expires time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the entry for key if present and unexpired.
func (m *Memory) Get(key string) (Entry, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || m.now().After(e.expires) {
		return Entry{}, false
	}
	return e.value, true
}

// Set stores an entry that expires after ttl.
func (m *Memory) Set(key string, e Entry, ttl time.Duration) {
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: e, expires: m.now().Add(ttl)}
	m.mu.Unlock()
}

// Purge drops every expired entry. Callers may invoke it periodically; Get
// already treats expired entries as misses.
func (m *Memory) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for k, e := range m.entries {
		if now.After(e.expires) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}
