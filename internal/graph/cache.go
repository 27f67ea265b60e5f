package graph

import (
	"sync"
	"time"
)

// DefaultResultTTL is how long a built graph stays served from cache.
const DefaultResultTTL = 10 * time.Minute

// ResultCache memoizes graph builds by parameter key. Concurrent requests
// for the same key share one in-flight build instead of rebuilding.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]*resultEntry
	ttl     time.Duration
	now     func() time.Time
}

type resultEntry struct {
	ready   chan struct{}
	result  *Result
	err     error
	expires time.Time
}

// NewResultCache creates a result cache with the given TTL (DefaultResultTTL
// when ttl <= 0).
func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultCache{
		entries: make(map[string]*resultEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// do returns the cached result for key, joins an in-flight build, or runs
// build and caches its outcome. Build errors are not cached; the next
// request retries.
func (rc *ResultCache) do(key string, build func() (*Result, error)) (*Result, error) {
	rc.mu.Lock()
	if e, ok := rc.entries[key]; ok {
		select {
		case <-e.ready:
			// Completed: serve if fresh and successful.
			if e.err == nil && rc.now().Before(e.expires) {
				rc.mu.Unlock()
				return e.result, nil
			}
		default:
			// In flight: wait for the running build.
			rc.mu.Unlock()
			<-e.ready
			return e.result, e.err
		}
	}

	e := &resultEntry{ready: make(chan struct{})}
	rc.entries[key] = e
	rc.mu.Unlock()

	e.result, e.err = build()
	e.expires = rc.now().Add(rc.ttl)
	close(e.ready)

	if e.err != nil {
		rc.mu.Lock()
		if rc.entries[key] == e {
			delete(rc.entries, key)
		}
		rc.mu.Unlock()
	}
	return e.result, e.err
}
