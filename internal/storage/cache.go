package storage

import (
	"encoding/json"
	"time"

	"github.com/matsen/citegraph/internal/cache"
)

// SharedCache is a SQLite-backed cache.Cache so enrichment results survive
// across runs and are shared by every project in the repository.
type SharedCache struct {
	db  *DB
	now func() time.Time
}

// Cache returns the expiring article-metadata cache backed by this database.
func (d *DB) Cache() *SharedCache {
	return &SharedCache{db: d, now: time.Now}
}

// Get returns the cached entry for key if present and unexpired.
func (c *SharedCache) Get(key string) (cache.Entry, bool) {
	row := c.db.db.QueryRow(`SELECT value_json, expires_at FROM article_cache WHERE key = ?`, key)

	var valueJSON string
	var expiresAt int64
	if err := row.Scan(&valueJSON, &expiresAt); err != nil {
		// Absent or unreadable rows are misses; the entry will be refetched.
		return cache.Entry{}, false
	}

	if c.now().Unix() > expiresAt {
		return cache.Entry{}, false
	}

	var e cache.Entry
	if err := json.Unmarshal([]byte(valueJSON), &e); err != nil {
		return cache.Entry{}, false
	}
	return e, true
}

// Set stores an entry that expires after ttl.
func (c *SharedCache) Set(key string, e cache.Entry, ttl time.Duration) {
	valueJSON, err := json.Marshal(e)
	if err != nil {
		return
	}
	expiresAt := c.now().Add(ttl).Unix()
	c.db.db.Exec(`
		INSERT INTO article_cache (key, value_json, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value_json = excluded.value_json,
			expires_at = excluded.expires_at`,
		key, string(valueJSON), expiresAt)
}

// PurgeExpired removes expired cache rows and returns the count removed.
func (c *SharedCache) PurgeExpired() (int, error) {
	res, err := c.db.db.Exec(`DELETE FROM article_cache WHERE expires_at < ?`, c.now().Unix())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
