package storage

import (
	"testing"
	"time"

	"github.com/matsen/citegraph/internal/cache"
)

func TestSharedCacheGetSet(t *testing.T) {
	db := openTestDB(t)
	c := db.Cache()

	if _, ok := c.Get("pmid:1"); ok {
		t.Error("Get() on empty cache reported a hit")
	}

	c.Set("pmid:1", cache.Entry{Title: "Cached paper", Year: 2019, CitedByCount: 40}, time.Minute)
	e, ok := c.Get("pmid:1")
	if !ok {
		t.Fatal("Get() after Set() reported a miss")
	}
	if e.Title != "Cached paper" || e.CitedByCount != 40 {
		t.Errorf("Get() = %+v", e)
	}
}

func TestSharedCacheExpiry(t *testing.T) {
	db := openTestDB(t)
	c := db.Cache()
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Set("doi:10.1/x", cache.Entry{Title: "Old"}, time.Minute)

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok := c.Get("doi:10.1/x"); ok {
		t.Error("Get() returned an expired entry")
	}

	removed, err := c.PurgeExpired()
	if err != nil {
		t.Fatalf("PurgeExpired() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("PurgeExpired() = %d, want 1", removed)
	}
}
