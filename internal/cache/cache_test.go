package cache

import (
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	c := NewMemory()

	if _, ok := c.Get("pmid:1"); ok {
		t.Error("Get() on empty cache reported a hit")
	}

	c.Set("pmid:1", Entry{Title: "A paper", Year: 2020}, time.Minute)
	e, ok := c.Get("pmid:1")
	if !ok {
		t.Fatal("Get() after Set() reported a miss")
	}
	if e.Title != "A paper" || e.Year != 2020 {
		t.Errorf("Get() = %+v, want title %q year 2020", e, "A paper")
	}
}

func TestMemoryExpiry(t *testing.T) {
	c := NewMemory()
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Set("doi:10.1/x", Entry{Title: "Old"}, time.Minute)

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok := c.Get("doi:10.1/x"); ok {
		t.Error("Get() returned an expired entry")
	}

	if removed := c.Purge(); removed != 1 {
		t.Errorf("Purge() = %d, want 1", removed)
	}
}

func TestMemoryOverwrite(t *testing.T) {
	c := NewMemory()
	c.Set("k", Entry{Title: "first"}, time.Minute)
	c.Set("k", Entry{Title: "second"}, time.Minute)
	e, _ := c.Get("k")
	if e.Title != "second" {
		t.Errorf("Get() after overwrite = %q, want %q", e.Title, "second")
	}
}
