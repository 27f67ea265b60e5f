package graph

import (
	"sync"
	"testing"
	"time"
)

func TestResultCacheMemoizes(t *testing.T) {
	rc := NewResultCache(time.Minute)

	builds := 0
	build := func() (*Result, error) {
		builds++
		return &Result{CurrentDepth: 1}, nil
	}

	for i := 0; i < 3; i++ {
		r, err := rc.do("k", build)
		if err != nil {
			t.Fatalf("do() error = %v", err)
		}
		if r.CurrentDepth != 1 {
			t.Errorf("result depth = %d, want 1", r.CurrentDepth)
		}
	}
	if builds != 1 {
		t.Errorf("builds = %d, want 1", builds)
	}
}

func TestResultCacheExpiry(t *testing.T) {
	rc := NewResultCache(time.Minute)
	base := time.Now()
	rc.now = func() time.Time { return base }

	builds := 0
	build := func() (*Result, error) {
		builds++
		return &Result{}, nil
	}

	rc.do("k", build)
	rc.now = func() time.Time { return base.Add(2 * time.Minute) }
	rc.do("k", build)

	if builds != 2 {
		t.Errorf("builds = %d, want 2 (expired entry rebuilt)", builds)
	}
}

func TestResultCacheSharesInFlightBuild(t *testing.T) {
	rc := NewResultCache(time.Minute)

	var mu sync.Mutex
	builds := 0
	gate := make(chan struct{})
	build := func() (*Result, error) {
		mu.Lock()
		builds++
		mu.Unlock()
		<-gate
		return &Result{}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := rc.do("k", build); err != nil {
				t.Errorf("do() error = %v", err)
			}
		}()
	}

	// Let the goroutines pile onto the in-flight entry, then release it.
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if builds != 1 {
		t.Errorf("builds = %d, want 1 shared build", builds)
	}
}

func TestResultCacheDoesNotCacheErrors(t *testing.T) {
	rc := NewResultCache(time.Minute)

	builds := 0
	rc.do("k", func() (*Result, error) {
		builds++
		return nil, ErrEmptyProject
	})
	rc.do("k", func() (*Result, error) {
		builds++
		return &Result{}, nil
	})

	if builds != 2 {
		t.Errorf("builds = %d, want 2 (errors retried)", builds)
	}
}
