package coalesce

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetOrFetchCachesOnSuccess(t *testing.T) {
	c := New[string]("test", 10, time.Minute)
	var calls atomic.Int32

	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "value", nil
	}

	v, err := c.GetOrFetch(context.Background(), "k", fetch)
	if err != nil || v != "value" {
		t.Fatalf("got %q, %v", v, err)
	}

	v2, err := c.GetOrFetch(context.Background(), "k", fetch)
	if err != nil || v2 != "value" {
		t.Fatalf("second call: got %q, %v", v2, err)
	}
	if calls.Load() != 1 {
		t.Fatalf("fetch called %d times, want 1", calls.Load())
	}
	if c.Stats().Hits() != 1 {
		t.Fatalf("hits = %d, want 1", c.Stats().Hits())
	}
}

func TestGetOrFetchDoesNotCacheError(t *testing.T) {
	c := New[string]("test", 10, time.Minute)
	var calls atomic.Int32
	boom := errors.New("boom")

	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "", boom
	}

	_, err := c.GetOrFetch(context.Background(), "k", fetch)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	_, err = c.GetOrFetch(context.Background(), "k", fetch)
	if !errors.Is(err, boom) {
		t.Fatalf("second err = %v, want boom", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("fetch called %d times, want 2 (no caching of errors)", calls.Load())
	}
}

func TestGetOrFetchCoalescesConcurrentCallers(t *testing.T) {
	c := New[int]("test", 10, time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	fetch := func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	const n = 20
	results := make([]int, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrFetch(context.Background(), "shared", fetch)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
			}
			results[i] = v
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("fetch called %d times, want exactly 1", calls.Load())
	}
	for i, v := range results {
		if v != 42 {
			t.Errorf("caller %d got %d, want 42", i, v)
		}
	}
}

func TestGetOrFetchContextCancellation(t *testing.T) {
	c := New[int]("test", 10, time.Minute)
	release := make(chan struct{})
	defer close(release)

	fetch := func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	}

	go func() {
		_, _ = c.GetOrFetch(context.Background(), "k", fetch)
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := c.GetOrFetch(ctx, "k", fetch)
	if err == nil {
		t.Fatal("expected context deadline error")
	}
}

func TestInvalidate(t *testing.T) {
	c := New[string]("test", 10, time.Minute)
	c.Insert("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit after insert")
	}
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after invalidate")
	}
}

func TestHitRate(t *testing.T) {
	c := New[string]("test", 10, time.Minute)
	c.Insert("k", "v")
	c.Get("k")
	c.Get("missing")
	if rate := c.Stats().HitRate(); rate != 50 {
		t.Fatalf("hit rate = %v, want 50", rate)
	}
}
