package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"tunedrop/internal/core"
)

type countingCatalog struct {
	mu      sync.Mutex
	calls   map[string]int
	err     error
	release chan struct{}
}

func newCountingCatalog() *countingCatalog {
	return &countingCatalog{calls: make(map[string]int)}
}

func (c *countingCatalog) SearchCatalog(_ context.Context, query string) ([]core.Track, error) {
	c.mu.Lock()
	c.calls[query]++
	release := c.release
	err := c.err
	c.mu.Unlock()

	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	return []core.Track{{
		ID:      "id-" + query,
		Name:    query,
		Artists: []core.Artist{{Name: "Artist"}},
		Album:   core.Album{Images: []core.Image{{URL: "https://img/" + query}}},
	}}, nil
}

func (c *countingCatalog) callCount(query string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[query]
}

func TestCachedCatalog_CachesByNormalizedQuery(t *testing.T) {
	upstream := newCountingCatalog()
	cache := NewCachedCatalog(upstream, 10, time.Minute, zap.NewNop())

	first, err := cache.SearchCatalog(context.Background(), "Daft Punk")
	if err != nil {
		t.Fatalf("SearchCatalog() error = %v", err)
	}
	second, err := cache.SearchCatalog(context.Background(), "  daft punk ")
	if err != nil {
		t.Fatalf("SearchCatalog() error = %v", err)
	}

	if upstream.callCount("Daft Punk") != 1 || upstream.callCount("  daft punk ") != 0 {
		t.Errorf("expected a single upstream call, got %v", upstream.calls)
	}
	if len(first) != 1 || len(second) != 1 || first[0].ID != second[0].ID {
		t.Errorf("cached results differ: %v vs %v", first, second)
	}

	// Callers get their own slice.
	second[0].Name = "mutated"
	third, _ := cache.SearchCatalog(context.Background(), "daft punk")
	if third[0].Name == "mutated" {
		t.Error("cache returned a shared slice")
	}
}

func TestCachedCatalog_DoesNotCacheErrors(t *testing.T) {
	upstream := newCountingCatalog()
	upstream.err = errors.New("boom")
	cache := NewCachedCatalog(upstream, 10, time.Minute, zap.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := cache.SearchCatalog(context.Background(), "q"); err == nil {
			t.Fatal("expected error")
		}
	}

	if got := upstream.callCount("q"); got != 2 {
		t.Errorf("upstream calls = %d, want 2", got)
	}
	if cache.cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.cache.Len())
	}
}

func TestCachedCatalog_Expiry(t *testing.T) {
	upstream := newCountingCatalog()
	cache := NewCachedCatalog(upstream, 10, 20*time.Millisecond, zap.NewNop())

	_, _ = cache.SearchCatalog(context.Background(), "q")
	time.Sleep(60 * time.Millisecond)
	_, _ = cache.SearchCatalog(context.Background(), "q")

	if got := upstream.callCount("q"); got != 2 {
		t.Errorf("upstream calls = %d, want 2 after expiry", got)
	}
}

func TestCachedCatalog_CallerCancellation(t *testing.T) {
	upstream := newCountingCatalog()
	upstream.release = make(chan struct{})
	cache := NewCachedCatalog(upstream, 10, time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := cache.SearchCatalog(ctx, "slow")
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("SearchCatalog did not return after cancellation")
	}

	close(upstream.release)

	// The shared upstream call still completes and fills the cache.
	deadline := time.Now().Add(time.Second)
	for cache.cache.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if cache.cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.cache.Len())
	}
}

func TestCachedCatalog_LinksKeepCase(t *testing.T) {
	upstream := newCountingCatalog()
	cache := NewCachedCatalog(upstream, 10, time.Minute, zap.NewNop())

	queries := []string{
		"spotify:track:4uLU6hMCjMI75M1A2tKUQC",
		"spotify:track:4ulu6hmcjmi75m1a2tkuqc",
		"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
		"https://open.spotify.com/track/4ULU6HMCJMI75M1A2TKUQC",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://youtu.be/DQW4W9WGXCQ",
	}
	for _, query := range queries {
		tracks, err := cache.SearchCatalog(context.Background(), query)
		if err != nil {
			t.Fatalf("SearchCatalog(%q) error = %v", query, err)
		}
		if len(tracks) != 1 || tracks[0].ID != "id-"+query {
			t.Errorf("SearchCatalog(%q) = %+v, want the result for that exact link", query, tracks)
		}
	}
	for _, query := range queries {
		if got := upstream.callCount(query); got != 1 {
			t.Errorf("upstream calls for %q = %d, want 1", query, got)
		}
	}
}

func TestCachedCatalog_ResultsAreDeepCopies(t *testing.T) {
	upstream := newCountingCatalog()
	cache := NewCachedCatalog(upstream, 10, time.Minute, zap.NewNop())

	first, err := cache.SearchCatalog(context.Background(), "q")
	if err != nil {
		t.Fatalf("SearchCatalog() error = %v", err)
	}
	first[0].Artists[0].Name = "mutated"
	first[0].Album.Images[0].URL = "mutated"

	second, _ := cache.SearchCatalog(context.Background(), "q")
	if second[0].Artists[0].Name != "Artist" {
		t.Errorf("artists shared with the cache: %+v", second[0].Artists)
	}
	if second[0].Album.Images[0].URL != "https://img/q" {
		t.Errorf("images shared with the cache: %+v", second[0].Album.Images)
	}
}
