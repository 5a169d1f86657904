package flood

import (
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestThrottle(limit int) (*Throttle, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	th := New(limit)
	th.mutex.Lock()
	th.now = clock.Now
	th.mutex.Unlock()
	return th, clock
}

func TestThrottle_Allow_AllowsNormalUsage(t *testing.T) {
	th, _ := newTestThrottle(3)
	defer th.Stop()

	for i := 0; i < 3; i++ {
		if !th.Allow("alice") {
			t.Errorf("Submission %d should be allowed", i+1)
		}
	}

	if th.Allow("alice") {
		t.Error("4th submission should be blocked")
	}
}

func TestThrottle_Allow_SlidingWindow(t *testing.T) {
	th, clock := newTestThrottle(2)
	defer th.Stop()

	th.Allow("alice")
	clock.Advance(30 * time.Second)
	th.Allow("alice")

	if th.Allow("alice") {
		t.Error("Third submission within the window should be blocked")
	}

	// The first submission leaves the window; the second is still inside.
	clock.Advance(31 * time.Second)
	if !th.Allow("alice") {
		t.Error("Submission after the first left the window should be allowed")
	}
	if th.Allow("alice") {
		t.Error("Window is full again")
	}
}

func TestThrottle_Allow_PerNickname(t *testing.T) {
	th, _ := newTestThrottle(1)
	defer th.Stop()

	tests := []struct {
		nickname string
		want     bool
	}{
		{"alice", true},
		{"bob", true},
		{"Alice", false},
		{" alice ", false},
		{"", true},
		{"   ", false},
		{"bob", false},
	}

	for _, tt := range tests {
		if got := th.Allow(tt.nickname); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.nickname, got, tt.want)
		}
	}
}

func TestThrottle_Disabled(t *testing.T) {
	for _, limit := range []int{0, -1} {
		th := New(limit)
		for i := 0; i < 100; i++ {
			if !th.Allow("alice") {
				t.Fatalf("limit %d: submission %d blocked", limit, i)
			}
		}
		if th.Stats().ActiveContributors != 0 {
			t.Errorf("limit %d: disabled throttle should not track contributors", limit)
		}
		th.Stop()
	}
}

func TestThrottle_Stats(t *testing.T) {
	th, _ := newTestThrottle(5)
	defer th.Stop()

	stats := th.Stats()
	if stats.ActiveContributors != 0 || stats.LimitPerMinute != 5 || stats.WindowSeconds != 60 {
		t.Errorf("initial Stats() = %+v", stats)
	}

	th.Allow("alice")
	th.Allow("bob")
	th.Allow("")

	if got := th.Stats().ActiveContributors; got != 3 {
		t.Errorf("ActiveContributors = %d, want 3", got)
	}
}

func TestThrottle_Cleanup(t *testing.T) {
	th, clock := newTestThrottle(1)
	defer th.Stop()

	th.Allow("alice")
	clock.Advance(5 * time.Minute)
	th.Allow("bob")
	clock.Advance(6 * time.Minute)

	th.performCleanup()

	if got := th.Stats().ActiveContributors; got != 1 {
		t.Errorf("ActiveContributors after cleanup = %d, want 1", got)
	}
	if !th.Allow("alice") {
		t.Error("alice should start with a fresh budget after cleanup")
	}
}

func TestThrottle_StopTwice(t *testing.T) {
	th := New(1)
	th.Stop()
	th.Stop()
}

func TestThrottle_ConcurrentAccess(t *testing.T) {
	th := New(10)
	defer th.Stop()

	var wg sync.WaitGroup
	allowed := make(chan bool, 50)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				allowed <- th.Allow("alice")
				th.Stats()
			}
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	if count != 10 {
		t.Errorf("allowed %d submissions, want exactly 10", count)
	}
}
