// Package flood throttles playlist submissions per contributor.
package flood

import (
	"strings"
	"sync"
	"time"
)

const (
	// windowDuration is the sliding window for submission counting.
	windowDuration  = 60 * time.Second
	cleanupInterval = 10 * time.Minute
	// idleTimeout is how long an idle contributor entry is kept.
	idleTimeout = 10 * time.Minute

	anonymousKey = "\x00anonymous"
)

// Throttle limits how many tracks one nickname may submit per minute.
// Contributors without a nickname share a single budget.
type Throttle struct {
	limitPerMinute int
	entries        map[string]*contributorEntry
	mutex          sync.RWMutex
	stopCleanup    chan struct{}
	stopOnce       sync.Once
	now            func() time.Time
}

type contributorEntry struct {
	timestamps []time.Time
	lastSeen   time.Time
}

// New creates a throttle. A limit of zero or less disables throttling.
func New(limitPerMinute int) *Throttle {
	th := &Throttle{
		limitPerMinute: limitPerMinute,
		entries:        make(map[string]*contributorEntry),
		stopCleanup:    make(chan struct{}),
		now:            time.Now,
	}

	go th.cleanup()

	return th
}

// Stop stops the background cleanup goroutine. It is safe to call more than once.
func (th *Throttle) Stop() {
	th.stopOnce.Do(func() { close(th.stopCleanup) })
}

// Allow records a submission attempt for nickname and reports whether it may proceed.
func (th *Throttle) Allow(nickname string) bool {
	if th.limitPerMinute <= 0 {
		return true
	}

	key := contributorKey(nickname)

	th.mutex.Lock()
	defer th.mutex.Unlock()

	now := th.now()

	entry, exists := th.entries[key]
	if !exists {
		entry = &contributorEntry{
			timestamps: make([]time.Time, 0, th.limitPerMinute+1),
		}
		th.entries[key] = entry
	}
	entry.lastSeen = now

	windowStart := now.Add(-windowDuration)
	valid := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	entry.timestamps = valid

	if len(entry.timestamps) >= th.limitPerMinute {
		return false
	}

	entry.timestamps = append(entry.timestamps, now)
	return true
}

func (th *Throttle) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			th.performCleanup()
		case <-th.stopCleanup:
			return
		}
	}
}

func (th *Throttle) performCleanup() {
	th.mutex.Lock()
	defer th.mutex.Unlock()

	cutoff := th.now().Add(-idleTimeout)
	for key, entry := range th.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(th.entries, key)
		}
	}
}

// Stats returns throttle statistics for monitoring.
func (th *Throttle) Stats() Stats {
	th.mutex.RLock()
	defer th.mutex.RUnlock()

	return Stats{
		ActiveContributors: len(th.entries),
		LimitPerMinute:     th.limitPerMinute,
		WindowSeconds:      int(windowDuration.Seconds()),
	}
}

type Stats struct {
	ActiveContributors int `json:"active_contributors"`
	LimitPerMinute     int `json:"limit_per_minute"`
	WindowSeconds      int `json:"window_seconds"`
}

// Nicknames are compared case-insensitively.
func contributorKey(nickname string) string {
	key := strings.ToLower(strings.TrimSpace(nickname))
	if key == "" {
		return anonymousKey
	}
	return key
}
