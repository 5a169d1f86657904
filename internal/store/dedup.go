// Package store holds the local indexes and persistence adapters behind the playlist controller.
package store

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"tunedrop/internal/core"
)

// DedupStore is the track-identity index used for the pre-submission duplicate check.
// The Bloom filter answers the common "definitely new" case; the exact set settles
// positives, so false positives never reject a new track.
type DedupStore struct {
	mutex             sync.RWMutex
	trackIDs          map[string]struct{}
	bloom             *bloom.BloomFilter
	recent            *lru.Cache[string, struct{}]
	capacity          uint
	falsePositiveRate float64
}

// NewDedupStore creates an index for up to capacity track IDs. Beyond that the
// least recently added IDs are forgotten.
func NewDedupStore(capacity int, falsePositiveRate float64) (*DedupStore, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("dedup capacity must be positive, got %d", capacity)
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		return nil, fmt.Errorf("dedup false positive rate must be in (0,1), got %v", falsePositiveRate)
	}

	ds := &DedupStore{
		trackIDs:          make(map[string]struct{}, capacity),
		bloom:             bloom.NewWithEstimates(uint(capacity), falsePositiveRate),
		capacity:          uint(capacity),
		falsePositiveRate: falsePositiveRate,
	}

	// Evictions run under ds.mutex: the lru is only touched by locked methods.
	recent, err := lru.NewWithEvict(capacity, func(trackID string, _ struct{}) {
		delete(ds.trackIDs, trackID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dedup lru: %w", err)
	}
	ds.recent = recent

	return ds, nil
}

func (ds *DedupStore) Has(trackID string) bool {
	ds.mutex.RLock()
	defer ds.mutex.RUnlock()

	if !ds.bloom.TestString(trackID) {
		return false
	}

	_, exists := ds.trackIDs[trackID]
	return exists
}

func (ds *DedupStore) Add(trackID string) {
	if trackID == "" {
		return
	}

	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	ds.addLocked(trackID)
}

// load replaces the whole index with trackIDs.
func (ds *DedupStore) load(trackIDs []string) {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	ds.resetLocked()
	for _, trackID := range trackIDs {
		if trackID != "" {
			ds.addLocked(trackID)
		}
	}
}

// LoadEntries replaces the index with the track IDs of a playlist snapshot.
func (ds *DedupStore) LoadEntries(entries []core.PlaylistEntry) {
	trackIDs := make([]string, 0, len(entries))
	for i := range entries {
		trackIDs = append(trackIDs, entries[i].Track.ID)
	}
	ds.load(trackIDs)
}

func (ds *DedupStore) Size() int {
	ds.mutex.RLock()
	defer ds.mutex.RUnlock()
	return len(ds.trackIDs)
}

func (ds *DedupStore) addLocked(trackID string) {
	if _, exists := ds.trackIDs[trackID]; exists {
		ds.recent.Get(trackID)
		return
	}

	ds.trackIDs[trackID] = struct{}{}
	ds.bloom.AddString(trackID)
	ds.recent.Add(trackID, struct{}{})
}

func (ds *DedupStore) resetLocked() {
	ds.recent.Purge()
	ds.trackIDs = make(map[string]struct{}, ds.capacity)
	ds.bloom = bloom.NewWithEstimates(ds.capacity, ds.falsePositiveRate)
}
