package store

import (
	"sync"
	"time"

	"github.com/i474232898/weather-forecast-dashboard/internal/forecast"
)

type entry struct {
	points   []forecast.Point
	storedAt time.Time
}

// MemoryStore is a concurrency-safe in-memory forecast cache keyed by content
// hash.
type MemoryStore struct {
	mu sync.RWMutex

	data  map[forecast.Key]*entry
	order []forecast.Key // write order, oldest first

	// retention configuration
	maxEntries int           // max number of cached forecasts
	maxAge     time.Duration // optional max age for entries

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryStore(maxEntries int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[forecast.Key]*entry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Get returns a copy of the cached points for key.
func (s *MemoryStore) Get(key forecast.Key) ([]forecast.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok {
		return nil, false
	}
	if s.maxAge > 0 && s.now().Sub(e.storedAt) > s.maxAge {
		return nil, false
	}
	return clonePoints(e.points), true
}

// Put stores a copy of points under key and enforces retention.
func (s *MemoryStore) Put(key forecast.Key, points []forecast.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A re-put entry counts as the newest.
	if _, ok := s.data[key]; ok {
		s.removeFromOrder(key)
	}
	s.order = append(s.order, key)
	s.data[key] = &entry{points: clonePoints(points), storedAt: s.now()}

	// Enforce retention by count.
	if s.maxEntries > 0 && len(s.order) > s.maxEntries {
		over := len(s.order) - s.maxEntries
		for _, k := range s.order[:over] {
			delete(s.data, k)
		}
		s.order = append([]forecast.Key(nil), s.order[over:]...)
	}
}

// Prune drops entries older than the configured max age and returns how many
// were removed.
func (s *MemoryStore) Prune() int {
	if s.maxAge <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.maxAge)
	kept := s.order[:0]
	removed := 0
	for _, k := range s.order {
		if s.data[k].storedAt.Before(cutoff) {
			delete(s.data, k)
			removed++
			continue
		}
		kept = append(kept, k)
	}
	s.order = kept
	return removed
}

func (s *MemoryStore) removeFromOrder(key forecast.Key) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Len returns the number of cached forecasts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func clonePoints(points []forecast.Point) []forecast.Point {
	out := make([]forecast.Point, len(points))
	copy(out, points)
	return out
}
