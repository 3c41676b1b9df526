package store

import (
	"testing"
	"time"

	"github.com/i474232898/weather-forecast-dashboard/internal/forecast"
	"github.com/i474232898/weather-forecast-dashboard/internal/history"
)

func points(n int) []forecast.Point {
	out := make([]forecast.Point, n)
	for i := range out {
		out[i] = forecast.Point{
			Feature:   history.Temperature,
			Date:      time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
			Predicted: float64(i),
			Lower:     float64(i) - 1,
			Upper:     float64(i) + 1,
		}
	}
	return out
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore(10, time.Hour)
	key := forecast.NewKey(1, history.Temperature, 7)

	s.Put(key, points(3))

	got, ok := s.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	got[0].Predicted = 99

	again, _ := s.Get(key)
	if again[0].Predicted != 0 {
		t.Fatalf("cached points were mutated through a returned slice")
	}
}

func TestMemoryStoreEvictsOldestBeyondMaxEntries(t *testing.T) {
	s := NewMemoryStore(2, 0)
	k1 := forecast.NewKey(1, history.Temperature, 7)
	k2 := forecast.NewKey(1, history.Humidity, 7)
	k3 := forecast.NewKey(1, history.Rainfall, 7)

	s.Put(k1, points(1))
	s.Put(k2, points(1))
	s.Put(k3, points(1))

	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len())
	}
	if _, ok := s.Get(k1); ok {
		t.Fatal("expected oldest entry to be evicted")
	}
	if _, ok := s.Get(k3); !ok {
		t.Fatal("expected newest entry to be kept")
	}
}

func TestMemoryStoreRePutRefreshesEvictionOrder(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(2, time.Hour)
	s.now = func() time.Time { return now }

	refit := forecast.NewKey(1, history.Temperature, 7)
	other := forecast.NewKey(1, history.Humidity, 7)
	newest := forecast.NewKey(1, history.Rainfall, 7)

	s.Put(refit, points(1))
	s.Put(other, points(1))

	// refit expires and is stored again after a new fit.
	now = now.Add(2 * time.Hour)
	if _, ok := s.Get(refit); ok {
		t.Fatal("expected expired entry to miss")
	}
	s.Put(refit, points(2))
	s.Put(newest, points(1))

	if _, ok := s.data[other]; ok {
		t.Fatal("expected the least recently written entry to be evicted")
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len())
	}
	got, ok := s.Get(refit)
	if !ok || len(got) != 2 {
		t.Fatalf("expected the refitted entry to survive, got %v (hit %v)", got, ok)
	}
	if _, ok := s.Get(newest); !ok {
		t.Fatal("expected newest entry to be kept")
	}
}

func TestMemoryStorePruneRemovesExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(0, time.Hour)
	s.now = func() time.Time { return now }

	old := forecast.NewKey(1, history.Temperature, 7)
	fresh := forecast.NewKey(1, history.Temperature, 8)

	s.Put(old, points(1))
	now = now.Add(50 * time.Minute)
	s.Put(fresh, points(1))
	now = now.Add(20 * time.Minute)

	if _, ok := s.Get(old); ok {
		t.Fatal("expired entry should miss")
	}

	if removed := s.Prune(); removed != 1 {
		t.Fatalf("expected 1 pruned entry, got %d", removed)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", s.Len())
	}
	if _, ok := s.Get(fresh); !ok {
		t.Fatal("fresh entry should survive pruning")
	}
}
