package forecast

import (
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/i474232898/weather-forecast-dashboard/internal/history"
)

// Point is one forecast row: the model's estimate for a feature on a date,
// with its uncertainty band. Lower <= Predicted <= Upper always holds.
type Point struct {
	Feature   history.Feature `json:"feature"`
	Date      time.Time       `json:"date"`
	Predicted float64         `json:"predicted"`
	Lower     float64         `json:"lower"`
	Upper     float64         `json:"upper"`
}

// Prediction is what a Model returns for a slice of timestamps. All three
// slices have the same length as the requested timestamps.
type Prediction struct {
	Predicted []float64
	Lower     []float64
	Upper     []float64
}

// Model is a univariate time-series model.
type Model interface {
	Fit(t []time.Time, y []float64) error
	Predict(t []time.Time) (Prediction, error)
}

// ModelFactory returns a fresh, unfitted Model.
type ModelFactory func() Model

// Key identifies a cached forecast: data snapshot, feature and horizon.
type Key uint64

// NewKey hashes the cache inputs into a Key.
func NewKey(fingerprint uint64, feature history.Feature, periods int) Key {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], fingerprint)
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(string(feature))
	binary.LittleEndian.PutUint64(buf[:], uint64(periods))
	_, _ = d.Write(buf[:])
	return Key(d.Sum64())
}

// Cache is the contract the in-memory forecast cache must satisfy.
type Cache interface {
	Get(key Key) ([]Point, bool)
	Put(key Key, points []Point)
}
