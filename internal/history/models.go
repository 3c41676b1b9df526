package history

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Feature names a numeric column of the historical dataset. The value is the
// exact CSV header.
type Feature string

const (
	Temperature Feature = "Temperature (C)"
	Humidity    Feature = "Humidity"
	WindSpeed   Feature = "Wind Speed (km/h)"
	Visibility  Feature = "Visibility (km)"
	Rainfall    Feature = "Rainfall"
	Pressure    Feature = "Pressure (millibars)"
)

// DateColumn is the header of the timestamp column.
const DateColumn = "date"

// Features lists every forecastable column in display order.
var Features = []Feature{Temperature, Humidity, WindSpeed, Visibility, Rainfall, Pressure}

// ParseFeature maps a column header to a Feature.
func ParseFeature(s string) (Feature, bool) {
	for _, f := range Features {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// Record is one day of historical observations.
// Date is midnight UTC of the calendar day.
type Record struct {
	Date        time.Time
	Temperature float64
	Humidity    float64
	WindSpeed   float64
	Visibility  float64
	Rainfall    float64
	Pressure    float64
}

// Value returns the record's value for f. ok is false for unknown features
// and for NaN values.
func (r Record) Value(f Feature) (v float64, ok bool) {
	switch f {
	case Temperature:
		v = r.Temperature
	case Humidity:
		v = r.Humidity
	case WindSpeed:
		v = r.WindSpeed
	case Visibility:
		v = r.Visibility
	case Rainfall:
		v = r.Rainfall
	case Pressure:
		v = r.Pressure
	default:
		return 0, false
	}
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func (r *Record) set(f Feature, v float64) {
	switch f {
	case Temperature:
		r.Temperature = v
	case Humidity:
		r.Humidity = v
	case WindSpeed:
		r.WindSpeed = v
	case Visibility:
		r.Visibility = v
	case Rainfall:
		r.Rainfall = v
	case Pressure:
		r.Pressure = v
	}
}

// Table is the daily-resampled historical dataset, ordered by Date ascending.
type Table struct {
	Records []Record
}

// Len returns the number of daily rows.
func (t Table) Len() int { return len(t.Records) }

// Series returns the (date, value) pairs of f, skipping missing values.
func (t Table) Series(f Feature) ([]time.Time, []float64) {
	ts := make([]time.Time, 0, len(t.Records))
	ys := make([]float64, 0, len(t.Records))
	for _, r := range t.Records {
		v, ok := r.Value(f)
		if !ok {
			continue
		}
		ts = append(ts, r.Date)
		ys = append(ys, v)
	}
	return ts, ys
}

// Fingerprint is a content hash of the table. Two tables with the same rows
// share a fingerprint.
func (t Table) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, r := range t.Records {
		binary.LittleEndian.PutUint64(buf[:], uint64(r.Date.Unix()))
		_, _ = d.Write(buf[:])
		for _, v := range [...]float64{r.Temperature, r.Humidity, r.WindSpeed, r.Visibility, r.Rainfall, r.Pressure} {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = d.Write(buf[:])
		}
	}
	return d.Sum64()
}
