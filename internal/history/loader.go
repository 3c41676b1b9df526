package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cast"

	"github.com/i474232898/weather-forecast-dashboard/internal/common"
)

// MinRows is the fewest valid rows a dataset needs before any forecast is
// attempted.
const MinRows = 2

var (
	// ErrInsufficientData is returned when fewer than MinRows rows survive
	// parsing and cleaning.
	ErrInsufficientData = errors.New("not enough historical data to forecast")
	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
)

// Load parses a historical weather CSV and resamples it to one row per day.
// All errors are fatal: the caller must not forecast from a partial table.
func Load(r io.Reader) (Table, error) {
	obs, err := parse(r)
	if err != nil {
		return Table{}, common.Fatal("load history", err)
	}
	if len(obs) < MinRows {
		return Table{}, common.Fatal("load history", fmt.Errorf("%w: %d valid rows", ErrInsufficientData, len(obs)))
	}
	return Resample(obs), nil
}

// LoadSource opens src and loads it.
func LoadSource(src Source) (Table, error) {
	rc, err := src.Open()
	if err != nil {
		return Table{}, common.Fatal("open history", err)
	}
	defer rc.Close()
	return Load(rc)
}

func parse(r io.Reader) ([]Observation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	dateIdx := -1
	colIdx := make(map[Feature]int, len(Features))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == DateColumn {
			dateIdx = i
			continue
		}
		if f, ok := ParseFeature(name); ok {
			colIdx[f] = i
		}
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, DateColumn)
	}
	for _, f := range Features {
		if _, ok := colIdx[f]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, f)
		}
	}

	var obs []Observation
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		ts, ok := parseDate(field(row, dateIdx))
		if !ok {
			continue
		}

		values := make(map[Feature]float64, len(Features))
		complete := true
		for _, f := range Features {
			v, ok := parseNumber(field(row, colIdx[f]))
			if !ok {
				complete = false
				break
			}
			values[f] = v
		}
		if !complete {
			continue
		}

		obs = append(obs, Observation{Timestamp: ts, Values: values})
	}
	return obs, nil
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseDate reads s as a UTC instant. Strings without a zone are taken as UTC.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	ts, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
