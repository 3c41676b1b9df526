package forecast

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/i474232898/weather-forecast-dashboard/internal/common"
	"github.com/i474232898/weather-forecast-dashboard/internal/history"
)

// MinPoints is the fewest observations a feature needs to fit a trend.
const MinPoints = 2

var (
	// ErrNoForecast is returned when a feature has too few points to model.
	ErrNoForecast = errors.New("no forecast available")
	// ErrInvalidPeriods is returned for a non-positive horizon.
	ErrInvalidPeriods = errors.New("periods must be greater than zero")
)

// Forecaster fits one model per (table, feature, periods) and caches results.
type Forecaster struct {
	newModel ModelFactory
	cache    Cache
	logger   *slog.Logger
}

// New creates a Forecaster. cache may be nil to disable caching.
func New(newModel ModelFactory, cache Cache, logger *slog.Logger) *Forecaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forecaster{
		newModel: newModel,
		cache:    cache,
		logger:   logger,
	}
}

// Forecast predicts feature over every historical date that has a value plus
// periods calendar days after the last one. Output is sorted by date.
//
// Every error is recoverable: a failing feature never stops the others.
func (f *Forecaster) Forecast(table history.Table, feature history.Feature, periods int) ([]Point, error) {
	op := fmt.Sprintf("forecast %s", feature)
	if periods <= 0 {
		return nil, common.Recoverable(op, ErrInvalidPeriods)
	}

	key := NewKey(table.Fingerprint(), feature, periods)
	if f.cache != nil {
		if points, ok := f.cache.Get(key); ok {
			f.logger.Debug("forecast cache hit", "feature", feature, "periods", periods)
			return points, nil
		}
	}

	ts, ys := table.Series(feature)
	if len(ts) < MinPoints {
		f.logger.Warn("not enough data to forecast", "feature", feature, "points", len(ts))
		return nil, common.Recoverable(op, ErrNoForecast)
	}

	start := time.Now()
	model := f.newModel()
	if err := model.Fit(ts, ys); err != nil {
		return nil, common.Recoverable(op, fmt.Errorf("fit: %w", err))
	}

	index := extendIndex(ts, periods)
	pred, err := model.Predict(index)
	if err != nil {
		return nil, common.Recoverable(op, fmt.Errorf("predict: %w", err))
	}
	if len(pred.Predicted) != len(index) || len(pred.Lower) != len(index) || len(pred.Upper) != len(index) {
		return nil, common.Recoverable(op, fmt.Errorf("model returned %d predictions for %d dates", len(pred.Predicted), len(index)))
	}

	points := make([]Point, len(index))
	for i, d := range index {
		yhat := pred.Predicted[i]
		if math.IsNaN(yhat) || math.IsInf(yhat, 0) {
			return nil, common.Recoverable(op, fmt.Errorf("model produced a non-finite value on %s", d.Format(time.DateOnly)))
		}
		lo, hi := orderBounds(pred.Lower[i], yhat, pred.Upper[i])
		points[i] = Point{
			Feature:   feature,
			Date:      d,
			Predicted: yhat,
			Lower:     lo,
			Upper:     hi,
		}
	}

	f.logger.Info("forecast fitted",
		"feature", feature,
		"points", len(ts),
		"periods", periods,
		"duration", time.Since(start),
	)

	if f.cache != nil {
		f.cache.Put(key, points)
	}
	return points, nil
}

// extendIndex appends periods daily steps after the last timestamp.
func extendIndex(ts []time.Time, periods int) []time.Time {
	out := make([]time.Time, 0, len(ts)+periods)
	out = append(out, ts...)
	last := ts[len(ts)-1]
	for i := 1; i <= periods; i++ {
		out = append(out, last.AddDate(0, 0, i))
	}
	return out
}

// orderBounds widens the band so it always contains yhat and lower <= upper.
func orderBounds(lower, yhat, upper float64) (float64, float64) {
	if math.IsNaN(lower) {
		lower = yhat
	}
	if math.IsNaN(upper) {
		upper = yhat
	}
	if lower > upper {
		lower, upper = upper, lower
	}
	return math.Min(lower, yhat), math.Max(upper, yhat)
}
