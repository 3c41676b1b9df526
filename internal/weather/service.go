package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/i474232898/weather-forecast-dashboard/internal/common"
	"github.com/i474232898/weather-forecast-dashboard/internal/forecast"
	"github.com/i474232898/weather-forecast-dashboard/internal/history"
)

var (
	// ErrLiveWeatherDisabled is returned when no provider is configured.
	ErrLiveWeatherDisabled = errors.New("live weather is disabled: no API key configured")
	// ErrNoForecasts is returned by Export when no feature produced a forecast.
	ErrNoForecasts = errors.New("no feature produced a forecast")
)

// Service orchestrates one dashboard render: live fetch, history load and
// per-feature forecasts.
type Service struct {
	provider   Provider
	loader     *history.CachingLoader
	forecaster *forecast.Forecaster
	logger     *slog.Logger
}

// NewService creates a new Service. A nil provider disables the live-weather
// section without affecting forecasts.
func NewService(provider Provider, source history.Source, forecaster *forecast.Forecaster, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider:   provider,
		loader:     history.NewCachingLoader(source),
		forecaster: forecaster,
		logger:     logger,
	}
}

// LiveEnabled reports whether a live-weather provider is configured.
func (s *Service) LiveEnabled() bool {
	return s.provider != nil
}

// Current fetches live conditions for city. Every failure is recoverable.
func (s *Service) Current(ctx context.Context, city string) (Snapshot, error) {
	if s.provider == nil {
		return Snapshot{}, common.Recoverable("fetch live weather", ErrLiveWeatherDisabled)
	}
	city = strings.TrimSpace(city)
	if city == "" {
		return Snapshot{}, common.Recoverable("fetch live weather", errors.New("city is required"))
	}

	snap, err := s.provider.Fetch(ctx, city)
	if err != nil {
		s.logger.Warn("live weather fetch failed", "provider", s.provider.Name(), "city", city, "error", err)
		return Snapshot{}, common.Recoverable("fetch live weather", err)
	}
	return snap, nil
}

// LoadHistory reads and resamples the historical dataset, reparsing only when
// the source changed. Errors are fatal.
func (s *Service) LoadHistory() (history.Table, error) {
	table, err := s.loader.Load()
	if err != nil {
		s.logger.Error("history load failed", "error", err)
		return history.Table{}, err
	}
	s.logger.Debug("history loaded", "days", table.Len())
	return table, nil
}

// Panel is the forecast section of one feature. Exactly one of Points and
// Warning is set.
type Panel struct {
	Feature history.Feature
	Points  []forecast.Point
	Warning string
}

// OK reports whether the feature produced a forecast.
func (p Panel) OK() bool { return len(p.Points) > 0 }

// Forecasts runs every feature sequentially over the current history. Only a
// history failure is returned; per-feature failures become panel warnings.
func (s *Service) Forecasts(periods int) ([]Panel, error) {
	table, err := s.LoadHistory()
	if err != nil {
		return nil, err
	}

	panels := make([]Panel, 0, len(history.Features))
	for _, f := range history.Features {
		points, err := s.forecaster.Forecast(table, f, periods)
		if err != nil {
			panels = append(panels, Panel{Feature: f, Warning: warningFor(f, err)})
			continue
		}
		panels = append(panels, Panel{Feature: f, Points: points})
	}
	return panels, nil
}

// Feature forecasts a single feature.
func (s *Service) Feature(feature history.Feature, periods int) ([]forecast.Point, error) {
	table, err := s.LoadHistory()
	if err != nil {
		return nil, err
	}
	return s.forecaster.Forecast(table, feature, periods)
}

// Export concatenates every successful feature forecast in feature order.
func (s *Service) Export(periods int) ([]forecast.Point, error) {
	panels, err := s.Forecasts(periods)
	if err != nil {
		return nil, err
	}
	combined := Combine(panels)
	if len(combined) == 0 {
		return nil, ErrNoForecasts
	}
	return combined, nil
}

// Combine concatenates the points of all successful panels.
func Combine(panels []Panel) []forecast.Point {
	var out []forecast.Point
	for _, p := range panels {
		out = append(out, p.Points...)
	}
	return out
}

// Dashboard is everything one page render shows.
type Dashboard struct {
	City    string
	Periods int

	LiveEnabled  bool
	Current      *Snapshot
	CurrentError string

	// Fatal is set when history could not be used; nothing below it renders.
	Fatal  string
	Panels []Panel
}

// HasForecasts reports whether at least one feature produced a forecast.
func (d Dashboard) HasForecasts() bool {
	for _, p := range d.Panels {
		if p.OK() {
			return true
		}
	}
	return false
}

// Build assembles a full dashboard. It never fails: recoverable errors are
// reported per section and a fatal history error is reported in Fatal.
func (s *Service) Build(ctx context.Context, city string, periods int) Dashboard {
	d := Dashboard{
		City:        city,
		Periods:     periods,
		LiveEnabled: s.LiveEnabled(),
	}

	if d.LiveEnabled {
		snap, err := s.Current(ctx, city)
		if err != nil {
			d.CurrentError = fmt.Sprintf("Failed to fetch live weather: %v", errors.Unwrap(err))
		} else {
			d.Current = &snap
		}
	}

	panels, err := s.Forecasts(periods)
	if err != nil {
		d.Fatal = fatalMessage(err)
		return d
	}
	d.Panels = panels
	return d
}

func warningFor(f history.Feature, err error) string {
	if errors.Is(err, forecast.ErrNoForecast) {
		return fmt.Sprintf("Not enough data for %s. Skipping...", f)
	}
	return fmt.Sprintf("Forecast for %s failed: %v", f, errors.Unwrap(err))
}

func fatalMessage(err error) string {
	if errors.Is(err, history.ErrInsufficientData) {
		return "Not enough historical data to forecast. Please check your CSV."
	}
	return fmt.Sprintf("Historical data unavailable: %v", err)
}
