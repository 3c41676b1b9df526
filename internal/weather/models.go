package weather

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Snapshot is the current conditions for one city, as reported by a provider.
// It lives for a single render and is never persisted.
type Snapshot struct {
	City         string    `json:"city"`
	Provider     string    `json:"provider"`
	FetchedAt    time.Time `json:"fetchedAt"` // always UTC
	TemperatureC float64   `json:"temperatureC"`
	HumidityPct  float64   `json:"humidityPercent"`
	PressureMb   float64   `json:"pressureMb"`
	WindSpeedMS  float64   `json:"windSpeedMs"`
	VisibilityKm float64   `json:"visibilityKm"`
}

// Field is one labelled value of the current-weather summary.
type Field struct {
	Label string
	Value string
}

// Summary returns the snapshot as ordered label/value pairs for display.
func (s Snapshot) Summary() []Field {
	return []Field{
		{Label: "Temperature (°C)", Value: formatValue(s.TemperatureC)},
		{Label: "Humidity (%)", Value: formatValue(s.HumidityPct)},
		{Label: "Pressure (mb)", Value: formatValue(s.PressureMb)},
		{Label: "Wind Speed (m/s)", Value: formatValue(s.WindSpeedMS)},
		{Label: "Visibility (km)", Value: formatValue(s.VisibilityKm)},
	}
}

// DisplayCity returns the city name title-cased for headings.
func (s Snapshot) DisplayCity() string {
	return cases.Title(language.Und).String(s.City)
}

// formatValue keeps at least one decimal so 8 km reads as 8.0.
func formatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}
