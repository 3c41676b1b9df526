package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-forecast-dashboard/internal/weather"
)

const openWeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"

var errMalformedResponse = errors.New("malformed response")

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: openWeatherBaseURL,
		client:  client,
		circuit: newCircuitBreaker("openweather"),
		now:     time.Now,
	}
}

// WithBaseURL points the provider at another endpoint, e.g. a test server.
func (p *OpenWeatherProvider) WithBaseURL(u string) *OpenWeatherProvider {
	p.baseURL = u
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, city string) (weather.Snapshot, error) {
	if p.apiKey == "" {
		return weather.Snapshot{}, fmt.Errorf("openweather api key is not configured")
	}
	if city == "" {
		return weather.Snapshot{}, fmt.Errorf("city is required")
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return weather.Snapshot{}, err
	}

	resp, err := doRequest(ctx, p.client, p.circuit, p.name, req)
	if err != nil {
		return weather.Snapshot{}, err
	}
	defer resp.Body.Close()

	// Pointers tell a missing key apart from a zero reading.
	var payload struct {
		Main struct {
			Temp     *float64 `json:"temp"`
			Humidity *float64 `json:"humidity"`
			Pressure *float64 `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed *float64 `json:"speed"`
		} `json:"wind"`
		Visibility *float64 `json:"visibility"` // metres
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Snapshot{}, fmt.Errorf("%s: %w: %v", p.name, errMalformedResponse, err)
	}

	required := []struct {
		key string
		v   *float64
	}{
		{"main.temp", payload.Main.Temp},
		{"main.humidity", payload.Main.Humidity},
		{"main.pressure", payload.Main.Pressure},
		{"wind.speed", payload.Wind.Speed},
	}
	for _, r := range required {
		if r.v == nil {
			return weather.Snapshot{}, fmt.Errorf("%s: %w: missing %s", p.name, errMalformedResponse, r.key)
		}
	}

	var visibilityKm float64
	if payload.Visibility != nil {
		visibilityKm = *payload.Visibility / 1000
	}

	return weather.Snapshot{
		City:         city,
		Provider:     p.name,
		FetchedAt:    p.now().UTC(),
		TemperatureC: *payload.Main.Temp,
		HumidityPct:  *payload.Main.Humidity,
		PressureMb:   *payload.Main.Pressure,
		WindSpeedMS:  *payload.Wind.Speed,
		VisibilityKm: visibilityKm,
	}, nil
}
