package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"

	"github.com/i474232898/weather-forecast-dashboard/internal/forecast"
	"github.com/i474232898/weather-forecast-dashboard/internal/history"
	"github.com/i474232898/weather-forecast-dashboard/internal/store"
	"github.com/i474232898/weather-forecast-dashboard/internal/weather"
	"github.com/i474232898/weather-forecast-dashboard/internal/weather/providers"
)

type meanModel struct{ mean float64 }

func (m *meanModel) Fit(_ []time.Time, y []float64) error {
	for _, v := range y {
		m.mean += v
	}
	m.mean /= float64(len(y))
	return nil
}

func (m *meanModel) Predict(t []time.Time) (forecast.Prediction, error) {
	p := forecast.Prediction{}
	for range t {
		p.Predicted = append(p.Predicted, m.mean)
		p.Lower = append(p.Lower, m.mean-1)
		p.Upper = append(p.Upper, m.mean+1)
	}
	return p, nil
}

const csvHeader = "date,Temperature (C),Humidity,Wind Speed (km/h),Visibility (km),Rainfall,Pressure (millibars)\n"

func newTestApp(t *testing.T, days int, withProvider bool) *fiber.App {
	t.Helper()

	var b strings.Builder
	b.WriteString(csvHeader)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		fmt.Fprintf(&b, "%s,%d,70,10,9,0.5,1012\n", start.AddDate(0, 0, i).Format("2006-01-02"), 20+i%4)
	}
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "weather.csv", []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write history: %v", err)
	}

	var provider weather.Provider
	if withProvider {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("q") == "Atlantis" {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
				return
			}
			_, _ = w.Write([]byte(`{"main":{"temp":31.5,"humidity":40,"pressure":1008},"wind":{"speed":3.6},"visibility":8000}`))
		}))
		t.Cleanup(srv.Close)
		provider = providers.NewOpenWeatherProvider(srv.Client(), "secret").WithBaseURL(srv.URL)
	}

	fc := forecast.New(func() forecast.Model { return &meanModel{} }, store.NewMemoryStore(16, time.Hour), nil)
	svc := weather.NewService(provider, history.NewFileSource(fs, "weather.csv"), fc, nil)

	app := fiber.New(fiber.Config{Views: Views()})
	RegisterRoutes(app, svc, Defaults{City: "Delhi", Periods: 15})
	return app
}

func get(t *testing.T, app *fiber.App, target string) (*http.Response, string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestDashboardRendersSections(t *testing.T) {
	app := newTestApp(t, 20, true)

	resp, body := get(t, app, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.StatusCode, body)
	}

	for _, want := range []string{
		"Current Weather in Delhi",
		"Visibility (km)</td><td>8.0",
		"Temperature (C)",
		"Pressure (millibars)",
		"/charts?feature=Humidity&amp;periods=15",
		"Download All Forecasts (CSV)",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard is missing %q", want)
		}
	}
}

func TestDashboardShowsRecoverableFetchError(t *testing.T) {
	app := newTestApp(t, 20, true)

	_, body := get(t, app, "/?city=Atlantis&periods=7")
	if !strings.Contains(body, "Failed to fetch live weather: openweathermap: status 404: city not found") {
		t.Fatal("expected fetch error on the page")
	}
	if !strings.Contains(body, "Download All Forecasts (CSV)") {
		t.Fatal("forecasts should still render")
	}
}

func TestDashboardFatalHistory(t *testing.T) {
	app := newTestApp(t, 1, false)

	resp, body := get(t, app, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if !strings.Contains(body, "Not enough historical data to forecast. Please check your CSV.") {
		t.Fatal("expected fatal message")
	}
	if strings.Contains(body, "<iframe") || strings.Contains(body, "Download All Forecasts") {
		t.Fatal("no charts or export should render after a fatal error")
	}
}

// TestPeriodsValidation verifies that every endpoint enforces the 7-30 range
// for the `periods` query parameter.
func TestPeriodsValidation(t *testing.T) {
	app := newTestApp(t, 20, false)

	for _, target := range []string{
		"/?periods=6",
		"/?periods=31",
		"/?periods=abc",
		"/export.csv?periods=0",
		"/charts?feature=Humidity&periods=45",
		"/api/v1/forecast?feature=Humidity&periods=-1",
	} {
		resp, _ := get(t, app, target)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected status %d, got %d", target, http.StatusBadRequest, resp.StatusCode)
		}
	}
}

func TestExportCSV(t *testing.T) {
	app := newTestApp(t, 10, false)

	resp, body := get(t, app, "/export.csv?periods=7")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.StatusCode, body)
	}
	if cd := resp.Header.Get(fiber.HeaderContentDisposition); !strings.Contains(cd, "all_forecasts.csv") {
		t.Fatalf("unexpected Content-Disposition %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(body), "\n")
	if lines[0] != "feature,date,predicted,lower,upper" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if want := 1 + len(history.Features)*(10+7); len(lines) != want {
		t.Fatalf("expected %d lines, got %d", want, len(lines))
	}
}

func TestChartEndpoint(t *testing.T) {
	app := newTestApp(t, 10, false)

	resp, body := get(t, app, "/charts?feature=Wind+Speed+%28km%2Fh%29&periods=7")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.StatusCode, body)
	}
	if !strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), "text/html") {
		t.Fatalf("unexpected content type %q", resp.Header.Get(fiber.HeaderContentType))
	}

	resp, _ = get(t, app, "/charts?feature=Snowfall&periods=7")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d for unknown feature, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestForecastJSON(t *testing.T) {
	app := newTestApp(t, 10, false)

	resp, body := get(t, app, "/api/v1/forecast?feature=Rainfall&periods=7")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.StatusCode, body)
	}

	var payload struct {
		Feature string           `json:"feature"`
		Periods int              `json:"periods"`
		Points  []forecast.Point `json:"points"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Feature != "Rainfall" || payload.Periods != 7 || len(payload.Points) != 17 {
		t.Fatalf("unexpected payload: feature=%q periods=%d points=%d", payload.Feature, payload.Periods, len(payload.Points))
	}
}

func TestCurrentWeatherJSON(t *testing.T) {
	app := newTestApp(t, 10, false)
	resp, _ := get(t, app, "/api/v1/weather/current?city=Delhi")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d without provider, got %d", http.StatusServiceUnavailable, resp.StatusCode)
	}

	app = newTestApp(t, 10, true)
	resp, body := get(t, app, "/api/v1/weather/current?city=Delhi")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.StatusCode, body)
	}
	var snap weather.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.VisibilityKm != 8.0 {
		t.Fatalf("expected visibility 8.0, got %v", snap.VisibilityKm)
	}

	resp, _ = get(t, app, "/api/v1/weather/current?city=Atlantis")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, resp.StatusCode)
	}
}
