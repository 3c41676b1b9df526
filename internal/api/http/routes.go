package httpapi

import (
	"bytes"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-forecast-dashboard/internal/chart"
	"github.com/i474232898/weather-forecast-dashboard/internal/common"
	"github.com/i474232898/weather-forecast-dashboard/internal/config"
	"github.com/i474232898/weather-forecast-dashboard/internal/forecast"
	"github.com/i474232898/weather-forecast-dashboard/internal/history"
	"github.com/i474232898/weather-forecast-dashboard/internal/weather"
)

var validate = validator.New()

// Defaults are the control values used when a query omits them.
type Defaults struct {
	City    string
	Periods int
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, defaults Defaults) {
	app.Get("/", func(c *fiber.Ctx) error {
		q, err := parseDashboardQuery(c, defaults)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		d := service.Build(c.UserContext(), q.City, q.Periods)
		return c.Render("dashboard", dashboardView{
			Dashboard:  d,
			MinPeriods: config.MinPeriods,
			MaxPeriods: config.MaxPeriods,
		})
	})

	app.Get("/charts", func(c *fiber.Ctx) error {
		q, err := parseFeatureQuery(c, defaults)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		points, err := service.Feature(q.feature, q.Periods)
		if err != nil {
			return forecastError(err)
		}

		var buf bytes.Buffer
		if err := chart.Render(&buf, q.feature, points); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render chart")
		}
		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	})

	app.Get("/export.csv", func(c *fiber.Ctx) error {
		periods, err := parsePeriods(c, defaults.Periods)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		points, err := service.Export(periods)
		if err != nil {
			if errors.Is(err, weather.ErrNoForecasts) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return forecastError(err)
		}

		var buf bytes.Buffer
		if err := forecast.WriteCSV(&buf, points); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to encode forecasts")
		}
		c.Attachment("all_forecasts.csv")
		c.Type("csv")
		return c.Send(buf.Bytes())
	})

	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		if !service.LiveEnabled() {
			return fiber.NewError(fiber.StatusServiceUnavailable, weather.ErrLiveWeatherDisabled.Error())
		}
		city := strings.TrimSpace(c.Query("city", defaults.City))
		if city == "" {
			return fiber.NewError(fiber.StatusBadRequest, "city is required")
		}

		snap, err := service.Current(c.UserContext(), city)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, errors.Unwrap(err).Error())
		}
		return c.JSON(snap)
	})

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		q, err := parseFeatureQuery(c, defaults)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		points, err := service.Feature(q.feature, q.Periods)
		if err != nil {
			return forecastError(err)
		}
		return c.JSON(fiber.Map{
			"feature": q.feature,
			"periods": q.Periods,
			"points":  points,
		})
	})
}

// forecastError maps the two error tiers onto HTTP statuses.
func forecastError(err error) error {
	switch {
	case common.IsFatal(err):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, forecast.ErrNoForecast):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

type dashboardView struct {
	weather.Dashboard
	MinPeriods int
	MaxPeriods int
}

// dashboardQuery holds the user-facing controls.
type dashboardQuery struct {
	City    string `validate:"required,max=100"`
	Periods int    `validate:"min=7,max=30"`
}

func parseDashboardQuery(c *fiber.Ctx, defaults Defaults) (dashboardQuery, error) {
	var q dashboardQuery

	q.City = strings.TrimSpace(c.Query("city", defaults.City))
	periods, err := parsePeriods(c, defaults.Periods)
	if err != nil {
		return q, err
	}
	q.Periods = periods

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// featureQuery holds query parameters for single-feature endpoints.
type featureQuery struct {
	Feature string `validate:"required"`
	Periods int    `validate:"min=7,max=30"`

	feature history.Feature
}

func parseFeatureQuery(c *fiber.Ctx, defaults Defaults) (featureQuery, error) {
	var q featureQuery

	q.Feature = c.Query("feature")
	periods, err := parsePeriods(c, defaults.Periods)
	if err != nil {
		return q, err
	}
	q.Periods = periods

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	f, ok := history.ParseFeature(q.Feature)
	if !ok {
		return q, errors.New("unknown feature " + strconv.Quote(q.Feature))
	}
	q.feature = f
	return q, nil
}

func parsePeriods(c *fiber.Ctx, def int) (int, error) {
	s := c.Query("periods")
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("periods must be an integer")
	}
	if n < config.MinPeriods || n > config.MaxPeriods {
		return 0, errors.New("periods must be between 7 and 30")
	}
	return n, nil
}

func chartURL(feature history.Feature, periods int) string {
	values := url.Values{}
	values.Set("feature", string(feature))
	values.Set("periods", strconv.Itoa(periods))
	return "/charts?" + values.Encode()
}
