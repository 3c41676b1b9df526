package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/afero"

	httpapi "github.com/i474232898/weather-forecast-dashboard/internal/api/http"
	"github.com/i474232898/weather-forecast-dashboard/internal/config"
	"github.com/i474232898/weather-forecast-dashboard/internal/forecast"
	"github.com/i474232898/weather-forecast-dashboard/internal/history"
	"github.com/i474232898/weather-forecast-dashboard/internal/scheduler"
	"github.com/i474232898/weather-forecast-dashboard/internal/store"
	"github.com/i474232898/weather-forecast-dashboard/internal/weather"
	"github.com/i474232898/weather-forecast-dashboard/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr := cfg.NewLogger()
	slog.SetDefault(logr)

	// Live weather is optional; without a key only that section is disabled.
	var provider weather.Provider
	if cfg.LiveWeatherEnabled() {
		httpClient := &http.Client{
			Timeout: cfg.HTTPTimeout,
		}
		provider = providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey)
	} else {
		logr.Warn("OPENWEATHER_API_KEY not set; live weather disabled")
	}

	// In-memory forecast cache with configured retention.
	cache := store.NewMemoryStore(cfg.CacheMaxEntries, cfg.CacheMaxAge)

	fc := forecast.New(
		forecast.AdditiveFactory(forecast.AdditiveOptions{IntervalWidth: cfg.IntervalWidth}),
		cache,
		logr,
	)

	source := history.NewFileSource(afero.NewOsFs(), cfg.HistoryPath)

	// Core service orchestrating fetch, history and forecasts.
	service := weather.NewService(provider, source, fc, logr)

	sched := scheduler.New(cache, cfg.CachePruneInterval, logr)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-forecast-dashboard",
		DisableStartupMessage: true,
		Views:                 httpapi.Views(),
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2 * time.Minute, // six sequential model fits per render
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "ok",
			"service":     "weather-forecast-dashboard",
			"liveWeather": service.LiveEnabled(),
		})
	})

	httpapi.RegisterRoutes(app, service, httpapi.Defaults{
		City:    cfg.DefaultCity,
		Periods: cfg.DefaultPeriods,
	})

	// Start server with graceful shutdown
	go func() {
		logr.Info("listening", "port", cfg.Port, "history", cfg.HistoryPath)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logr.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logr.Error("error during shutdown", "error", err)
	}
}
