package config

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Forecast horizon bounds accepted by the dashboard.
const (
	MinPeriods = 7
	MaxPeriods = 30
)

type AppConfig struct {
	// OpenWeatherAPIKey enables the live-weather section when set.
	OpenWeatherAPIKey string

	// HTTPTimeout bounds each outbound provider call.
	HTTPTimeout time.Duration

	// HistoryPath is the historical CSV location.
	HistoryPath string

	DefaultCity    string
	DefaultPeriods int

	// IntervalWidth of the forecast band in (0, 1); 0 keeps the model default.
	IntervalWidth float64

	// Forecast cache retention.
	CacheMaxEntries    int           // max number of cached forecasts (0 = unlimited)
	CacheMaxAge        time.Duration // max age of a cached forecast (0 = unlimited)
	CachePruneInterval time.Duration

	LogLevel  string // debug, info, warn, error
	LogFormat string // text, json

	Port string
}

// Load reads configuration from .env, an optional config.yaml and the
// environment, with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("openweather_api_key", "")
	v.SetDefault("http_timeout", "10s")
	v.SetDefault("history_path", "weather.csv")
	v.SetDefault("default_city", "Delhi")
	v.SetDefault("default_periods", 15)
	v.SetDefault("forecast_interval_width", 0.0)
	v.SetDefault("cache_max_entries", 256)
	v.SetDefault("cache_max_age", "1h")
	v.SetDefault("cache_prune_interval", "10m")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("port", "8080")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		OpenWeatherAPIKey: strings.TrimSpace(v.GetString("openweather_api_key")),
		HistoryPath:       v.GetString("history_path"),
		DefaultCity:       v.GetString("default_city"),
		DefaultPeriods:    v.GetInt("default_periods"),
		IntervalWidth:     v.GetFloat64("forecast_interval_width"),
		CacheMaxEntries:   v.GetInt("cache_max_entries"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
		Port:              v.GetString("port"),
	}

	var err error
	if cfg.HTTPTimeout, err = duration(v, "http_timeout"); err != nil {
		return nil, err
	}
	if cfg.CacheMaxAge, err = duration(v, "cache_max_age"); err != nil {
		return nil, err
	}
	if cfg.CachePruneInterval, err = duration(v, "cache_prune_interval"); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", strings.ToUpper(key), err)
	}
	return d, nil
}

func (c *AppConfig) validate() error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.HistoryPath == "" {
		return fmt.Errorf("HISTORY_PATH is required")
	}
	if c.DefaultPeriods < MinPeriods || c.DefaultPeriods > MaxPeriods {
		return fmt.Errorf("DEFAULT_PERIODS must be between %d and %d", MinPeriods, MaxPeriods)
	}
	if c.IntervalWidth < 0 || c.IntervalWidth >= 1 {
		return fmt.Errorf("FORECAST_INTERVAL_WIDTH must be in [0, 1)")
	}
	if c.CachePruneInterval <= 0 {
		return fmt.Errorf("CACHE_PRUNE_INTERVAL must be positive")
	}
	return nil
}

// LiveWeatherEnabled reports whether an API key is configured.
func (c *AppConfig) LiveWeatherEnabled() bool {
	return c.OpenWeatherAPIKey != ""
}

// NewLogger creates a slog.Logger from the log level and format.
func (c *AppConfig) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(c.LogFormat) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
