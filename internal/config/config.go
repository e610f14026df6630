package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config holds all daemon settings, populated from environment variables.
type Config struct {
	// Location to monitor.
	Latitude     float64 `env:"LATITUDE" envDefault:"40.7128"`
	Longitude    float64 `env:"LONGITUDE" envDefault:"-74.0060"`
	LocationName string  `env:"LOCATION_NAME" envDefault:"New York, NY, United States"`

	// DetectLocation overrides the configured coordinate at startup with
	// one resolved from the host's public IP address.
	DetectLocation bool `env:"DETECT_LOCATION" envDefault:"false"`

	// Refresh behavior.
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"15m"`
	AlertsEnabled   bool          `env:"ALERTS_ENABLED" envDefault:"true"`

	// Units passed through to the forecast API.
	TemperatureUnit string `env:"TEMPERATURE_UNIT" envDefault:"fahrenheit"`
	WindSpeedUnit   string `env:"WIND_SPEED_UNIT" envDefault:"mph"`

	// HTTP fetch behavior. UserAgent identifies the client to providers;
	// the NWS endpoint rejects requests without one.
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
	UserAgent   string        `env:"USER_AGENT" envDefault:"(tempestd, https://github.com/tempestwx/tempestd)"`

	// Serving and shutdown.
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Logging.
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Reverse-geocode cache entries kept for region resolution.
	GeocodeCacheSize int `env:"GEOCODE_CACHE_SIZE" envDefault:"1000"`
}

// Load reads configuration from environment variables, applying defaults
// where unset, and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Latitude < -90 || cfg.Latitude > 90 {
		return nil, errors.New("LATITUDE must be between -90 and 90")
	}
	if cfg.Longitude < -180 || cfg.Longitude > 180 {
		return nil, errors.New("LONGITUDE must be between -180 and 180")
	}
	if cfg.RefreshInterval < time.Minute || cfg.RefreshInterval > 24*time.Hour {
		return nil, errors.New("REFRESH_INTERVAL must be between 1m and 24h")
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, errors.New("HTTP_TIMEOUT must be positive")
	}
	switch cfg.TemperatureUnit {
	case "fahrenheit", "celsius":
	default:
		return nil, errors.New("TEMPERATURE_UNIT must be fahrenheit or celsius")
	}
	switch cfg.WindSpeedUnit {
	case "mph", "kmh", "ms", "kn":
	default:
		return nil, errors.New("WIND_SPEED_UNIT must be one of mph, kmh, ms, kn")
	}
	if cfg.GeocodeCacheSize <= 0 {
		return nil, errors.New("GEOCODE_CACHE_SIZE must be positive")
	}

	return cfg, nil
}
