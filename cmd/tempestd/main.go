package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tempestwx/tempestd/internal/adapter/eccc"
	"github.com/tempestwx/tempestd/internal/adapter/geocode"
	httpadapter "github.com/tempestwx/tempestd/internal/adapter/http"
	"github.com/tempestwx/tempestd/internal/adapter/meteoalarm"
	"github.com/tempestwx/tempestd/internal/adapter/nws"
	"github.com/tempestwx/tempestd/internal/adapter/openmeteo"
	"github.com/tempestwx/tempestd/internal/aggregator"
	"github.com/tempestwx/tempestd/internal/config"
	"github.com/tempestwx/tempestd/internal/observability"
	"github.com/tempestwx/tempestd/internal/refresher"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	nominatim := geocode.NewClient(cfg.UserAgent, cfg.HTTPTimeout, metrics, logger)
	geocoder := geocode.NewCachedGeocoder(nominatim, cfg.GeocodeCacheSize, metrics)
	countries := geocode.NewCountryResolver(geocoder, logger)
	searcher := geocode.NewSearcher(cfg.HTTPTimeout, metrics)

	alerts := aggregator.New(
		nws.NewClient(cfg.UserAgent, cfg.HTTPTimeout, logger),
		eccc.NewClient(cfg.UserAgent, cfg.HTTPTimeout, logger),
		meteoalarm.NewClient(geocoder, cfg.UserAgent, cfg.HTTPTimeout, logger),
		countries,
		metrics,
		logger,
	)

	weather := openmeteo.NewClient(cfg.TemperatureUnit, cfg.WindSpeedUnit, cfg.HTTPTimeout, logger)
	gate := aggregator.NewGate(&aggregator.LogNotifier{Logger: logger}, metrics, logger)

	lat, lon, locationName := cfg.Latitude, cfg.Longitude, cfg.LocationName
	if cfg.DetectLocation {
		detectCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
		loc, err := searcher.DetectLocation(detectCtx)
		cancel()
		if err != nil {
			logger.Warn("ip location detection failed, using configured location", "error", err)
		} else {
			lat, lon, locationName = loc.Coordinate.Lat, loc.Coordinate.Lon, loc.DisplayName
			logger.Info("location detected from ip", "location", locationName)
		}
	}

	r := refresher.New(refresher.Options{
		Latitude:      lat,
		Longitude:     lon,
		LocationName:  locationName,
		Interval:      cfg.RefreshInterval,
		AlertsEnabled: cfg.AlertsEnabled,
		Weather:       weather,
		AirQuality:    weather,
		Alerts:        alerts,
		Gate:          gate,
		Metrics:       metrics,
		Logger:        logger,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, r, searcher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh loop.
	go func() {
		if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("refresher error", "error", err)
		}
	}()

	logger.Info("tempestd started",
		"location", locationName,
		"refresh_interval", cfg.RefreshInterval,
		"alerts_enabled", cfg.AlertsEnabled,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
