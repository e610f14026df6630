// Package http exposes the daemon's HTTP surface: health and readiness
// probes, Prometheus metrics, the current data snapshot, and city search.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tempestwx/tempestd/internal/domain"
	"github.com/tempestwx/tempestd/internal/refresher"
)

// SnapshotProvider exposes the refresher's last-good view and readiness.
type SnapshotProvider interface {
	Snapshot() refresher.Snapshot
	Ready() bool
}

// LocationSearcher finds coordinates for a city name.
type LocationSearcher interface {
	SearchCity(ctx context.Context, name string) ([]domain.LocationResult, error)
}

// Server exposes the daemon's HTTP endpoints.
type Server struct {
	httpServer *http.Server
	snapshots  SnapshotProvider
	searcher   LocationSearcher
	logger     *slog.Logger
}

// NewServer creates an HTTP server with probe, metrics, snapshot, and
// search routes.
func NewServer(addr string, snapshots SnapshotProvider, searcher LocationSearcher, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		snapshots: snapshots,
		searcher:  searcher,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /v1/search", s.handleSearch)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.snapshots.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "no refresh cycle has completed",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// snapshotResponse decorates the raw snapshot with display-ready fields
// derived from the WMO weather code and AQI reading.
type snapshotResponse struct {
	refresher.Snapshot
	Derived *derivedConditions `json:"derived,omitempty"`
}

type derivedConditions struct {
	Conditions  string `json:"conditions"`
	Icon        string `json:"icon"`
	WindCompass string `json:"wind_compass"`
	AirQuality  string `json:"air_quality,omitempty"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap := s.snapshots.Snapshot()
	resp := snapshotResponse{Snapshot: snap}

	if wd := snap.Weather; wd != nil {
		night := false
		if len(wd.Forecast) > 0 {
			night = domain.IsNight(domain.Now(), wd.Forecast[0].Sunrise, wd.Forecast[0].Sunset)
		}
		resp.Derived = &derivedConditions{
			Conditions:  domain.WeatherCodeDescription(wd.Current.WeatherCode),
			Icon:        domain.WeatherCodeIcon(wd.Current.WeatherCode, night),
			WindCompass: domain.WindCompass(wd.Current.WindDirection),
		}
		if aq := snap.AirQuality; aq != nil {
			resp.Derived.AirQuality = domain.AQIDescription(aq.AQI, aq.Standard)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "missing required query parameter: city",
		})
		return
	}

	results, err := s.searcher.SearchCity(r.Context(), city)
	if err != nil {
		status := http.StatusBadGateway
		var perr *domain.ProviderError
		if errors.As(err, &perr) && perr.Kind == domain.ErrorNetwork {
			status = http.StatusGatewayTimeout
		}
		s.logger.Warn("city search failed", "city", city, "error", err)
		writeJSON(w, status, map[string]string{"error": "city search failed"})
		return
	}
	if results == nil {
		results = []domain.LocationResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
