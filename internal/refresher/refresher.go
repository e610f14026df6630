// Package refresher drives the periodic data refresh loop. All fetch
// completions funnel through a single event loop goroutine, so snapshot
// state needs no locking beyond the reader-side copy.
package refresher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tempestwx/tempestd/internal/aggregator"
	"github.com/tempestwx/tempestd/internal/domain"
	"github.com/tempestwx/tempestd/internal/observability"
)

// Data source names, used as metric labels and snapshot status keys.
const (
	SourceWeather    = "weather"
	SourceAirQuality = "air_quality"
	SourceAlerts     = "alerts"
)

// WeatherFetcher fetches a weather snapshot for a coordinate.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, lat, lon float64) (*domain.WeatherData, error)
}

// AirQualityFetcher fetches a current air quality reading.
type AirQualityFetcher interface {
	FetchAirQuality(ctx context.Context, lat, lon float64) (*domain.AirQualityData, error)
}

// AlertFetcher fetches the active alerts covering a coordinate.
type AlertFetcher interface {
	FetchAlerts(ctx context.Context, lat, lon float64) ([]domain.Alert, error)
}

// SourceStatus records the freshness of one data source.
type SourceStatus struct {
	LastSuccess time.Time `json:"last_success,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
}

// Snapshot is the last-good view of every data source. Failed fetches leave
// the previous value in place; the per-source status reports staleness.
type Snapshot struct {
	Location     domain.Coordinate       `json:"location"`
	LocationName string                  `json:"location_name,omitempty"`
	Weather      *domain.WeatherData     `json:"weather,omitempty"`
	AirQuality   *domain.AirQualityData  `json:"air_quality,omitempty"`
	Alerts       []domain.Alert          `json:"alerts"`
	Sources      map[string]SourceStatus `json:"sources"`
	UpdatedAt    time.Time               `json:"updated_at,omitzero"`
}

type fetchResult struct {
	source     string
	weather    *domain.WeatherData
	airQuality *domain.AirQualityData
	alerts     []domain.Alert
	err        error
}

// Options configures a Refresher.
type Options struct {
	Latitude      float64
	Longitude     float64
	LocationName  string
	Interval      time.Duration
	AlertsEnabled bool

	Weather    WeatherFetcher
	AirQuality AirQualityFetcher
	Alerts     AlertFetcher
	Gate       *aggregator.Gate

	Metrics *observability.Metrics
	Logger  *slog.Logger
	Clock   clockwork.Clock
}

// Refresher owns the refresh loop and the snapshot it produces.
type Refresher struct {
	opts  Options
	clock clockwork.Clock

	refreshCh  chan struct{}
	intervalCh chan time.Duration
	results    chan fetchResult

	mu       sync.RWMutex
	snapshot Snapshot
	ready    bool
}

// New creates a Refresher. Run must be called to start the loop.
func New(opts Options) *Refresher {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Refresher{
		opts:       opts,
		clock:      clock,
		refreshCh:  make(chan struct{}, 1),
		intervalCh: make(chan time.Duration, 1),
		results:    make(chan fetchResult),
		snapshot: Snapshot{
			Location:     domain.Coordinate{Lat: opts.Latitude, Lon: opts.Longitude},
			LocationName: opts.LocationName,
			Sources:      map[string]SourceStatus{},
		},
	}
}

// Run drives the loop until ctx is cancelled. An immediate refresh happens
// on startup, then one per interval tick or manual trigger.
func (r *Refresher) Run(ctx context.Context) error {
	r.opts.Metrics.RefresherRunning.Set(1)
	defer r.opts.Metrics.RefresherRunning.Set(0)

	ticker := r.clock.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	r.startCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			r.startCycle(ctx)
		case <-r.refreshCh:
			r.startCycle(ctx)
		case interval := <-r.intervalCh:
			// The old ticker dies with the interval change; a stale tick
			// cadence never survives a reconfiguration.
			ticker.Stop()
			ticker = r.clock.NewTicker(interval)
			r.opts.Logger.Info("refresh interval changed", "interval", interval)
		case res := <-r.results:
			r.apply(ctx, res)
		}
	}
}

// Refresh triggers an immediate refresh cycle. A trigger already pending
// satisfies the request.
func (r *Refresher) Refresh() {
	select {
	case r.refreshCh <- struct{}{}:
	default:
	}
}

// SetInterval restarts the periodic timer with a new period.
func (r *Refresher) SetInterval(interval time.Duration) {
	select {
	case r.intervalCh <- interval:
	default:
	}
}

// Snapshot returns a copy of the current last-good view.
func (r *Refresher) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := r.snapshot
	snap.Alerts = append([]domain.Alert(nil), r.snapshot.Alerts...)
	snap.Sources = make(map[string]SourceStatus, len(r.snapshot.Sources))
	for k, v := range r.snapshot.Sources {
		snap.Sources[k] = v
	}
	return snap
}

// Ready reports whether at least one fetch has completed, successfully or
// not. The HTTP readiness probe keys off this.
func (r *Refresher) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}

// startCycle launches one fetch goroutine per data source. Completions are
// delivered to the loop over the results channel and applied one at a time;
// the latest completion for each source wins.
func (r *Refresher) startCycle(ctx context.Context) {
	r.opts.Metrics.RefreshCycles.Inc()
	lat, lon := r.opts.Latitude, r.opts.Longitude

	go r.fetch(ctx, SourceWeather, func() fetchResult {
		data, err := r.opts.Weather.FetchWeather(ctx, lat, lon)
		return fetchResult{source: SourceWeather, weather: data, err: err}
	})
	go r.fetch(ctx, SourceAirQuality, func() fetchResult {
		data, err := r.opts.AirQuality.FetchAirQuality(ctx, lat, lon)
		return fetchResult{source: SourceAirQuality, airQuality: data, err: err}
	})
	if r.opts.AlertsEnabled {
		go r.fetch(ctx, SourceAlerts, func() fetchResult {
			alerts, err := r.opts.Alerts.FetchAlerts(ctx, lat, lon)
			return fetchResult{source: SourceAlerts, alerts: alerts, err: err}
		})
	}
}

func (r *Refresher) fetch(ctx context.Context, source string, fn func() fetchResult) {
	start := r.clock.Now()
	res := fn()
	r.opts.Metrics.FetchDuration.WithLabelValues(source).Observe(r.clock.Since(start).Seconds())

	outcome := "success"
	if res.err != nil {
		outcome = "error"
	}
	r.opts.Metrics.FetchRequests.WithLabelValues(source, outcome).Inc()

	select {
	case r.results <- res:
	case <-ctx.Done():
	}
}

func (r *Refresher) apply(ctx context.Context, res fetchResult) {
	now := r.clock.Now()

	r.mu.Lock()
	status := r.snapshot.Sources[res.source]
	if res.err != nil {
		status.LastError = res.err.Error()
	} else {
		status.LastSuccess = now
		status.LastError = ""
		switch res.source {
		case SourceWeather:
			r.snapshot.Weather = res.weather
		case SourceAirQuality:
			r.snapshot.AirQuality = res.airQuality
		case SourceAlerts:
			r.snapshot.Alerts = res.alerts
			r.opts.Metrics.ActiveAlerts.Set(float64(len(res.alerts)))
		}
		r.snapshot.UpdatedAt = now
	}
	r.snapshot.Sources[res.source] = status
	r.ready = true
	r.mu.Unlock()

	if res.err != nil {
		r.opts.Logger.Warn("fetch failed, keeping last good data",
			"source", res.source, "error", res.err)
		return
	}

	if res.source == SourceAlerts && r.opts.Gate != nil {
		r.opts.Gate.Process(ctx, res.alerts)
	}
}
