// Package aggregator resolves which alert provider covers a coordinate and
// fans alert notifications out to a sink.
package aggregator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tempestwx/tempestd/internal/domain"
	"github.com/tempestwx/tempestd/internal/observability"
)

// PointFetcher fetches alerts for a bare coordinate. The US and Canada
// adapters satisfy it.
type PointFetcher interface {
	Fetch(ctx context.Context, lat, lon float64) ([]domain.Alert, error)
}

// CountryFetcher fetches alerts for a coordinate within a named country.
// The Europe adapter satisfies it.
type CountryFetcher interface {
	Fetch(ctx context.Context, lat, lon float64, countryName string) ([]domain.Alert, error)
}

// CountryResolver names the country at a coordinate, best-effort.
type CountryResolver interface {
	ResolveCountry(ctx context.Context, lat, lon float64) string
}

// Aggregator dispatches alert fetches to the adapter responsible for the
// coordinate's jurisdiction.
type Aggregator struct {
	us        PointFetcher
	canada    PointFetcher
	europe    CountryFetcher
	countries CountryResolver
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates an Aggregator over the three provider adapters.
func New(us, canada PointFetcher, europe CountryFetcher, countries CountryResolver, metrics *observability.Metrics, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		us:        us,
		canada:    canada,
		europe:    europe,
		countries: countries,
		metrics:   metrics,
		logger:    logger,
	}
}

// FetchAlerts classifies the coordinate and returns the responsible
// adapter's alert list. Unknown jurisdictions yield an empty list and no
// error. Adapter hard failures propagate to the caller, which keeps the
// previous list in place until the next successful refresh.
func (a *Aggregator) FetchAlerts(ctx context.Context, lat, lon float64) ([]domain.Alert, error) {
	jurisdiction := domain.Classify(lat, lon)

	var (
		alerts []domain.Alert
		err    error
	)
	switch jurisdiction {
	case domain.JurisdictionUS:
		alerts, err = a.us.Fetch(ctx, lat, lon)
	case domain.JurisdictionCanada:
		alerts, err = a.canada.Fetch(ctx, lat, lon)
	case domain.JurisdictionEurope:
		country := a.countries.ResolveCountry(ctx, lat, lon)
		alerts, err = a.europe.Fetch(ctx, lat, lon, country)
	default:
		a.logger.Debug("no alert provider for coordinate", "lat", lat, "lon", lon)
		return nil, nil
	}

	if err != nil {
		var perr *domain.ProviderError
		if errors.As(err, &perr) {
			a.metrics.ProviderErrors.WithLabelValues(perr.Provider, perr.Kind.String()).Inc()
		}
		return nil, err
	}

	a.metrics.AlertsFetched.WithLabelValues(jurisdiction.Provider()).Add(float64(len(alerts)))
	a.logger.Info("alerts fetched",
		"jurisdiction", jurisdiction.String(), "count", len(alerts))
	return alerts, nil
}
