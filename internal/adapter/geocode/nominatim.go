// Package geocode resolves coordinates to place and country names and
// searches locations by city name, using the Nominatim and Open-Meteo
// geocoding APIs.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tempestwx/tempestd/internal/observability"
)

// Place holds the address components of a reverse-geocoded coordinate.
// Any field may be empty; Candidates lists the non-empty names from most
// to least specific.
type Place struct {
	City         string
	Town         string
	Village      string
	Municipality string
	County       string
	State        string
	Country      string
}

// Candidates returns the place's non-empty locality names, most specific
// first. These are the inputs for fuzzy region matching.
func (p Place) Candidates() []string {
	var out []string
	for _, s := range []string{p.City, p.Town, p.Village, p.Municipality, p.County, p.State} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Client reverse-geocodes coordinates via the Nominatim API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim reverse-geocoding client. Nominatim's usage
// policy requires an identifying user agent.
func NewClient(userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://nominatim.openstreetmap.org",
		userAgent:  userAgent,
		metrics:    metrics,
		logger:     logger,
	}
}

// ReverseGeocode resolves a coordinate to its address components.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error) {
	params := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', 6, 64)},
		"format": {"json"},
	}
	u := c.baseURL + "/reverse?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Place{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "error").Inc()
		return Place{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Place{}, fmt.Errorf("nominatim error: status %d: %s", resp.StatusCode, body)
	}

	var payload reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "error").Inc()
		return Place{}, fmt.Errorf("decode response: %w", err)
	}

	place := Place{
		City:         payload.Address.City,
		Town:         payload.Address.Town,
		Village:      payload.Address.Village,
		Municipality: payload.Address.Municipality,
		County:       payload.Address.County,
		State:        payload.Address.State,
		Country:      payload.Address.Country,
	}
	if place == (Place{}) {
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "empty").Inc()
	} else {
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "success").Inc()
	}
	return place, nil
}

// Nominatim API response types.

type reverseResponse struct {
	Address struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		County       string `json:"county"`
		State        string `json:"state"`
		Country      string `json:"country"`
	} `json:"address"`
}

// CountryResolver resolves a coordinate to a country name using a reverse
// geocoder, with a bounding-box fallback. It is best-effort and never fails
// the caller.
type CountryResolver struct {
	geocoder ReverseGeocoder
	logger   *slog.Logger
}

// NewCountryResolver creates a country resolver on top of a reverse
// geocoder (typically a CachedGeocoder).
func NewCountryResolver(geocoder ReverseGeocoder, logger *slog.Logger) *CountryResolver {
	return &CountryResolver{geocoder: geocoder, logger: logger}
}

// ResolveCountry reverse-geocodes a coordinate to its country name. On
// lookup failure or an empty result it falls back to a fixed table of
// European bounding boxes, and returns "Unknown" when nothing matches.
func (r *CountryResolver) ResolveCountry(ctx context.Context, lat, lon float64) string {
	place, err := r.geocoder.ReverseGeocode(ctx, lat, lon)
	if err == nil && place.Country != "" {
		return place.Country
	}
	if err != nil {
		r.logger.Warn("reverse geocode failed, using bounding-box fallback",
			"lat", lat, "lon", lon, "error", err)
	}
	return fallbackCountry(lat, lon)
}
