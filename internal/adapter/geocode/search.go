package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tempestwx/tempestd/internal/domain"
	"github.com/tempestwx/tempestd/internal/observability"
)

// Searcher finds locations by city name and detects the host's location
// from its public IP.
type Searcher struct {
	httpClient *http.Client
	searchURL  string
	ipURL      string
	metrics    *observability.Metrics
}

// NewSearcher creates a location search client backed by the Open-Meteo
// geocoding API and ip-api.com.
func NewSearcher(timeout time.Duration, metrics *observability.Metrics) *Searcher {
	return &Searcher{
		httpClient: &http.Client{Timeout: timeout},
		searchURL:  "https://geocoding-api.open-meteo.com/v1/search",
		ipURL:      "http://ip-api.com/json/",
		metrics:    metrics,
	}
}

// SearchCity returns up to 10 location matches for a city name.
func (s *Searcher) SearchCity(ctx context.Context, city string) ([]domain.LocationResult, error) {
	params := url.Values{
		"name":     {city},
		"count":    {"10"},
		"language": {"en"},
		"format":   {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.metrics.GeocodeRequests.WithLabelValues("search", "error").Inc()
		return nil, fmt.Errorf("city search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.metrics.GeocodeRequests.WithLabelValues("search", "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geocoding API error: status %d: %s", resp.StatusCode, body)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		s.metrics.GeocodeRequests.WithLabelValues("search", "error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(payload.Results) == 0 {
		s.metrics.GeocodeRequests.WithLabelValues("search", "empty").Inc()
		return nil, nil
	}
	s.metrics.GeocodeRequests.WithLabelValues("search", "success").Inc()

	results := make([]domain.LocationResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		results = append(results, domain.LocationResult{
			Coordinate:  domain.Coordinate{Lat: r.Latitude, Lon: r.Longitude},
			DisplayName: displayName(r),
			Country:     r.Country,
		})
	}
	return results, nil
}

// DetectLocation resolves the host's coordinate and a "City, Country" label
// from its public IP address.
func (s *Searcher) DetectLocation(ctx context.Context) (domain.LocationResult, error) {
	u := s.ipURL + "?fields=status,lat,lon,city,regionName,country"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.LocationResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.LocationResult{}, fmt.Errorf("ip location request: %w", err)
	}
	defer resp.Body.Close()

	var payload ipResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.LocationResult{}, fmt.Errorf("decode response: %w", err)
	}

	if payload.Status != "success" || payload.Lat == nil || payload.Lon == nil {
		return domain.LocationResult{}, errors.New("could not determine location from IP address")
	}

	name := payload.Country
	switch {
	case payload.City != "" && payload.Country != "":
		name = payload.City + ", " + payload.Country
	case payload.RegionName != "" && payload.Country != "":
		name = payload.RegionName + ", " + payload.Country
	case name == "":
		name = "Unknown"
	}

	return domain.LocationResult{
		Coordinate:  domain.Coordinate{Lat: *payload.Lat, Lon: *payload.Lon},
		DisplayName: name,
		Country:     payload.Country,
	}, nil
}

func displayName(r searchResult) string {
	switch {
	case r.Admin1 != "" && r.Country != "":
		return fmt.Sprintf("%s, %s, %s", r.Name, r.Admin1, r.Country)
	case r.Country != "":
		return fmt.Sprintf("%s, %s", r.Name, r.Country)
	default:
		return r.Name
	}
}

// Open-Meteo geocoding and ip-api response types.

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Admin1    string  `json:"admin1"`
}

type ipResponse struct {
	Status     string   `json:"status"`
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
	City       string   `json:"city"`
	RegionName string   `json:"regionName"`
	Country    string   `json:"country"`
}
