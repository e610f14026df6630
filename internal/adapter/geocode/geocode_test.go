package geocode

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempestwx/tempestd/internal/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		userAgent:  "(tempestd test)",
		metrics:    testMetrics(),
		logger:     testLogger(),
	}
}

func TestReverseGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "51.507400", r.URL.Query().Get("lat"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		_, _ = w.Write([]byte(`{"address": {
			"city": "London",
			"state": "England",
			"country": "United Kingdom"
		}}`))
	}))
	defer srv.Close()

	place, err := testClient(srv.URL).ReverseGeocode(context.Background(), 51.5074, -0.1278)
	require.NoError(t, err)
	assert.Equal(t, "London", place.City)
	assert.Equal(t, "England", place.State)
	assert.Equal(t, "United Kingdom", place.Country)
	assert.Equal(t, []string{"London", "England"}, place.Candidates())
}

func TestReverseGeocode_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ReverseGeocode(context.Background(), 51.5, -0.1)
	assert.Error(t, err)
}

func TestCountryResolver_UsesGeocoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"address": {"country": "France"}}`))
	}))
	defer srv.Close()

	r := NewCountryResolver(testClient(srv.URL), testLogger())
	assert.Equal(t, "France", r.ResolveCountry(context.Background(), 48.8566, 2.3522))
}

func TestCountryResolver_FallsBackOnError(t *testing.T) {
	r := NewCountryResolver(testClient("http://127.0.0.1:1"), testLogger())

	// Paris sits inside the France fallback box.
	assert.Equal(t, "France", r.ResolveCountry(context.Background(), 48.8566, 2.3522))
	// London sits inside the United Kingdom box.
	assert.Equal(t, "United Kingdom", r.ResolveCountry(context.Background(), 51.5074, -0.1278))
	// Outside every box.
	assert.Equal(t, "Unknown", r.ResolveCountry(context.Background(), 10.0, 100.0))
}

func TestCountryResolver_FallsBackOnEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"address": {}}`))
	}))
	defer srv.Close()

	r := NewCountryResolver(testClient(srv.URL), testLogger())
	assert.Equal(t, "Germany", r.ResolveCountry(context.Background(), 52.52, 13.405))
}

func TestFallbackCountry_OrderMatters(t *testing.T) {
	// Brussels is inside both the Belgium and France boxes; Belgium is
	// checked first.
	assert.Equal(t, "Belgium", fallbackCountry(50.8503, 4.3517))
	// Amsterdam matches Netherlands before any larger neighbor.
	assert.Equal(t, "Netherlands", fallbackCountry(52.3676, 4.9041))
}

type fakeGeocoder struct {
	calls int
	place Place
	err   error
}

func (f *fakeGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (Place, error) {
	f.calls++
	return f.place, f.err
}

func TestCachedGeocoder_CachesNonEmptyResults(t *testing.T) {
	fake := &fakeGeocoder{place: Place{City: "Montreal", Country: "Canada"}}
	cached := NewCachedGeocoder(fake, 10, testMetrics())

	for i := 0; i < 3; i++ {
		place, err := cached.ReverseGeocode(context.Background(), 45.5017, -73.5673)
		require.NoError(t, err)
		assert.Equal(t, "Montreal", place.City)
	}
	assert.Equal(t, 1, fake.calls)
}

func TestCachedGeocoder_DoesNotCacheEmptyOrErrors(t *testing.T) {
	fake := &fakeGeocoder{err: errors.New("boom")}
	cached := NewCachedGeocoder(fake, 10, testMetrics())

	_, err := cached.ReverseGeocode(context.Background(), 1, 2)
	assert.Error(t, err)
	_, err = cached.ReverseGeocode(context.Background(), 1, 2)
	assert.Error(t, err)
	assert.Equal(t, 2, fake.calls, "errors are retried, not cached")

	fake.err = nil
	fake.calls = 0
	_, _ = cached.ReverseGeocode(context.Background(), 3, 4)
	_, _ = cached.ReverseGeocode(context.Background(), 3, 4)
	assert.Equal(t, 2, fake.calls, "empty results are retried, not cached")
}

func TestCachedGeocoder_EvictsLRU(t *testing.T) {
	fake := &fakeGeocoder{place: Place{City: "X"}}
	cached := NewCachedGeocoder(fake, 2, testMetrics())

	_, _ = cached.ReverseGeocode(context.Background(), 1, 1)
	_, _ = cached.ReverseGeocode(context.Background(), 2, 2)
	_, _ = cached.ReverseGeocode(context.Background(), 3, 3) // evicts (1,1)
	assert.Equal(t, 3, fake.calls)

	_, _ = cached.ReverseGeocode(context.Background(), 1, 1)
	assert.Equal(t, 4, fake.calls, "evicted entry refetches")

	_, _ = cached.ReverseGeocode(context.Background(), 3, 3)
	assert.Equal(t, 4, fake.calls, "recent entry still cached")
}

func TestSearchCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "London", r.URL.Query().Get("name"))
		assert.Equal(t, "10", r.URL.Query().Get("count"))

		_, _ = w.Write([]byte(`{"results": [
			{"name": "London", "latitude": 51.5074, "longitude": -0.1278,
			 "country": "United Kingdom", "admin1": "England"},
			{"name": "London", "latitude": 42.9834, "longitude": -81.2330,
			 "country": "Canada", "admin1": "Ontario"},
			{"name": "Londonderry", "latitude": 54.9966, "longitude": -7.3086,
			 "country": "United Kingdom"}
		]}`))
	}))
	defer srv.Close()

	s := &Searcher{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		searchURL:  srv.URL,
		metrics:    testMetrics(),
	}

	results, err := s.SearchCity(context.Background(), "London")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "London, England, United Kingdom", results[0].DisplayName)
	assert.Equal(t, 51.5074, results[0].Coordinate.Lat)
	assert.Equal(t, "United Kingdom", results[0].Country)
	assert.Equal(t, "London, Ontario, Canada", results[1].DisplayName)
	assert.Equal(t, "Londonderry, United Kingdom", results[2].DisplayName)
}

func TestSearchCity_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := &Searcher{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		searchURL:  srv.URL,
		metrics:    testMetrics(),
	}

	results, err := s.SearchCity(context.Background(), "Nowheresville")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDetectLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "fields=")
		_, _ = w.Write([]byte(`{"status": "success", "lat": 45.5017, "lon": -73.5673,
			"city": "Montreal", "regionName": "Quebec", "country": "Canada"}`))
	}))
	defer srv.Close()

	s := &Searcher{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		ipURL:      srv.URL,
		metrics:    testMetrics(),
	}

	loc, err := s.DetectLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 45.5017, loc.Coordinate.Lat)
	assert.Equal(t, "Montreal, Canada", loc.DisplayName)
}

func TestDetectLocation_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "fail"}`))
	}))
	defer srv.Close()

	s := &Searcher{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		ipURL:      srv.URL,
		metrics:    testMetrics(),
	}

	_, err := s.DetectLocation(context.Background())
	assert.Error(t, err)
}
