package meteoalarm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempestwx/tempestd/internal/adapter/geocode"
	"github.com/tempestwx/tempestd/internal/domain"
)

type fakeGeocoder struct {
	place geocode.Place
	err   error
}

func (f *fakeGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (geocode.Place, error) {
	return f.place, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func frozenAt(t *testing.T, now time.Time) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })
}

const ukFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:cap="urn:oasis:names:tc:emergency:cap:1.2">
  <title>MeteoAlarm United Kingdom</title>
  <entry>
    <id>https://feeds.meteoalarm.org/uk/alert-1</id>
    <title>Yellow Wind Warning</title>
    <cap:event>Wind</cap:event>
    <cap:severity>Moderate</cap:severity>
    <cap:urgency>Future</cap:urgency>
    <cap:onset>2026-03-15T06:00:00+00:00</cap:onset>
    <cap:expires>2026-03-16T00:00:00+00:00</cap:expires>
    <cap:areaDesc>London &amp; South East England</cap:areaDesc>
    <cap:geocode>
      <valueName>EMMA_ID</valueName>
      <value>UK009</value>
    </cap:geocode>
  </entry>
  <entry>
    <id>https://feeds.meteoalarm.org/uk/alert-2</id>
    <title>Amber Rain Warning</title>
    <cap:event>Rain</cap:event>
    <cap:severity>Severe</cap:severity>
    <cap:urgency>Expected</cap:urgency>
    <cap:onset>2026-03-15T06:00:00+00:00</cap:onset>
    <cap:expires>2026-03-16T00:00:00+00:00</cap:expires>
    <cap:areaDesc>Orkney &amp; Shetland</cap:areaDesc>
    <cap:geocode>
      <valueName>EMMA_ID</valueName>
      <value>UK001</value>
    </cap:geocode>
  </entry>
  <entry>
    <id>https://feeds.meteoalarm.org/uk/alert-3</id>
    <title>National Fog Advisory</title>
    <cap:event>Fog</cap:event>
    <cap:severity>Minor</cap:severity>
    <cap:urgency>Immediate</cap:urgency>
    <cap:onset>2026-03-15T06:00:00+00:00</cap:onset>
    <cap:expires>2026-03-16T00:00:00+00:00</cap:expires>
    <cap:areaDesc>United Kingdom</cap:areaDesc>
  </entry>
  <entry>
    <id>https://feeds.meteoalarm.org/uk/alert-4</id>
    <title>Expired Snow Warning</title>
    <cap:event>Snow</cap:event>
    <cap:severity>Severe</cap:severity>
    <cap:urgency>Past</cap:urgency>
    <cap:onset>2026-03-14T00:00:00+00:00</cap:onset>
    <cap:expires>2026-03-15T00:00:00+00:00</cap:expires>
    <cap:areaDesc>London &amp; South East England</cap:areaDesc>
    <cap:geocode>
      <valueName>EMMA_ID</valueName>
      <value>UK009</value>
    </cap:geocode>
  </entry>
</feed>`

const ukCodenames = `{
	"UK001": "Orkney & Shetland",
	"UK009": "London & South East England",
	"FR012": "Île-de-France"
}`

// newTestClient wires a client against one httptest server hosting both the
// feed and the codename table.
func newTestClient(t *testing.T, geocoder geocode.ReverseGeocoder, feedXML, codenamesJSON string) (*Client, *int) {
	t.Helper()
	feedRequests := new(int)

	mux := http.NewServeMux()
	mux.HandleFunc("/feeds/", func(w http.ResponseWriter, r *http.Request) {
		*feedRequests++
		assert.Equal(t, "/feeds/meteoalarm-legacy-atom-united-kingdom", r.URL.Path)
		_, _ = w.Write([]byte(feedXML))
	})
	mux.HandleFunc("/codenames.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(codenamesJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &Client{
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		feedBaseURL:  srv.URL,
		codenamesURL: srv.URL + "/codenames.json",
		userAgent:    "(tempestd test)",
		geocoder:     geocoder,
		logger:       testLogger(),
	}, feedRequests
}

func TestFetch_FiltersByResolvedRegion(t *testing.T) {
	frozenAt(t, time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))

	geocoder := &fakeGeocoder{place: geocode.Place{City: "London", State: "England", Country: "United Kingdom"}}
	c, _ := newTestClient(t, geocoder, ukFeed, ukCodenames)

	alerts, err := c.Fetch(context.Background(), 51.5074, -0.1278, "United Kingdom")
	require.NoError(t, err)

	// The London candidate resolves to UK009: the UK001 entry is excluded,
	// the geocode-less national entry is kept, the expired entry dropped.
	require.Len(t, alerts, 2)
	assert.Equal(t, "https://feeds.meteoalarm.org/uk/alert-1", alerts[0].ID)
	assert.Equal(t, "Wind", alerts[0].Event)
	assert.Equal(t, domain.SeverityModerate, alerts[0].Severity)
	assert.Equal(t, "Yellow Wind Warning", alerts[0].Headline)
	assert.Empty(t, alerts[0].Description, "legacy feed carries no description")
	assert.Equal(t, "https://feeds.meteoalarm.org/uk/alert-3", alerts[1].ID)
}

func TestFetch_NoRegionResolvedIncludesAll(t *testing.T) {
	frozenAt(t, time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))

	// Geocoder failure must not fail the fetch; it only disables filtering.
	geocoder := &fakeGeocoder{err: errors.New("nominatim down")}
	c, _ := newTestClient(t, geocoder, ukFeed, ukCodenames)

	alerts, err := c.Fetch(context.Background(), 51.5074, -0.1278, "United Kingdom")
	require.NoError(t, err)
	assert.Len(t, alerts, 3, "all unexpired entries included without region filter")
}

func TestFetch_UnsupportedCountry(t *testing.T) {
	geocoder := &fakeGeocoder{}
	c, feedRequests := newTestClient(t, geocoder, ukFeed, ukCodenames)

	alerts, err := c.Fetch(context.Background(), 35.6762, 139.6503, "Japan")
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Zero(t, *feedRequests, "no feed request for uncovered countries")
}

func TestFetch_FeedErrorIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &Client{
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		feedBaseURL:  srv.URL,
		codenamesURL: srv.URL + "/codenames.json",
		userAgent:    "(tempestd test)",
		geocoder:     &fakeGeocoder{err: errors.New("skip region step")},
		logger:       testLogger(),
	}

	_, err := c.Fetch(context.Background(), 48.85, 2.35, "France")
	require.Error(t, err)

	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "meteoalarm", perr.Provider)
	assert.Equal(t, domain.ErrorProtocol, perr.Kind)
}

func TestFetch_MalformedFeedIsParseError(t *testing.T) {
	geocoder := &fakeGeocoder{err: errors.New("skip region step")}
	c, _ := newTestClient(t, geocoder, "this is not xml <<<", ukCodenames)

	_, err := c.Fetch(context.Background(), 51.5, -0.12, "United Kingdom")
	require.Error(t, err)

	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, domain.ErrorParse, perr.Kind)
}

func TestLookupFeed(t *testing.T) {
	tests := []struct {
		name     string
		wantSlug string
		wantCode string
		wantOK   bool
	}{
		{"United Kingdom", "united-kingdom", "UK", true},
		{"France", "france", "FR", true},
		{"Germany", "germany", "DE", true},
		{"Czech Republic", "czechia", "CZ", true},
		{"Norway", "norway", "NO", true},
		{"Japan", "", "", false},
		{"United States", "", "", false},
		{"", "", "", false},
		{"Atlantis", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := lookupFeed(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantSlug, info.Slug)
				assert.Equal(t, tt.wantCode, info.Code)
			}
		})
	}
}

func TestResolveRegion_FirstMatchDeterministic(t *testing.T) {
	geocoder := &fakeGeocoder{place: geocode.Place{County: "Shetland"}}
	c, _ := newTestClient(t, geocoder, ukFeed, ukCodenames)

	// "Shetland" is a substring of "Orkney & Shetland": bidirectional
	// containment matches it to UK001.
	for i := 0; i < 3; i++ {
		assert.Equal(t, "UK001", c.resolveRegion(context.Background(), 60.15, -1.15, "UK"))
	}
}

func TestResolveRegion_IgnoresOtherCountryIdentifiers(t *testing.T) {
	geocoder := &fakeGeocoder{place: geocode.Place{State: "Île-de-France"}}
	c, _ := newTestClient(t, geocoder, ukFeed, ukCodenames)

	// FR012 matches by name but carries the wrong country prefix for UK.
	assert.Equal(t, "", c.resolveRegion(context.Background(), 48.85, 2.35, "UK"))
}
