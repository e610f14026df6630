package nws

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

	"github.com/tempestwx/tempestd/internal/domain"
)

const testUserAgent = "(tempestd test)"

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		userAgent:  testUserAgent,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func frozenAt(t *testing.T, now time.Time) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func TestFetch_Success(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	frozenAt(t, now)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alerts/active", r.URL.Path)
		assert.Equal(t, "40.7128,-74.0060", r.URL.Query().Get("point"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/geo+json", r.Header.Get("Accept"))

		_, _ = w.Write([]byte(`{
			"features": [{
				"properties": {
					"id": "urn:oid:2.49.0.1.840.0.abc",
					"event": "Winter Storm Warning",
					"severity": "Severe",
					"urgency": "Expected",
					"headline": "Winter Storm Warning until 6 PM",
					"description": "Heavy snow expected.",
					"instruction": "Avoid travel.",
					"areaDesc": "New York County",
					"sent": "2026-03-15T10:00:00Z",
					"expires": "2026-03-15T18:00:00Z"
				}
			}]
		}`))
	}))
	defer srv.Close()

	alerts, err := testClient(srv.URL).Fetch(context.Background(), 40.7128, -74.0060)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	a := alerts[0]
	assert.Equal(t, "urn:oid:2.49.0.1.840.0.abc", a.ID)
	assert.Equal(t, "Winter Storm Warning", a.Event)
	assert.Equal(t, domain.SeveritySevere, a.Severity)
	assert.Equal(t, "Expected", a.Urgency)
	assert.Equal(t, "Winter Storm Warning until 6 PM", a.Headline)
	assert.Equal(t, "Heavy snow expected.", a.Description)
	assert.Equal(t, "Avoid travel.", a.Instruction)
	assert.Equal(t, "New York County", a.AreaDesc)
	assert.Equal(t, time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC), a.Sent)
	assert.Equal(t, time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC), a.Expires)
}

func TestFetch_MissingExpiresDefaultsTo24h(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	frozenAt(t, now)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"features": [{
				"properties": {
					"id": "a1",
					"event": "Flood Watch",
					"severity": "Moderate",
					"areaDesc": "Somewhere",
					"sent": "2026-03-15T11:00:00Z"
				}
			}]
		}`))
	}))
	defer srv.Close()

	alerts, err := testClient(srv.URL).Fetch(context.Background(), 30, -97)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, time.Date(2026, 3, 16, 11, 0, 0, 0, time.UTC), alerts[0].Expires)
	assert.Equal(t, "Unknown", alerts[0].Urgency)
}

func TestFetch_DropsExpired(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	frozenAt(t, now)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"features": [
				{"properties": {"id": "expired", "event": "Old", "areaDesc": "A",
					"sent": "2026-03-14T00:00:00Z", "expires": "2026-03-15T06:00:00Z"}},
				{"properties": {"id": "boundary", "event": "Edge", "areaDesc": "B",
					"sent": "2026-03-15T00:00:00Z", "expires": "2026-03-15T12:00:00Z"}},
				{"properties": {"id": "active", "event": "Current", "areaDesc": "C",
					"sent": "2026-03-15T00:00:00Z", "expires": "2026-03-15T23:00:00Z"}}
			]
		}`))
	}))
	defer srv.Close()

	alerts, err := testClient(srv.URL).Fetch(context.Background(), 30, -97)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "active", alerts[0].ID)
}

func TestFetch_SkipsUnparseableSent(t *testing.T) {
	frozenAt(t, time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"features": [
				{"properties": {"id": "bad", "event": "X", "areaDesc": "A", "sent": "not-a-time"}},
				{"properties": {"id": "good", "event": "Y", "areaDesc": "B", "sent": "2026-03-15T11:00:00Z"}}
			]
		}`))
	}))
	defer srv.Close()

	alerts, err := testClient(srv.URL).Fetch(context.Background(), 30, -97)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "good", alerts[0].ID)
}

func TestFetch_ProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("missing user agent"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Fetch(context.Background(), 30, -97)
	require.Error(t, err)

	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, domain.ErrorProtocol, perr.Kind)
	assert.Equal(t, "nws", perr.Provider)
}

func TestFetch_ParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Fetch(context.Background(), 30, -97)
	require.Error(t, err)

	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, domain.ErrorParse, perr.Kind)
}

func TestFetch_NetworkError(t *testing.T) {
	c := testClient("http://127.0.0.1:1")
	_, err := c.Fetch(context.Background(), 30, -97)
	require.Error(t, err)

	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, domain.ErrorNetwork, perr.Kind)
}
