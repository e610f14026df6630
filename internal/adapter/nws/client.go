// Package nws fetches active weather alerts for US coordinates from the
// National Weather Service point-based alert API.
package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/tempestwx/tempestd/internal/domain"
)

const providerName = "nws"

// Client queries api.weather.gov for active alerts at a point.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates an NWS alert client. The user agent is mandatory: the
// NWS API rejects requests without an identifying client string.
func NewClient(userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil

	return &Client{
		httpClient: rc.StandardClient(),
		baseURL:    "https://api.weather.gov",
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Fetch returns the active, unexpired alerts covering the coordinate.
// Failures are typed: request errors, non-success statuses, and malformed
// payloads all surface as *domain.ProviderError.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) ([]domain.Alert, error) {
	u := fmt.Sprintf("%s/alerts/active?point=%s,%s",
		c.baseURL,
		strconv.FormatFloat(lat, 'f', 4, 64),
		strconv.FormatFloat(lon, 'f', 4, 64),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, domain.NewProviderError(providerName, domain.ErrorNetwork, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewProviderError(providerName, domain.ErrorNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.NewProviderError(providerName, domain.ErrorProtocol,
			fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var payload alertsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, domain.NewProviderError(providerName, domain.ErrorParse, err)
	}

	alerts := make([]domain.Alert, 0, len(payload.Features))
	for _, f := range payload.Features {
		alert, ok := c.toAlert(f.Properties)
		if !ok {
			continue
		}
		if alert.Expired() {
			continue
		}
		alerts = append(alerts, alert)
	}

	c.logger.Debug("nws alerts fetched", "total", len(payload.Features), "active", len(alerts))
	return alerts, nil
}

func (c *Client) toAlert(p alertProperties) (domain.Alert, bool) {
	sent, err := time.Parse(time.RFC3339, p.Sent)
	if err != nil {
		c.logger.Warn("nws alert has unparseable sent timestamp, skipping",
			"id", p.ID, "sent", p.Sent)
		return domain.Alert{}, false
	}
	sent = sent.UTC()

	var expires time.Time
	if p.Expires != "" {
		if t, err := time.Parse(time.RFC3339, p.Expires); err == nil {
			expires = t.UTC()
		}
	}

	return domain.Alert{
		ID:          p.ID,
		Event:       p.Event,
		Severity:    domain.ParseSeverity(p.Severity),
		Urgency:     orUnknown(p.Urgency),
		Headline:    p.Headline,
		Description: p.Description,
		Instruction: p.Instruction,
		AreaDesc:    p.AreaDesc,
		Sent:        sent,
		Expires:     domain.EffectiveExpiry(sent, expires),
	}, true
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// NWS API GeoJSON response types.

type alertsResponse struct {
	Features []alertFeature `json:"features"`
}

type alertFeature struct {
	Properties alertProperties `json:"properties"`
}

type alertProperties struct {
	ID          string `json:"id"`
	Event       string `json:"event"`
	Severity    string `json:"severity"`
	Urgency     string `json:"urgency"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Instruction string `json:"instruction"`
	AreaDesc    string `json:"areaDesc"`
	Sent        string `json:"sent"`
	Expires     string `json:"expires"`
}
