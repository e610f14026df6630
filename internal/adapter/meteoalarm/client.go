// Package meteoalarm fetches weather alerts for European coordinates from
// the MeteoAlarm legacy Atom feeds, one feed per participating country.
package meteoalarm

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tempestwx/tempestd/internal/adapter/geocode"
	"github.com/tempestwx/tempestd/internal/domain"
)

const providerName = "meteoalarm"

// defaultCodenamesURL is the published EMMA_ID → region name table.
const defaultCodenamesURL = "https://raw.githubusercontent.com/meteoalarm/meteoalarm-codenames/master/meteoalarm-codenames.json"

// Client fetches and filters a country's MeteoAlarm Atom feed.
type Client struct {
	httpClient   *http.Client
	feedBaseURL  string
	codenamesURL string
	userAgent    string
	geocoder     geocode.ReverseGeocoder
	logger       *slog.Logger
}

// NewClient creates a MeteoAlarm client. The geocoder is used only for
// best-effort region resolution; pass a cached one.
func NewClient(geocoder geocode.ReverseGeocoder, userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		feedBaseURL:  "https://feeds.meteoalarm.org",
		codenamesURL: defaultCodenamesURL,
		userAgent:    userAgent,
		geocoder:     geocoder,
		logger:       logger,
	}
}

// Fetch returns the active alerts for a European coordinate. The country
// name selects the feed; countries MeteoAlarm does not cover yield an empty
// list without error. Feed fetch or parse failures surface as
// *domain.ProviderError; the region-resolution sub-step never fails the
// fetch.
func (c *Client) Fetch(ctx context.Context, lat, lon float64, countryName string) ([]domain.Alert, error) {
	info, ok := lookupFeed(countryName)
	if !ok {
		c.logger.Debug("country not covered by meteoalarm", "country", countryName)
		return nil, nil
	}

	regionID := c.resolveRegion(ctx, lat, lon, info.Code)
	if regionID != "" {
		c.logger.Debug("resolved meteoalarm region", "region", regionID, "country", countryName)
	}

	feed, err := c.fetchFeed(ctx, info.Slug)
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.Alert, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		// With a resolved region, entries carrying a different geocode are
		// for somewhere else in the country. Entries without a geocode are
		// always kept.
		if regionID != "" {
			if gc := entry.emmaID(); gc != "" && gc != regionID {
				continue
			}
		}

		alert := entry.toAlert()
		if alert.Expired() {
			continue
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func (c *Client) fetchFeed(ctx context.Context, slug string) (*atomFeed, error) {
	u := fmt.Sprintf("%s/feeds/meteoalarm-legacy-atom-%s", c.feedBaseURL, slug)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, domain.NewProviderError(providerName, domain.ErrorNetwork, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

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

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, domain.NewProviderError(providerName, domain.ErrorParse, err)
	}
	return &feed, nil
}

// Atom feed with CAP extension elements.

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID       string        `xml:"http://www.w3.org/2005/Atom id"`
	Title    string        `xml:"http://www.w3.org/2005/Atom title"`
	Event    string        `xml:"urn:oasis:names:tc:emergency:cap:1.2 event"`
	Severity string        `xml:"urn:oasis:names:tc:emergency:cap:1.2 severity"`
	Urgency  string        `xml:"urn:oasis:names:tc:emergency:cap:1.2 urgency"`
	Onset    string        `xml:"urn:oasis:names:tc:emergency:cap:1.2 onset"`
	Expires  string        `xml:"urn:oasis:names:tc:emergency:cap:1.2 expires"`
	AreaDesc string        `xml:"urn:oasis:names:tc:emergency:cap:1.2 areaDesc"`
	Geocodes []atomGeocode `xml:"urn:oasis:names:tc:emergency:cap:1.2 geocode"`
}

type atomGeocode struct {
	ValueName string `xml:"valueName"`
	Value     string `xml:"value"`
}

// emmaID returns the entry's EMMA_ID geocode value, or "".
func (e atomEntry) emmaID() string {
	for _, gc := range e.Geocodes {
		if gc.ValueName == "EMMA_ID" {
			return gc.Value
		}
	}
	return ""
}

// toAlert converts a feed entry to the unified model. The legacy feed
// format carries no description text.
func (e atomEntry) toAlert() domain.Alert {
	var sent time.Time
	if t, err := time.Parse(time.RFC3339, e.Onset); err == nil {
		sent = t.UTC()
	} else {
		sent = domain.Now().UTC()
	}

	var expires time.Time
	if t, err := time.Parse(time.RFC3339, e.Expires); err == nil {
		expires = t.UTC()
	}

	event := e.Event
	if event == "" {
		event = e.Title
	}

	return domain.Alert{
		ID:       e.ID,
		Event:    event,
		Severity: domain.ParseSeverity(e.Severity),
		Urgency:  e.Urgency,
		Headline: e.Title,
		AreaDesc: e.AreaDesc,
		Sent:     sent,
		Expires:  domain.EffectiveExpiry(sent, expires),
	}
}
