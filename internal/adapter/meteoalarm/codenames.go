package meteoalarm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// resolveRegion determines the EMMA_ID administrative-region identifier for
// a coordinate, so feed entries can be filtered to the user's region rather
// than the whole country. It is best-effort: any failure returns "" and the
// caller includes all entries unfiltered.
//
// Candidate locality names (city, town, county, state) come from the
// reverse geocoder; they are fuzzy-matched against the global codename
// table restricted to identifiers carrying the country's code prefix.
// Matching is case-insensitive substring containment in either direction,
// which can false-positive on short names; identifiers are scanned in
// sorted order so the first match is at least deterministic.
func (c *Client) resolveRegion(ctx context.Context, lat, lon float64, code string) string {
	place, err := c.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		c.logger.Debug("region reverse geocode failed, skipping region filter", "error", err)
		return ""
	}
	candidates := place.Candidates()
	if len(candidates) == 0 {
		return ""
	}

	codenames, err := c.fetchCodenames(ctx)
	if err != nil {
		c.logger.Debug("codename table fetch failed, skipping region filter", "error", err)
		return ""
	}

	ids := make([]string, 0, len(codenames))
	for id := range codenames {
		if strings.HasPrefix(id, code) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, candidate := range candidates {
		cand := strings.ToLower(candidate)
		for _, id := range ids {
			name := strings.ToLower(codenames[id])
			if name == "" {
				continue
			}
			if strings.Contains(name, cand) || strings.Contains(cand, name) {
				return id
			}
		}
	}
	return ""
}

// fetchCodenames downloads the global EMMA_ID → region name table.
func (c *Client) fetchCodenames(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.codenamesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("codenames request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("codenames: status %d", resp.StatusCode)
	}

	var codenames map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&codenames); err != nil {
		return nil, fmt.Errorf("decode codenames: %w", err)
	}
	return codenames, nil
}
