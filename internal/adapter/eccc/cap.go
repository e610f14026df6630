package eccc

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tempestwx/tempestd/internal/domain"
)

// capDocument is one CAP alert file from the datamart. ECCC publishes every
// alert with parallel English and French info blocks.
type capDocument struct {
	Identifier string    `xml:"identifier"`
	Status     string    `xml:"status"`
	MsgType    string    `xml:"msgType"`
	Sent       string    `xml:"sent"`
	Info       []capInfo `xml:"info"`
}

type capInfo struct {
	Language    string    `xml:"language"`
	Event       string    `xml:"event"`
	Urgency     string    `xml:"urgency"`
	Severity    string    `xml:"severity"`
	Expires     string    `xml:"expires"`
	Headline    string    `xml:"headline"`
	Description string    `xml:"description"`
	Instruction string    `xml:"instruction"`
	Area        []capArea `xml:"area"`
}

type capArea struct {
	AreaDesc string `xml:"areaDesc"`
	Polygon  string `xml:"polygon"`
}

func (c *Client) fetchDocument(ctx context.Context, url string) (*capDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	var doc capDocument
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	return &doc, nil
}

// alertFromDocument converts a CAP document to an Alert when it is an
// actual, uncancelled, unexpired warning whose polygon contains the point.
func alertFromDocument(doc *capDocument, lat, lon float64) (domain.Alert, bool) {
	if doc.Status != "Actual" || doc.MsgType == "Cancel" {
		return domain.Alert{}, false
	}

	info, ok := englishInfo(doc.Info)
	if !ok {
		return domain.Alert{}, false
	}

	area, ok := containingArea(info.Area, lat, lon)
	if !ok {
		return domain.Alert{}, false
	}

	sent, err := time.Parse(ecccTimeLayout, doc.Sent)
	if err != nil {
		sent = domain.Now()
	}
	var expires time.Time
	if t, err := time.Parse(ecccTimeLayout, info.Expires); err == nil {
		expires = t
	}
	expires = domain.EffectiveExpiry(sent, expires)
	if !expires.After(domain.Now()) {
		return domain.Alert{}, false
	}

	urgency := info.Urgency
	if urgency == "" {
		urgency = "Unknown"
	}

	return domain.Alert{
		ID:          doc.Identifier,
		Event:       info.Event,
		Severity:    domain.ParseSeverity(info.Severity),
		Urgency:     urgency,
		Headline:    info.Headline,
		Description: info.Description,
		Instruction: info.Instruction,
		AreaDesc:    area.AreaDesc,
		Sent:        sent,
		Expires:     expires,
	}, true
}

// englishInfo prefers the en-CA block, falling back to the first block.
func englishInfo(infos []capInfo) (capInfo, bool) {
	if len(infos) == 0 {
		return capInfo{}, false
	}
	for _, info := range infos {
		if strings.HasPrefix(strings.ToLower(info.Language), "en") {
			return info, true
		}
	}
	return infos[0], true
}

// containingArea returns the first area whose polygon contains the point.
// Areas without a parseable polygon never match.
func containingArea(areas []capArea, lat, lon float64) (capArea, bool) {
	for _, area := range areas {
		if area.Polygon == "" {
			continue
		}
		poly, err := domain.ParsePolygon(area.Polygon)
		if err != nil {
			continue
		}
		if poly.Contains(lat, lon) {
			return area, true
		}
	}
	return capArea{}, false
}
