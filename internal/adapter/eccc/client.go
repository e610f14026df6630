// Package eccc fetches Canadian weather alerts by crawling the Environment
// and Climate Change Canada datamart. Alerts are published as per-office
// CAP-XML files under dated hourly directories; the crawl lists hours, lists
// files, and keeps only documents whose polygon contains the requested point.
package eccc

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html"

	"github.com/tempestwx/tempestd/internal/domain"
)

const providerName = "eccc"

// ecccTimeLayout is the fixed-offset timestamp format used in datamart CAP
// documents.
const ecccTimeLayout = "2006-01-02T15:04:05-07:00"

// Client crawls dd.weather.gc.ca for CAP alert documents.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates an ECCC alert client.
func NewClient(userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil

	return &Client{
		httpClient: rc.StandardClient(),
		baseURL:    "https://dd.weather.gc.ca",
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Fetch returns the active alerts whose polygon contains the coordinate.
// The crawl is best-effort: individual listing or document failures are
// logged and skipped, and the returned error is always nil so partial data
// from the remaining offices still reaches the caller.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) ([]domain.Alert, error) {
	offices := officesFor(lat, lon)
	date := domain.Now().UTC().Format("20060102")

	// Offices crawl independently; results merge in office order so the
	// output is deterministic before deduplication.
	perOffice := make([][]domain.Alert, len(offices))
	var wg sync.WaitGroup
	for i, office := range offices {
		wg.Add(1)
		go func(i int, office string) {
			defer wg.Done()
			perOffice[i] = c.crawlOffice(ctx, date, office, lat, lon)
		}(i, office)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	var alerts []domain.Alert
	for _, batch := range perOffice {
		for _, a := range batch {
			key := a.Event + "|" + a.AreaDesc
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			alerts = append(alerts, a)
		}
	}

	c.logger.Debug("eccc crawl complete",
		"offices", offices, "alerts", len(alerts))
	return alerts, nil
}

// crawlOffice walks {date}/{office}/{hour}/ and collects matching alerts
// from every CAP file found.
func (c *Client) crawlOffice(ctx context.Context, date, office string, lat, lon float64) []domain.Alert {
	officeURL := fmt.Sprintf("%s/today/alerts/cap/%s/%s/", c.baseURL, date, office)

	hours, err := c.listLinks(ctx, officeURL)
	if err != nil {
		c.logger.Debug("eccc office listing failed", "office", office, "error", err)
		return nil
	}

	var alerts []domain.Alert
	for _, hour := range hours {
		if !strings.HasSuffix(hour, "/") {
			continue
		}
		hourURL := officeURL + hour

		files, err := c.listLinks(ctx, hourURL)
		if err != nil {
			c.logger.Debug("eccc hour listing failed", "url", hourURL, "error", err)
			continue
		}
		for _, file := range files {
			if !strings.HasSuffix(file, ".cap") {
				continue
			}
			doc, err := c.fetchDocument(ctx, hourURL+file)
			if err != nil {
				c.logger.Debug("eccc document fetch failed", "url", hourURL+file, "error", err)
				continue
			}
			if alert, ok := alertFromDocument(doc, lat, lon); ok {
				alerts = append(alerts, alert)
			}
		}
	}
	return alerts
}

// listLinks fetches a directory index page and returns the relative hrefs
// of its entries. Parent links and absolute URLs are dropped.
func (c *Client) listLinks(ctx context.Context, dirURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dirURL, nil)
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
		return nil, fmt.Errorf("listing %s: status %d", dirURL, resp.StatusCode)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing listing %s: %w", dirURL, err)
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				if href := cleanHref(attr.Val); href != "" {
					links = append(links, href)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return links, nil
}

// cleanHref keeps only plain relative entry links from a directory index.
func cleanHref(href string) string {
	if href == "" || href == "../" || href == ".." {
		return ""
	}
	if strings.HasPrefix(href, "/") || strings.HasPrefix(href, "?") || strings.Contains(href, "://") {
		return ""
	}
	return href
}
