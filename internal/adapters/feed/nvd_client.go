package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bioshield/lens/internal/core/domain"
)

const (
	// feedPageLimit is the maximum page size the NVD API accepts.
	feedPageLimit = 2000

	// publicationWindow bounds each fetch to recently published advisories.
	publicationWindow = 30 * 24 * time.Hour

	// nvdTimestampLayout is the pubStartDate format the 2.0 API expects.
	nvdTimestampLayout = "2006-01-02T15:04:05.000"
)

// NVDClient implements ports.FeedClient against the NVD CVE 2.0 REST API.
type NVDClient struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewNVDClient creates a feed client for the given base URL.
func NewNVDClient(baseURL string) *NVDClient {
	return &NVDClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		now: time.Now,
	}
}

// nvdResponse mirrors the feed's JSON envelope.
type nvdResponse struct {
	ResultsPerPage  int                `json:"resultsPerPage"`
	StartIndex      int                `json:"startIndex"`
	TotalResults    int                `json:"totalResults"`
	Vulnerabilities []nvdVulnerability `json:"vulnerabilities"`
}

type nvdVulnerability struct {
	CVE nvdCVE `json:"cve"`
}

type nvdCVE struct {
	ID           string           `json:"id"`
	Published    string           `json:"published"`
	Descriptions []nvdDescription `json:"descriptions"`
	Metrics      nvdMetrics       `json:"metrics"`
}

type nvdDescription struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

type nvdMetrics struct {
	CvssMetricV31 []nvdCvssMetric `json:"cvssMetricV31"`
	CvssMetricV30 []nvdCvssMetric `json:"cvssMetricV30"`
	CvssMetricV2  []nvdCvssMetric `json:"cvssMetricV2"`
}

type nvdCvssMetric struct {
	CvssData nvdCvssData `json:"cvssData"`
}

type nvdCvssData struct {
	BaseScore float64 `json:"baseScore"`
}

// Fetch retrieves advisories published within the last 30 days, capped at
// maxResults and the feed's own page limit. A non-empty keywordFilter is
// passed through as a server-side keyword search.
func (c *NVDClient) Fetch(ctx context.Context, maxResults int, keywordFilter string) ([]domain.FeedRecord, error) {
	perPage := maxResults
	if perPage > feedPageLimit {
		perPage = feedPageLimit
	}

	params := url.Values{}
	params.Set("resultsPerPage", fmt.Sprintf("%d", perPage))
	params.Set("pubStartDate", c.now().UTC().Add(-publicationWindow).Format(nvdTimestampLayout))
	if keywordFilter != "" {
		params.Set("keywordSearch", keywordFilter)
	}

	reqURL := c.baseURL + "?" + params.Encode()
	slog.Debug("Fetching vulnerability feed", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", domain.ErrFeedUnavailable, err)
	}
	req.Header.Set("User-Agent", "BioShieldLens/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrFeedUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrFeedUnavailable, err)
	}

	var parsed nvdResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", domain.ErrFeedUnavailable, err)
	}

	records := make([]domain.FeedRecord, 0, len(parsed.Vulnerabilities))
	for _, item := range parsed.Vulnerabilities {
		if item.CVE.ID == "" {
			continue
		}
		if len(records) >= maxResults {
			break
		}
		records = append(records, toFeedRecord(item.CVE))
	}

	return records, nil
}

func toFeedRecord(cve nvdCVE) domain.FeedRecord {
	rec := domain.FeedRecord{
		ID:        cve.ID,
		Published: parsePublished(cve.Published),
	}
	for _, d := range cve.Descriptions {
		rec.Descriptions = append(rec.Descriptions, domain.FeedDescription{Lang: d.Lang, Value: d.Value})
	}
	for _, m := range cve.Metrics.CvssMetricV31 {
		rec.ScoresV31 = append(rec.ScoresV31, m.CvssData.BaseScore)
	}
	for _, m := range cve.Metrics.CvssMetricV30 {
		rec.ScoresV30 = append(rec.ScoresV30, m.CvssData.BaseScore)
	}
	for _, m := range cve.Metrics.CvssMetricV2 {
		rec.ScoresV2 = append(rec.ScoresV2, m.CvssData.BaseScore)
	}
	return rec
}

// parsePublished converts the feed's published timestamp. The 2.0 API
// reports fractional seconds without a zone; RFC3339 is accepted for
// robustness. Returns the zero time when absent or malformed.
func parsePublished(published string) time.Time {
	if published == "" {
		return time.Time{}
	}
	for _, layout := range []string{nvdTimestampLayout, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, published); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
