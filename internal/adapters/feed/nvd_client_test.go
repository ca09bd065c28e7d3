package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioshield/lens/internal/core/domain"
)

const sampleResponse = `{
	"resultsPerPage": 2,
	"startIndex": 0,
	"totalResults": 2,
	"vulnerabilities": [
		{
			"cve": {
				"id": "CVE-2026-1111",
				"published": "2026-08-01T10:30:00.000",
				"descriptions": [
					{"lang": "es", "value": "Fallo en el portal del hospital"},
					{"lang": "en", "value": "Hospital portal flaw"}
				],
				"metrics": {
					"cvssMetricV31": [{"cvssData": {"baseScore": 9.1}}],
					"cvssMetricV2": [{"cvssData": {"baseScore": 7.5}}]
				}
			}
		},
		{
			"cve": {
				"id": "CVE-2026-2222",
				"published": "not-a-timestamp",
				"descriptions": [{"lang": "en", "value": "Legacy lab device overflow"}],
				"metrics": {}
			}
		}
	]
}`

func newTestClient(ts *httptest.Server) *NVDClient {
	client := NewNVDClient(ts.URL)
	client.httpClient = ts.Client()
	client.now = func() time.Time { return time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC) }
	return client
}

func TestFetchParsesRecords(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleResponse))
	}))
	defer ts.Close()

	records, err := newTestClient(ts).Fetch(context.Background(), 100, "")
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "CVE-2026-1111", first.ID)
	desc, ok := first.EnglishDescription()
	require.True(t, ok)
	assert.Equal(t, "Hospital portal flaw", desc)
	assert.Equal(t, []float64{9.1}, first.ScoresV31)
	assert.Empty(t, first.ScoresV30)
	assert.Equal(t, []float64{7.5}, first.ScoresV2)
	assert.Equal(t, time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC), first.Published)

	second := records[1]
	assert.True(t, second.Published.IsZero(), "unparseable timestamps surface as zero time")
	assert.Empty(t, second.ScoresV31)
}

func TestFetchQueryParameters(t *testing.T) {
	var query url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{"vulnerabilities": []}`))
	}))
	defer ts.Close()

	_, err := newTestClient(ts).Fetch(context.Background(), 50, "hospital")
	require.NoError(t, err)

	assert.Equal(t, "50", query.Get("resultsPerPage"))
	assert.Equal(t, "hospital", query.Get("keywordSearch"))
	// Window start is 30 days before the injected clock.
	assert.Equal(t, "2026-07-29T00:00:00.000", query.Get("pubStartDate"))
}

func TestFetchCapsPageSize(t *testing.T) {
	var query url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{"vulnerabilities": []}`))
	}))
	defer ts.Close()

	_, err := newTestClient(ts).Fetch(context.Background(), 10000, "")
	require.NoError(t, err)
	assert.Equal(t, "2000", query.Get("resultsPerPage"))
	assert.Empty(t, query.Get("keywordSearch"))
}

func TestFetchTruncatesToMaxResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleResponse))
	}))
	defer ts.Close()

	records, err := newTestClient(ts).Fetch(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFetchNon200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).Fetch(context.Background(), 10, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFeedUnavailable))
}

func TestFetchMalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"vulnerabilities": [`))
	}))
	defer ts.Close()

	_, err := newTestClient(ts).Fetch(context.Background(), 10, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFeedUnavailable))
}

func TestFetchConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	client := NewNVDClient(ts.URL)
	_, err := client.Fetch(context.Background(), 10, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFeedUnavailable))
}

func TestParsePublishedLayouts(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2026-08-01T10:30:00.000", time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)},
		{"2026-08-01T10:30:00Z", time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)},
		{"2026-08-01T10:30:00", time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)},
		{"", time.Time{}},
		{"garbage", time.Time{}},
	}
	for _, tc := range cases {
		got := parsePublished(tc.in)
		if !got.Equal(tc.want) {
			t.Errorf("parsePublished(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
