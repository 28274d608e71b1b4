package reviewpage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reviews-backend/internal/components/chrono"
	"reviews-backend/internal/components/random"
	"reviews-backend/internal/components/telemetry"
	"reviews-backend/internal/reviews"

	"github.com/stretchr/testify/require"
)

const page = `<html><body><div class="Patient-Review"><ul>
<li><p><i class="fa fa-star"></i><i class="fa fa-star"></i><br>Jane<br>March 2023</p><p>Great laser work</p></li>
<li><p>Bob<br>May 2024</p></p></li>
</ul></div></body></html>`

func testClient(tel telemetry.API) *Client {
	normalizer := reviews.NewNormalizer(
		chrono.NewFixedImpl(reviews.DefaultReference),
		random.NewSeededImpl(1),
		tel,
	)
	opts := DefaultOptions()
	opts.CloudflareBypass = false
	opts.RequestsPerSecond = 0
	opts.Timeout = 5 * time.Second
	return NewClient(opts, reviews.NewExtractor(normalizer, tel), tel)
}

func TestScrape(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("user-agent")
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	defer server.Close()

	tel := telemetry.NewRecordingAPI()
	client := testClient(tel)

	records, err := client.Scrape(context.Background(), server.URL+"/patient-reviews.htm")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Jane", records[0].Username)
	require.Equal(t, 2.0, records[0].Rating)
	require.Equal(t, 22, records[0].MonthsAgo)
	require.Equal(t, "Laser Treatment", records[0].Title)
	require.Equal(t, DefaultUserAgent, userAgent)

	require.Empty(t, tel.Find(telemetry.LevelBroken, ""))
}

func TestScrapeErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(page))
	}))
	defer server.Close()

	tel := telemetry.NewRecordingAPI()
	client := testClient(tel)

	records, err := client.Scrape(context.Background(), server.URL)
	require.Error(t, err)
	require.Nil(t, records)
	require.Len(t, tel.Find(telemetry.LevelBroken, report_client_scrape), 1)
}

func TestScrapeTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	tel := telemetry.NewRecordingAPI()
	client := testClient(tel)

	records, err := client.Scrape(context.Background(), url)
	require.Error(t, err)
	require.Nil(t, records)
	require.Len(t, tel.Find(telemetry.LevelBroken, report_client_scrape), 1)
}

func TestScrapeRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	tel := telemetry.NewRecordingAPI()
	normalizer := reviews.NewNormalizer(chrono.NewFixedImpl(reviews.DefaultReference), random.NewSeededImpl(1), tel)
	opts := DefaultOptions()
	opts.CloudflareBypass = false
	client := NewClient(opts, reviews.NewExtractor(normalizer, tel), tel)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Scrape(ctx, server.URL)
	require.Error(t, err)
}
