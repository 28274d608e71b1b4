// Package reviewpage fetches a static review page over HTTP and extracts the
// records on it.
package reviewpage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"reviews-backend/internal/components/assert"
	"reviews-backend/internal/components/telemetry"
	"reviews-backend/internal/reviews"
	"reviews-backend/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("reviews.scrapers.reviewpage")

const (
	report_client_scrape = "client.scrape"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond limits outgoing requests, 0 disables the limit.
	RequestsPerSecond float64
	CloudflareBypass  bool
	// Dump receives every raw request/response pair when set.
	Dump restyutil.Output
}

func DefaultOptions() Options {
	return Options{
		UserAgent:         DefaultUserAgent,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 2,
		CloudflareBypass:  true,
	}
}

type Client struct {
	Http *resty.Client

	extractor reviews.Extractor
	tel       telemetry.API
}

func NewClient(opts Options, extractor reviews.Extractor, tel telemetry.API) *Client {
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("reviewpage", tel)

	httpClient := resty.New()
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	if opts.UserAgent != "" {
		httpClient.SetHeader("user-agent", opts.UserAgent)
	}
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	httpClient.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	if opts.RequestsPerSecond > 0 {
		// max burst >= 2 just means that no requests will be dropped
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 2)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)
	if opts.Dump != nil {
		restyutil.DumpResponses(httpClient, opts.Dump)
	}

	return &Client{
		Http:      httpClient,
		extractor: extractor,
		tel:       tel,
	}
}

// Fetch downloads and parses pageUrl. Transport failures and error statuses
// are both returned as errors.
func (c *Client) Fetch(ctx context.Context, pageUrl string) (*goquery.Document, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(pageUrl)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageUrl, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", pageUrl, res.Status())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageUrl, err)
	}
	return doc, nil
}

// Scrape fetches pageUrl and extracts its records. Any fetch failure yields
// no records at all.
func (c *Client) Scrape(ctx context.Context, pageUrl string) ([]reviews.Record, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()
	span.SetAttributes(attribute.String("url", pageUrl))

	doc, err := c.Fetch(ctx, pageUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch review page")
		c.tel.ReportBroken(report_client_scrape, err)
		return nil, err
	}

	records := c.extractor.Extract(doc)
	span.SetAttributes(attribute.Int("records", len(records)))
	return records, nil
}
