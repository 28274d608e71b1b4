// Package livesession captures reviews from a page in a real browser after a
// person has prepared it (scrolled, expanded reviews) and signalled that it
// is ready.
package livesession

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reviews-backend/internal/components/assert"
	"reviews-backend/internal/components/telemetry"
	"reviews-backend/internal/reviews"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("reviews.scrapers.livesession")

const (
	report_adapter_capture = "adapter.capture"
	report_adapter_panel   = "adapter.inject-panel"
	report_adapter_scroll  = "adapter.scroll"
	report_adapter_close   = "adapter.close"
	report_adapter_record  = "adapter.record"
	report_adapter_records = "adapter.records"
)

type Options struct {
	URL string
	// CallbackBase is the base url of the server receiving the completion
	// signal, ex. "http://localhost:5000".
	CallbackBase string
	// Timeout bounds the wait for the completion signal.
	Timeout time.Duration
	// MinRating drops reviews rated below it.
	MinRating float64
	// MaxScrolls is how many times the page is scrolled to the bottom to load
	// more reviews before waiting, 0 leaves scrolling to the person.
	MaxScrolls  int
	ScrollDelay time.Duration
	Selectors   Selectors
}

func DefaultOptions() Options {
	return Options{
		CallbackBase: "http://localhost:5000",
		Timeout:      10 * time.Minute,
		MinRating:    5,
		ScrollDelay:  2 * time.Second,
		Selectors:    DefaultSelectors(),
	}
}

type Adapter struct {
	opts      Options
	launcher  Launcher
	registry  *Registry
	extractor reviews.Extractor
	tel       telemetry.API
}

func NewAdapter(
	opts Options,
	launcher Launcher,
	registry *Registry,
	extractor reviews.Extractor,
	tel telemetry.API,
) *Adapter {
	assert.NotNil(launcher)
	assert.NotNil(registry)
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.URL)

	return &Adapter{
		opts:      opts,
		launcher:  launcher,
		registry:  registry,
		extractor: extractor,
		tel:       telemetry.NewScopedAPI("livesession", tel),
	}
}

// Complete forwards a completion signal to the registry.
func (a *Adapter) Complete(sessionId string) error {
	return a.registry.Complete(sessionId)
}

func (a *Adapter) injectPanel(page Page, sessionId string) {
	_, err := page.Evaluate(controlPanelScript, map[string]any{
		"endpoint": CompletionEndpoint(a.opts.CallbackBase, sessionId),
	})
	if err != nil {
		a.tel.ReportWarning(report_adapter_panel, err)
		return
	}
	a.tel.ReportDebug("control panel injected", "session", sessionId)
}

func heightOf(value any) float64 {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return -1
}

// scroll keeps scrolling to the bottom until the page stops growing or
// MaxScrolls is reached.
func (a *Adapter) scroll(ctx context.Context, page Page) {
	last := -1.0
	for i := 0; i < a.opts.MaxScrolls; i++ {
		value, err := page.Evaluate(scrollScript, nil)
		if err != nil {
			a.tel.ReportWarning(report_adapter_scroll, err)
			return
		}
		height := heightOf(value)
		if height == last {
			return
		}
		last = height
		a.tel.ReportDebug("scrolled", "scroll", i+1, "max", a.opts.MaxScrolls)

		select {
		case <-ctx.Done():
			return
		case <-time.After(a.opts.ScrollDelay):
		}
	}
}

// Capture opens the page in a new browser, waits for the completion signal
// and returns the reviews found on the page at that moment. The browser is
// closed on every path.
func (a *Adapter) Capture(ctx context.Context) (records []reviews.Record, err error) {
	ctx, span := tracer.Start(ctx, "Capture")
	defer span.End()
	span.SetAttributes(attribute.String("url", a.opts.URL))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "live capture failed")
			a.tel.ReportBroken(report_adapter_capture, err)
		}
	}()

	session, err := a.registry.Begin()
	if err != nil {
		return nil, err
	}
	defer a.registry.End(session)
	span.SetAttributes(attribute.String("session", session.ID))

	browser, err := a.launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("live capture: %w", err)
	}
	defer func() {
		closeErr := browser.Close()
		if closeErr != nil {
			a.tel.ReportWarning(report_adapter_close, closeErr)
		}
	}()

	page, err := browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("live capture: new page: %w", err)
	}
	err = page.Goto(a.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("live capture: goto %s: %w", a.opts.URL, err)
	}

	a.injectPanel(page, session.ID)
	if a.opts.MaxScrolls > 0 {
		a.scroll(ctx, page)
	}

	a.tel.ReportDebug("waiting for completion", "session", session.ID)
	err = session.Await(ctx, a.opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("live capture: %w", err)
	}

	content, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("live capture: read page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("live capture: parse page: %w", err)
	}

	records = a.extract(doc)
	a.tel.ReportCount(report_adapter_records, int64(len(records)))
	span.SetAttributes(attribute.Int("records", len(records)))
	return records, nil
}
