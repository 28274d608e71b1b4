package livesession

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"reviews-backend/internal/components/chrono"
	"reviews-backend/internal/components/random"
	"reviews-backend/internal/components/telemetry"
	"reviews-backend/internal/reviews"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const livePage = `<html><body>
<div class="WMbnJf gws-localreviews__google-review">
	<div class="TSUbDb"><a>Jane Doe</a></div>
	<span class="z3HNkc" aria-label="Rated 5.0 out of 5,"></span>
	<span class="dehysf">2 years ago</span>
	<span class="Jtu6Td">Amazing <b>botox</b> results</span>
</div>
<div class="WMbnJf gws-localreviews__google-review">
	<div class="TSUbDb">Bob</div>
	<span class="z3HNkc" aria-label="Rated 4.0 out of 5,"></span>
	<span class="dehysf">a month ago</span>
	<span class="Jtu6Td">Pretty good</span>
</div>
<div class="WMbnJf gws-localreviews__google-review">
	<div class="TSUbDb">No rating</div>
	<span class="dehysf">a week ago</span>
	<span class="Jtu6Td">Hmm</span>
</div>
<div class="WMbnJf gws-localreviews__google-review">
	<div class="TSUbDb">Ana</div>
	<span class="z3HNkc" aria-label="Rated 5.0 out of 5,"></span>
	<span class="dehysf">3 days ago</span>
	<span class="Jtu6Td">  </span>
</div>
</body></html>`

type fakePage struct {
	mutex     sync.Mutex
	gotoErr   error
	content   string
	heights   []float64
	visited   []string
	endpoints []string
	scrolls   int
}

func (p *fakePage) Goto(url string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.visited = append(p.visited, url)
	return p.gotoErr
}

func (p *fakePage) Evaluate(script string, arg any) (any, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if script == scrollScript {
		height := p.heights[min(p.scrolls, len(p.heights)-1)]
		p.scrolls++
		return height, nil
	}
	p.endpoints = append(p.endpoints, arg.(map[string]any)["endpoint"].(string))
	return true, nil
}

func (p *fakePage) Content() (string, error) {
	return p.content, nil
}

type fakeBrowser struct {
	page   *fakePage
	closed bool
}

func (b *fakeBrowser) NewPage() (Page, error) {
	return b.page, nil
}

func (b *fakeBrowser) Close() error {
	b.closed = true
	return nil
}

type fakeLauncher struct {
	browser *fakeBrowser
	err     error
}

func (l fakeLauncher) Launch(ctx context.Context) (Browser, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.browser, nil
}

func testAdapter(opts Options, launcher Launcher) (*Adapter, *Registry, *telemetry.RecordingAPI) {
	tel := telemetry.NewRecordingAPI()
	now := time.Date(2025, time.January, 30, 0, 0, 0, 0, time.UTC)
	normalizer := reviews.NewNormalizer(chrono.NewFixedImpl(now), random.NewSeededImpl(3), tel)
	registry := NewRegistry()
	if opts.URL == "" {
		opts.URL = "https://example.com/reviews"
	}
	return NewAdapter(opts, launcher, registry, reviews.NewExtractor(normalizer, tel), tel), registry, tel
}

// completeWhenActive signals the session as soon as the adapter has begun one.
func completeWhenActive(t *testing.T, registry *Registry) {
	go func() {
		for i := 0; i < 500; i++ {
			id, ok := registry.Active()
			if ok {
				err := registry.Complete(id)
				if err != nil {
					t.Error(err)
				}
				return
			}
			time.Sleep(2 * time.Millisecond)
		}
	}()
}

func TestCapture(t *testing.T) {
	page := &fakePage{content: livePage}
	browser := &fakeBrowser{page: page}
	opts := DefaultOptions()
	opts.Timeout = 5 * time.Second

	adapter, registry, tel := testAdapter(opts, fakeLauncher{browser: browser})
	completeWhenActive(t, registry)

	records, err := adapter.Capture(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1)
	record := records[0]
	diff := cmp.Diff(reviews.Record{
		Username:   "Jane Doe",
		Review:     "Amazing botox results",
		Rating:     5,
		MonthsAgo:  24,
		TimeText:   "2 years ago",
		Title:      "Botox Treatment",
		ReviewDate: record.ReviewDate,
	}, record)
	if diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, 2023, record.ReviewDate.Year)
	require.Equal(t, 1, record.ReviewDate.Month)

	require.True(t, browser.closed)
	require.Equal(t, []string{"https://example.com/reviews"}, page.visited)
	require.Len(t, page.endpoints, 1)
	require.True(t, strings.HasPrefix(page.endpoints[0], "http://localhost:5000/api/scraping-done?session="))
	require.Zero(t, page.scrolls)

	// the review without a rating element is reported and skipped
	require.Len(t, tel.Find(telemetry.LevelWarning, report_adapter_record), 1)

	_, active := registry.Active()
	require.False(t, active)
}

func TestCaptureMinRating(t *testing.T) {
	page := &fakePage{content: livePage}
	opts := DefaultOptions()
	opts.MinRating = 4

	adapter, registry, _ := testAdapter(opts, fakeLauncher{browser: &fakeBrowser{page: page}})
	completeWhenActive(t, registry)

	records, err := adapter.Capture(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Bob", records[1].Username)
	require.Equal(t, 1, records[1].MonthsAgo)
	require.Equal(t, "Great Experience", records[1].Title)
}

func TestCaptureScroll(t *testing.T) {
	page := &fakePage{content: livePage, heights: []float64{1000, 2000, 2000}}
	opts := DefaultOptions()
	opts.MaxScrolls = 10
	opts.ScrollDelay = time.Millisecond

	adapter, registry, _ := testAdapter(opts, fakeLauncher{browser: &fakeBrowser{page: page}})
	completeWhenActive(t, registry)

	_, err := adapter.Capture(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, page.scrolls)
}

func TestCaptureGotoFailure(t *testing.T) {
	gotoErr := errors.New("net::ERR_NAME_NOT_RESOLVED")
	browser := &fakeBrowser{page: &fakePage{gotoErr: gotoErr}}

	adapter, registry, tel := testAdapter(DefaultOptions(), fakeLauncher{browser: browser})

	records, err := adapter.Capture(context.Background())
	require.True(t, errors.Is(err, gotoErr))
	require.Nil(t, records)
	require.True(t, browser.closed)
	require.Len(t, tel.Find(telemetry.LevelBroken, report_adapter_capture), 1)

	_, active := registry.Active()
	require.False(t, active)
}

func TestCaptureLaunchFailure(t *testing.T) {
	launchErr := errors.New("no chromium")
	adapter, registry, _ := testAdapter(DefaultOptions(), fakeLauncher{err: launchErr})

	_, err := adapter.Capture(context.Background())
	require.True(t, errors.Is(err, launchErr))

	_, active := registry.Active()
	require.False(t, active)
}

func TestCaptureTimeout(t *testing.T) {
	browser := &fakeBrowser{page: &fakePage{content: livePage}}
	opts := DefaultOptions()
	opts.Timeout = 20 * time.Millisecond

	adapter, _, _ := testAdapter(opts, fakeLauncher{browser: browser})

	_, err := adapter.Capture(context.Background())
	require.True(t, errors.Is(err, ErrSessionTimeout))
	require.True(t, browser.closed)
}

func TestCaptureSingleSession(t *testing.T) {
	opts := DefaultOptions()
	opts.Timeout = 5 * time.Second
	adapter, registry, _ := testAdapter(opts, fakeLauncher{browser: &fakeBrowser{page: &fakePage{content: livePage}}})

	first, err := registry.Begin()
	require.NoError(t, err)

	_, err = adapter.Capture(context.Background())
	require.True(t, errors.Is(err, ErrSessionActive))

	registry.End(first)
}

func TestParseAriaRating(t *testing.T) {
	rating, err := parseAriaRating("Rated 4.0 out of 5,")
	require.NoError(t, err)
	require.Equal(t, 4.0, rating)

	_, err = parseAriaRating("Rated")
	require.Error(t, err)
	_, err = parseAriaRating("Rated four out of 5")
	require.Error(t, err)
}

func TestCompletionEndpoint(t *testing.T) {
	require.Equal(
		t,
		"http://localhost:5000/api/scraping-done?session=a+b",
		CompletionEndpoint("http://localhost:5000/", "a b"),
	)
}
