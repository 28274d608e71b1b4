// Package service exposes review capture over HTTP.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"reviews-backend/internal/components/assert"
	"reviews-backend/internal/components/chrono"
	"reviews-backend/internal/components/telemetry"
	"reviews-backend/internal/reviews"
	"reviews-backend/internal/scrapers/livesession"
	"reviews-backend/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	report_service_live     = "service.live-reviews"
	report_service_page     = "service.page-reviews"
	report_service_done     = "service.scraping-done"
	report_service_persist  = "service.persist"
	report_service_response = "service.response"
	report_service_request  = "service.request"
)

// Capturer runs live sessions.
//
// note: fault injection point
type Capturer interface {
	Capture(ctx context.Context) ([]reviews.Record, error)
	Complete(sessionId string) error
}

// PageScraper scrapes static review pages.
//
// note: fault injection point
type PageScraper interface {
	Scrape(ctx context.Context, pageUrl string) ([]reviews.Record, error)
}

// Archiver keeps a history of scrape runs.
type Archiver interface {
	Push(ctx context.Context, req store.PushRequest) (int64, error)
}

type Options struct {
	// OutputPath receives every successful result, empty disables writing.
	OutputPath string
	// PageURL is scraped by /api/page-reviews when no url is given.
	PageURL string
	// PageTimeout bounds static scrapes, live captures have their own
	// timeout.
	PageTimeout time.Duration
}

type Service struct {
	opts    Options
	live    Capturer
	pages   PageScraper
	archive Archiver
	time    chrono.TimeAPI
	metrics *Metrics
	tel     telemetry.API

	// guards OutputPath, live and page results may finish together
	outputMutex sync.Mutex
}

// NewService wires the handlers, archive may be nil.
func NewService(
	opts Options,
	live Capturer,
	pages PageScraper,
	archive Archiver,
	clock chrono.TimeAPI,
	metrics *Metrics,
	tel telemetry.API,
) *Service {
	assert.NotNil(live)
	assert.NotNil(pages)
	assert.NotNil(clock)
	assert.NotNil(metrics)
	assert.NotNil(tel)

	return &Service{
		opts:    opts,
		live:    live,
		pages:   pages,
		archive: archive,
		time:    clock,
		metrics: metrics,
		tel:     telemetry.NewScopedAPI("service", tel),
	}
}

func (s *Service) Router() http.Handler {
	m := chi.NewRouter()

	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(s.metrics.Middleware)
	m.Use(s.logger)
	// the injected panel posts from whatever origin the captured page has
	m.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	m.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	m.Handle("/metrics", s.metrics.Handler())

	m.Get("/api/reviews", s.liveReviews)
	m.Post("/api/scraping-done", s.scrapingDone)
	m.Group(func(r chi.Router) {
		if s.opts.PageTimeout > 0 {
			r.Use(chimw.Timeout(s.opts.PageTimeout))
		}
		r.Get("/api/page-reviews", s.pageReviews)
	})

	return m
}

func (s *Service) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		s.tel.ReportDebug(
			report_service_request,
			"route", routeOf(r),
			"method", r.Method,
			"status", sw.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type recordsEnvelope struct {
	Success bool             `json:"success"`
	Reviews []reviews.Record `json:"reviews"`
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(body)
	if err != nil {
		s.tel.ReportWarning(report_service_response, err)
	}
}

func (s *Service) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, envelope{Success: false, Error: err.Error()})
}

// persist writes records to the output file and the archive.
func (s *Service) persist(ctx context.Context, source string, records []reviews.Record) error {
	if s.opts.OutputPath != "" {
		s.outputMutex.Lock()
		err := reviews.WriteFile(s.opts.OutputPath, records)
		s.outputMutex.Unlock()
		if err != nil {
			return err
		}
	}
	if s.archive != nil {
		_, err := s.archive.Push(ctx, store.PushRequest{
			Source:  source,
			Time:    s.time.Now(),
			Records: records,
		})
		if err != nil {
			// the output file is already written
			s.tel.ReportWarning(report_service_persist, err, source)
		}
	}
	return nil
}

func (s *Service) respondRecords(w http.ResponseWriter, r *http.Request, source string, records []reviews.Record) {
	if records == nil {
		records = []reviews.Record{}
	}
	err := s.persist(r.Context(), source, records)
	if err != nil {
		s.tel.ReportBroken(report_service_persist, err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.metrics.Records.WithLabelValues(source).Add(float64(len(records)))
	s.writeJSON(w, http.StatusOK, recordsEnvelope{Success: true, Reviews: records})
}

func (s *Service) liveReviews(w http.ResponseWriter, r *http.Request) {
	records, err := s.live.Capture(r.Context())
	if errors.Is(err, livesession.ErrSessionActive) {
		s.writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		s.tel.ReportBroken(report_service_live, err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondRecords(w, r, "live", records)
}

func (s *Service) scrapingDone(w http.ResponseWriter, r *http.Request) {
	err := s.live.Complete(r.URL.Query().Get("session"))
	if errors.Is(err, livesession.ErrNoSession) {
		s.tel.ReportWarning(report_service_done, err)
		s.writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{Success: true})
}

func (s *Service) pageReviews(w http.ResponseWriter, r *http.Request) {
	pageUrl := r.URL.Query().Get("url")
	if pageUrl == "" {
		pageUrl = s.opts.PageURL
	}
	if pageUrl == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("no page url configured or given"))
		return
	}

	records, err := s.pages.Scrape(r.Context(), pageUrl)
	if err != nil {
		s.tel.ReportBroken(report_service_page, err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondRecords(w, r, "page", records)
}
