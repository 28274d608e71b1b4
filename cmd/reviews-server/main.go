package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"time"

	"reviews-backend/internal/components/telemetry"
	"reviews-backend/internal/config"
	"reviews-backend/internal/reviews"
	"reviews-backend/internal/scrapers/livesession"
	"reviews-backend/internal/scrapers/reviewpage"
	"reviews-backend/internal/service"
	"reviews-backend/internal/store"
	"reviews-backend/lib/serviceutil"

	"golang.org/x/sync/errgroup"
)

var errLiveDisabled = errors.New("live capture is disabled, set live.url in the config")

// disabledCapturer stands in for the live adapter when no live url is
// configured.
type disabledCapturer struct{}

func (disabledCapturer) Capture(ctx context.Context) ([]reviews.Record, error) {
	return nil, errLiveDisabled
}

func (disabledCapturer) Complete(sessionId string) error {
	return livesession.ErrNoSession
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", config.DefaultFile, "The configuration file, json5 or yaml.")
	flag.Parse()

	ctx := serviceutil.SignalContext()
	telemetry.InitSlog(*verbose)

	explicitConfig := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicitConfig = true
		}
	})
	cfg, err := config.Find(*configPath, explicitConfig)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	otel, err := telemetry.SetupOtel(ctx, "reviews-server", cfg.Telemetry)
	if err != nil {
		serviceutil.Fatal("setup otel", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := otel.Shutdown(shutdownCtx)
		if err != nil {
			slog.Warn("otel shutdown", "err", err)
		}
	}()

	tel, err := telemetry.NewOtelAPI(telemetry.SlogAPI{}, "reviews.server")
	if err != nil {
		serviceutil.Fatal("init telemetry", err)
	}

	extractor, err := cfg.Pipeline(tel)
	if err != nil {
		serviceutil.Fatal("init pipeline", err)
	}
	clock, err := cfg.Clock()
	if err != nil {
		serviceutil.Fatal("init clock", err)
	}

	pages := reviewpage.NewClient(cfg.PageOptions(), extractor, tel)

	var live service.Capturer = disabledCapturer{}
	if cfg.Live.Url != "" {
		live = livesession.NewAdapter(
			cfg.LiveOptions(),
			cfg.Launcher(),
			livesession.NewRegistry(),
			extractor,
			tel,
		)
	} else {
		slog.Warn("live capture disabled, live.url is not set")
	}

	var archive service.Archiver
	if cfg.Store.Enabled() {
		db, err := store.Open(ctx, cfg.Store)
		if err != nil {
			serviceutil.Fatal("open store", err)
		}
		defer db.Close()
		archive = store.NewStore(db)
	}

	svc := service.NewService(
		service.Options{
			OutputPath:  cfg.Output.Path,
			PageURL:     cfg.Source.Url,
			PageTimeout: time.Duration(cfg.Server.PageTimeoutSeconds) * time.Second,
		},
		live,
		pages,
		archive,
		clock,
		service.NewMetrics(),
		tel,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	if cfg.Server.PerfStatsSeconds > 0 {
		telemetry.InstrumentPerfStats(groupCtx, tel, time.Duration(cfg.Server.PerfStatsSeconds)*time.Second)
	}
	group.Go(func() error {
		return serviceutil.StartHttpServer(groupCtx, cfg.Server.Host, cfg.Server.Port, svc.Router())
	})

	err = group.Wait()
	if err != nil {
		serviceutil.Fatal("serve", err)
	}
}
