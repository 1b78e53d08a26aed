// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the scraper.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/commonsdocs/reggov-scraper/internal/archive"
	gcsarchive "github.com/commonsdocs/reggov-scraper/internal/archive/gcs"
	localarchive "github.com/commonsdocs/reggov-scraper/internal/archive/local"
	"github.com/commonsdocs/reggov-scraper/internal/config"
	"github.com/commonsdocs/reggov-scraper/internal/extract"
	"github.com/commonsdocs/reggov-scraper/internal/fetch"
	"github.com/commonsdocs/reggov-scraper/internal/harvest"
	"github.com/commonsdocs/reggov-scraper/internal/logging"
	"github.com/commonsdocs/reggov-scraper/internal/metrics"
	"github.com/commonsdocs/reggov-scraper/internal/notify"
	notifypubsub "github.com/commonsdocs/reggov-scraper/internal/notify/pubsub"
	"github.com/commonsdocs/reggov-scraper/internal/pipeline"
	"github.com/commonsdocs/reggov-scraper/internal/regulations"
	"github.com/commonsdocs/reggov-scraper/internal/resolve"
	"github.com/commonsdocs/reggov-scraper/internal/store/postgres"
)

// App holds all the shared, long-lived services for the application.
// It is initialized once at startup and torn down by Close.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Pipeline *pipeline.Pipeline

	store     *postgres.Store
	publisher *notifypubsub.Publisher
	metricsLn *http.Server
}

// New creates and wires all services from the configuration. It fails fast
// when a critical dependency cannot be reached.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	logger.Info("initializing scraper services")

	a := &App{Config: cfg, Logger: logger}

	a.store, err = postgres.New(ctx, postgres.Config{
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	blobStore, err := newBlobStore(ctx, cfg.Archive, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	sink := archive.NewSink(blobStore, cfg.Archive.Prefix, logger)

	client := regulations.NewClient(cfg.API.BaseURL,
		time.Duration(cfg.API.TimeoutSeconds)*time.Second, logger)
	rotator, err := regulations.NewRotator(cfg.API.Keys, cfg.API.KeyBlockSize)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initialize credentials: %w", err)
	}

	harvester := harvest.New(client, rotator.Primary(), harvest.Config{
		PageSize: cfg.Scrape.PageSize,
		MaxPages: cfg.Scrape.MaxPages,
		Skew:     cfg.WatermarkSkew(),
	}, logger)
	fetcher := fetch.New(client, rotator, sink, cfg.DetailDelay(), logger)

	var converter extract.Converter
	if cfg.Extract.ConverterPath != "" {
		converter, err = extract.NewSofficeConverter(cfg.Extract.ConverterPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("initialize converter: %w", err)
		}
	}
	extractor := extract.New(
		extract.NewHTTPDownloader(time.Duration(cfg.API.TimeoutSeconds)*time.Second),
		converter,
		extract.Config{PageCap: cfg.Extract.PageCap, TempDir: cfg.Extract.TempDir},
		logger,
	)

	resolver := resolve.New(client, rotator.Primary(), cfg.MetadataDelay(), logger)

	var pub notify.Publisher
	if cfg.PubSub.ProjectID != "" && cfg.PubSub.TopicName != "" {
		logger.Info("connecting to pub/sub",
			zap.String("project", cfg.PubSub.ProjectID),
			zap.String("topic", cfg.PubSub.TopicName),
		)
		a.publisher, err = notifypubsub.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("initialize pubsub: %w", err)
		}
		pub = a.publisher
	}
	notifier := notify.New(pub, cfg.PubSub.TopicName, logger)

	a.Pipeline = pipeline.New(harvester, fetcher, extractor, resolver,
		a.store, notifier, cfg.Scrape.StartDate, logger)

	if cfg.Metrics.ListenAddr != "" {
		a.serveMetrics(cfg.Metrics.ListenAddr)
	}

	logger.Info("scraper services initialized")
	return a, nil
}

// newBlobStore selects the raw-archive backend. "none" disables archiving.
func newBlobStore(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) (archive.BlobStore, error) {
	switch cfg.Backend {
	case "gcs":
		logger.Info("archiving raw responses to GCS", zap.String("bucket", cfg.GCSBucket))
		return gcsarchive.New(ctx, cfg.GCSBucket)
	case "local":
		logger.Info("archiving raw responses locally", zap.String("dir", cfg.LocalDir))
		return localarchive.New(cfg.LocalDir)
	case "none", "":
		logger.Info("raw response archiving disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown archive backend: %s", cfg.Backend)
	}
}

// serveMetrics exposes the Prometheus endpoint on its own listener.
func (a *App) serveMetrics(addr string) {
	metrics.Init()
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	a.metricsLn = &http.Server{Addr: addr, Handler: r}
	a.Logger.Info("starting metrics server", zap.String("addr", addr))
	go func() {
		if err := a.metricsLn.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("metrics server failed", zap.Error(err))
		}
	}()
}

// Close gracefully shuts down all services in the App container.
func (a *App) Close() {
	if a.metricsLn != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metricsLn.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("error stopping metrics server", zap.Error(err))
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.Logger.Warn("error closing pubsub client", zap.Error(err))
		}
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}
