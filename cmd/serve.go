package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/api"
	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/crawl"
	"github.com/mailsift/mailsift/internal/events"
	"github.com/mailsift/mailsift/internal/events/sinks"
	"github.com/mailsift/mailsift/internal/extract"
	"github.com/mailsift/mailsift/internal/fetcher"
	"github.com/mailsift/mailsift/internal/fetcher/headless"
	"github.com/mailsift/mailsift/internal/fetcher/probe"
	"github.com/mailsift/mailsift/internal/job"
	"github.com/mailsift/mailsift/internal/logging"
)

// newServeCmd creates the serve command, which runs the HTTP server and the
// websocket control channel.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the extraction service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	extractor := extract.New(cfg.Extractor.FakePrefixes)

	registry := prometheus.NewRegistry()
	promSink, err := sinks.NewPrometheusSink(registry)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	logSink := sinks.NewLogSink(logger)

	newFetcher := fetcherFactory(cfg, logger)

	newController := func(emitter events.Sink) api.Controller {
		return job.New(job.Options{
			Concurrency: cfg.Crawler.Concurrency,
			Extractor:   extractor,
			NewFetcher:  newFetcher,
			Emitter:     events.Fanout{emitter, logSink, promSink},
			Logger:      logger,
		})
	}

	server := api.NewServer(newController, extractor.FakePrefixes(), registry, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// fetcherFactory builds the per-job fetch stack. Each job gets its own
// browser so displayMode can differ between runs.
func fetcherFactory(cfg config.Config, logger *zap.Logger) job.FetcherFactory {
	return func(displayMode bool) (crawl.Fetcher, func(), error) {
		browser, err := headless.New(headless.Config{
			Headless:        !displayMode,
			UserAgent:       cfg.Fetcher.UserAgent,
			NavTimeout:      cfg.NavTimeout(),
			MaxRetries:      cfg.Fetcher.MaxRetries,
			Backoff:         cfg.Backoff(),
			MaxContactPages: cfg.Fetcher.MaxContactPages,
			DomainQPS:       cfg.Fetcher.DomainQPS,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("start browser: %w", err)
		}

		if !cfg.Probe.Enabled {
			return browser, func() { _ = browser.Close() }, nil
		}

		probeFetcher, err := probe.New(probe.Config{
			UserAgent: cfg.Fetcher.UserAgent,
			Timeout:   cfg.ProbeTimeout(),
		}, logger)
		if err != nil {
			_ = browser.Close()
			return nil, nil, fmt.Errorf("init probe: %w", err)
		}
		detector := probe.NewDetector(cfg.Probe.DetectorMinHTMLBytes, cfg.Probe.DetectorKeywords)
		pipeline := fetcher.NewPipeline(probeFetcher, detector, browser, cfg.Fetcher.MaxContactPages, logger)
		return pipeline, func() { _ = browser.Close() }, nil
	}
}
