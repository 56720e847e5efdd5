// Package main provides the entry point for the paper gateway HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openscholar/paper-gateway/internal/config"
	"github.com/openscholar/paper-gateway/internal/dispatch"
	"github.com/openscholar/paper-gateway/internal/observability"
	"github.com/openscholar/paper-gateway/internal/papersources"
	"github.com/openscholar/paper-gateway/internal/papersources/arxiv"
	"github.com/openscholar/paper-gateway/internal/papersources/openalex"
	"github.com/openscholar/paper-gateway/internal/papersources/osf"
	"github.com/openscholar/paper-gateway/internal/pdf"
	"github.com/openscholar/paper-gateway/internal/pdfmd"
	"github.com/openscholar/paper-gateway/internal/providers"
	httpserver "github.com/openscholar/paper-gateway/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("paper-gateway server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics("paper_gateway")

	// Shared HTTP client for upstream source APIs.
	apiClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   papersources.RequestTimeout,
		UserAgent: cfg.Sources.UserAgent,
	})

	// Downloads get a longer timeout than metadata requests.
	downloadClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   papersources.DownloadTimeout,
		UserAgent: cfg.Sources.UserAgent,
	})

	registry := providers.New(cfg.Sources.OSF.BaseURL, apiClient)

	arxivClient := arxiv.New(arxiv.Config{
		BaseURL:    cfg.Sources.ArXiv.BaseURL,
		PDFBaseURL: cfg.Sources.ArXiv.PDFBaseURL,
	}, apiClient)
	osfClient := osf.New(osf.Config{
		BaseURL:      cfg.Sources.OSF.BaseURL,
		TroveBaseURL: cfg.Sources.OSF.TroveBaseURL,
	}, registry, apiClient)
	openalexClient := openalex.New(openalex.Config{
		BaseURL: cfg.Sources.OpenAlex.BaseURL,
	}, apiClient)

	downloader := pdf.NewDownloader(pdf.Config{
		MaxSize: cfg.PDF.MaxSizeBytes,
	}, downloadClient)
	converter := pdfmd.New(cfg.PDF.TempDir)

	dispatcher := dispatch.New(
		registry,
		downloader,
		converter,
		logger,
		metrics,
		arxivClient,
		osfClient,
		openalexClient,
	)

	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsPath:     cfg.Metrics.Path,
	}
	httpSrv := httpserver.NewServer(httpCfg, dispatcher, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("address", httpCfg.Address).
			Msg("HTTP REST API server starting")
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().
		Str("http_address", httpCfg.Address).
		Msg("paper-gateway is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("paper-gateway shutdown complete")
	return nil
}
