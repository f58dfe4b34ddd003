package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
	"github.com/tendant/tool-catalog/pkg/toolcatalog/api"
	"github.com/tendant/tool-catalog/pkg/toolcatalog/config"
	"github.com/tendant/tool-catalog/pkg/toolcatalog/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "toolcatalog: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from CONFIG_FILE or the environment
	serverConfig, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load server configuration: %w", err)
	}

	logger := serverConfig.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	routerOptions := api.RouterOptions{Logger: logger}
	var serviceMetrics toolcatalog.Metrics
	if serverConfig.EnableMetrics {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		promMetrics := metrics.NewPrometheusMetrics(registry)
		serviceMetrics = promMetrics
		routerOptions.Metrics = promMetrics
		routerOptions.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	components, err := serverConfig.Build(ctx, logger, serviceMetrics)
	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}
	defer func() {
		if err := components.Close(); err != nil {
			logger.Error("failed to close components", "error", err)
		}
	}()

	handler := api.NewToolsHandler(components.Service, serverConfig.MaxUploadSize, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", serverConfig.Port),
		Handler:           api.NewRouter(handler, routerOptions),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("tool catalog starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"database", serverConfig.DatabaseType,
			"storage", serverConfig.Storage.Type,
			"max_upload_size", serverConfig.MaxUploadSize,
			"metrics", serverConfig.EnableMetrics,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exiting")
	return nil
}
