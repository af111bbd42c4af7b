package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ChatRelay/internal/admin"
	"ChatRelay/internal/analysis"
	"ChatRelay/internal/config"
	"ChatRelay/internal/gateway"
	"ChatRelay/internal/logstore"
	"ChatRelay/internal/relay"
	"ChatRelay/internal/telemetry"
	"ChatRelay/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := telemetry.InitLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracer, meter, cleanup, err := telemetry.InitTelemetry(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer cleanup()

	var store logstore.Store
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		store, err = logstore.ConnectPostgres(ctx, cfg.DatabaseURL)
	default:
		store, err = logstore.OpenSQLite(cfg.DatabasePath)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer store.Close()

	analyzer := analysis.NewClient(cfg.AnalysisURL, cfg.RequestTimeout, logger, tracer, meter)
	pipeline := relay.NewPipeline(analyzer, store, logger, tracer)

	mux := http.NewServeMux()
	relay.NewHandler(pipeline, logger, meter).Register(mux)
	admin.NewHandler(store, logger).Register(mux)
	mux.Handle("/ws", gateway.NewHandler(pipeline, cfg.Origins(), logger))
	mux.Handle("/", web.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("relay listening",
			"port", cfg.Port,
			"analysis_url", cfg.AnalysisURL,
			"database_driver", cfg.DatabaseDriver)
		fmt.Printf("chatrelay listening on :%d\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
