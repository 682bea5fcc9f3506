package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fincore/platform/internal/infra"
	"github.com/fincore/platform/internal/webhooksink"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("webhook sink failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *infra.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	receiver := webhooksink.NewReceiver(cfg.WebhookSigningSecret, logger)

	srv := &http.Server{
		Addr:         cfg.SinkAddr,
		Handler:      webhooksink.NewRouter(receiver),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("webhook-sink listening",
			"addr", cfg.SinkAddr,
			"verify_signatures", cfg.WebhookSigningSecret != "")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("webhook-sink shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("webhook-sink error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("webhook-sink shutdown failed: %w", err)
	}

	logger.Info("webhook-sink stopped gracefully")
	return nil
}
