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
	"github.com/fincore/platform/internal/outbox"
	"github.com/fincore/platform/internal/provider"
	"github.com/fincore/platform/internal/repository"
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
		logger.Error("dispatcher failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *infra.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("dispatcher connected to postgres")

	mirror := infra.NewKafkaProducer(cfg.KafkaBrokers, logger)
	defer mirror.Close()

	metrics := infra.NewMetrics()
	sender := provider.NewWebhookSender(cfg.WebhookTimeout, cfg.WebhookSigningSecret)

	dispatcher := outbox.NewDispatcher(outbox.DispatcherDeps{
		Pool:          pool,
		Outbox:        repository.NewOutboxRepository(),
		Queue:         repository.NewQueueRepository(),
		Subscriptions: repository.NewWebhookSubscriptionRepository(),
		Sender:        sender,
		Mirror:        mirror,
		MirrorTopic:   cfg.KafkaTopic,
		Metrics:       metrics,
		Logger:        logger,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := infra.HealthCheck(r.Context(), pool); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	metricsSrv := &http.Server{
		Addr:         cfg.MetricsAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dispatcher metrics listening", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	logger.Info("dispatcher starting",
		"interval", cfg.DispatchInterval,
		"batch_size", cfg.DispatchBatchSize,
	)

	ticker := time.NewTicker(cfg.DispatchInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			logger.Info("dispatcher shutting down")
			break loop
		case err := <-errCh:
			return fmt.Errorf("metrics server: %w", err)
		case <-ticker.C:
			if _, err := dispatcher.RunCycle(ctx, cfg.DispatchBatchSize); err != nil {
				logger.Error("dispatch cycle failed", "error", err)
			}
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}

	return nil
}
