package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SscSPs/receipt_budget_app/internal/core/ports"
	"github.com/SscSPs/receipt_budget_app/internal/jobs"
	"github.com/SscSPs/receipt_budget_app/internal/platform/app"
	"github.com/SscSPs/receipt_budget_app/internal/platform/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg.IsProduction)
	logger.Info("Starting rba_worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.JobBackend != config.JobBackendAMQP {
		logger.Error("rba_worker consumes AMQP jobs; with JOB_BACKEND=local the API server runs them itself")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var consumer *jobs.AMQPQueue
	a, err := app.New(ctx, cfg, logger, func(executor *jobs.Executor) (ports.JobQueue, error) {
		q, err := jobs.NewAMQPQueue(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, executor, logger)
		if err != nil {
			return nil, err
		}
		consumer = q
		return q, nil
	})
	if err != nil {
		logger.Error("Failed to initialize worker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	err = consumer.Consume(ctx, cfg.WorkerPrefetch)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Job consumption failed", slog.String("error", err.Error()))
		a.Close()
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}
