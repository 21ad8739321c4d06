package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/SscSPs/receipt_budget_app/internal/core/ports"
	"github.com/SscSPs/receipt_budget_app/internal/handlers"
	"github.com/SscSPs/receipt_budget_app/internal/jobs"
	"github.com/SscSPs/receipt_budget_app/internal/middleware"
	"github.com/SscSPs/receipt_budget_app/internal/platform/app"
	"github.com/SscSPs/receipt_budget_app/internal/platform/config"
	"github.com/SscSPs/receipt_budget_app/pkg/database"
)

const localQueueCapacity = 64

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg.IsProduction)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.RunMigrations(cfg.DatabaseURL, "file://migrations", logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var localQueue *jobs.LocalQueue
	a, err := app.New(ctx, cfg, logger, func(executor *jobs.Executor) (ports.JobQueue, error) {
		if cfg.JobBackend == config.JobBackendLocal {
			localQueue = jobs.NewLocalQueue(executor, logger, cfg.LocalWorkers, localQueueCapacity)
			return localQueue, nil
		}
		q, err := jobs.NewAMQPQueue(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, executor, logger)
		if err != nil {
			return nil, err
		}
		return q, nil
	})
	if err != nil {
		logger.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	workersDone := make(chan struct{})
	if localQueue != nil {
		go func() {
			defer close(workersDone)
			if err := localQueue.Run(ctx); err != nil {
				logger.Error("Local job workers stopped", slog.String("error", err.Error()))
			}
		}()
	} else {
		close(workersDone)
		logger.Info("Jobs are published to AMQP; run rba_worker to process them", slog.String("queue", cfg.AMQPQueue))
	}

	if err := handlers.RegisterValidators(); err != nil {
		logger.Error("Failed to register validators", slog.String("error", err.Error()))
		os.Exit(1)
	}

	uploadLimiter, err := middleware.NewMemoryLimiter(cfg.UploadRateLimit)
	if err != nil {
		logger.Error("Invalid upload rate limit", slog.String("rate", cfg.UploadRateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)
	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, a.Services, a.DB, middleware.RateLimit(uploadLimiter))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("job_backend", cfg.JobBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
	<-workersDone
	logger.Info("Server stopped")
}
