package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"pfm/internal/cli"
	apphttp "pfm/internal/http"
	"pfm/internal/log"
	"pfm/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	result := cli.InitBackend(context.Background(), logger, cfg)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:           ":" + cfg.Port,
		RateLimitRPM:   cfg.RateLimitRPM,
		LookupCacheTTL: cfg.LookupCacheTTL,
		FetchTimeout:   cfg.FetchTimeout,
		EffectBuffer:   cfg.EffectBuffer,
	}, result.Provider, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	amqpClient := cli.InitAMQP(logger, cfg)

	// The scheduler exists before the signal handler that stops it.
	jobsCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	sched, err := cli.InitScheduler(jobsCtx, logger, cfg, srv.Hub())
	if err != nil {
		logger.Error("Failed to register refresh job", log.FieldError, err, "schedule", cfg.RefreshSchedule)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(cleanupCtx context.Context) {
		stopJobs()
		if err := srv.Shutdown(cleanupCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if sched != nil {
			sched.Stop()
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if err := result.Close(); err != nil {
			logger.Warn("Backend close error", log.FieldError, err)
		}
	})

	if amqpClient != nil {
		refreshWorker := worker.NewRefreshWorker(amqpClient, srv.Hub(), logger)
		go func() {
			if err := refreshWorker.Run(ctx); err != nil {
				logger.Error("Refresh worker stopped", log.FieldError, err)
			}
		}()
	}

	if sched != nil {
		sched.Start()
	}

	logger.Info("Starting pfm server", "port", cfg.Port, "backend", result.Type.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
