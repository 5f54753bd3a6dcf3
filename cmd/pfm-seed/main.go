package main

import (
	"context"
	"os"
	"time"

	"pfm/internal/cli"
	"pfm/internal/log"
	"pfm/internal/provider/memory"
	"pfm/internal/provider/sqlite"
	"pfm/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	repo, err := sqlite.NewRepository(cfg.SQLiteDBPath, logger)
	if err != nil {
		logger.Error("Failed to open SQLite ledger", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	// A nil *amqp.Client must not reach the service as a non-nil interface.
	var publisher services.Publisher
	if client := cli.InitAMQP(logger, cfg); client != nil {
		publisher = client
	}

	ledger := services.NewLedgerService(repo, publisher, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data := memory.Reference(time.Now())
	if err := ledger.Seed(ctx, data); err != nil {
		logger.Error("Seeding failed", log.FieldError, err, "path", cfg.SQLiteDBPath)
		_ = ledger.Close()
		os.Exit(1)
	}
	if err := ledger.Close(); err != nil {
		logger.Warn("Close failed", log.FieldError, err)
	}
	logger.Info("Ledger seeded", "path", cfg.SQLiteDBPath, log.FieldCount, len(data.Transactions))
}
