package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pfm/internal/log"
	"pfm/internal/provider/memory"
	"pfm/internal/provider/sheets"
	"pfm/internal/provider/sqlite"
)

var nowFunc = time.Now

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if config.SeedIfEmpty {
		if _, err := repo.GetCurrentUser(ctx); errors.Is(err, sqlite.ErrNoUser) {
			if err := repo.Seed(ctx, memory.Reference(nowFunc())); err != nil {
				repo.Close()
				return nil, fmt.Errorf("seed empty ledger: %w", err)
			}
			f.logger.Info("Seeded empty ledger with reference data")
		}
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Provider: repo,
		Type:     SQLiteBackend,
		Cleanup:  repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend")

	return &BackendResult{
		Provider: client,
		Type:     SheetsBackend,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store := memory.New(memory.Reference(nowFunc()),
		memory.WithLatency(config.MockLatency),
		memory.WithSeed(config.MockSeed),
	)

	f.logger.Info("Initialized memory backend",
		"latency", config.MockLatency,
		"seed", config.MockSeed,
	)

	return &BackendResult{
		Provider: store,
		Type:     MemoryBackend,
	}, nil
}
