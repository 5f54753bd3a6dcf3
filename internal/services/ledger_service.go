package services

import (
	"context"
	"errors"
	"fmt"

	"pfm/internal/amqp"
	"pfm/internal/core"
	"pfm/internal/log"
	"pfm/internal/provider/memory"
)

// LedgerStore is the writable side of the SQLite ledger.
type LedgerStore interface {
	Seed(ctx context.Context, data memory.Dataset) error
	AppendTransactions(ctx context.Context, txns []core.Transaction) error
	Close() error
}

// Publisher announces ledger changes to other processes.
type Publisher interface {
	PublishLedgerUpdated(ctx context.Context, msg *amqp.LedgerUpdatedMessage) error
	Close() error
}

// LedgerService orchestrates ledger writes across SQLite and AMQP
type LedgerService struct {
	store     LedgerStore
	publisher Publisher
	logger    *log.Logger
}

// NewLedgerService accepts a nil publisher, in which case writes stay local.
func NewLedgerService(store LedgerStore, publisher Publisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Default(log.ComponentStorage)
	}
	return &LedgerService{store: store, publisher: publisher, logger: logger}
}

// Seed replaces the ledger with data and notifies live dashboards.
func (s *LedgerService) Seed(ctx context.Context, data memory.Dataset) error {
	if err := s.store.Seed(ctx, data); err != nil {
		return fmt.Errorf("seed ledger: %w", err)
	}
	s.publish(ctx, "seed", len(data.Transactions))
	return nil
}

// AppendTransactions records txns and notifies live dashboards.
func (s *LedgerService) AppendTransactions(ctx context.Context, source string, txns []core.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	if err := s.store.AppendTransactions(ctx, txns); err != nil {
		return fmt.Errorf("append transactions: %w", err)
	}
	s.publish(ctx, source, len(txns))
	return nil
}

// publish never fails the write: the ledger is already committed and the
// scheduled refresh picks the change up later.
func (s *LedgerService) publish(ctx context.Context, source string, count int) {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, skipping ledger notification", "source", source)
		return
	}
	if err := s.publisher.PublishLedgerUpdated(ctx, amqp.NewLedgerUpdatedMessage(source, count)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger notification",
			log.FieldOperation, log.OpPublish,
			"source", source,
			log.FieldError, err,
		)
	}
}

// Close closes both storage and AMQP connections
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
