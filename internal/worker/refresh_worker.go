package worker

import (
	"context"

	"pfm/internal/amqp"
	"pfm/internal/log"
)

// Refresher re-runs the Home load of every live session.
type Refresher interface {
	RefreshAll(ctx context.Context) int
}

// LedgerConsumer delivers ledger notifications until ctx is done.
type LedgerConsumer interface {
	ConsumeLedgerUpdates(ctx context.Context, handler func(context.Context, *amqp.LedgerUpdatedMessage) error) error
}

// RefreshWorker turns ledger.updated notifications into session refreshes.
type RefreshWorker struct {
	consumer  LedgerConsumer
	refresher Refresher
	logger    *log.Logger
}

func NewRefreshWorker(consumer LedgerConsumer, refresher Refresher, logger *log.Logger) *RefreshWorker {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &RefreshWorker{
		consumer:  consumer,
		refresher: refresher,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleLedgerUpdated processes a single notification.
func (w *RefreshWorker) HandleLedgerUpdated(ctx context.Context, msg *amqp.LedgerUpdatedMessage) error {
	sessions := w.refresher.RefreshAll(ctx)
	w.logger.InfoContext(ctx, "Refreshed live sessions after ledger update",
		log.FieldOperation, log.OpRefresh,
		"source", msg.Source,
		log.FieldCount, msg.Count,
		"sessions", sessions,
		"published_at", msg.Timestamp,
	)
	return nil
}

// Run blocks consuming notifications until ctx is cancelled.
func (w *RefreshWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Refresh worker started", log.FieldOperation, log.OpConsume)
	err := w.consumer.ConsumeLedgerUpdates(ctx, w.HandleLedgerUpdated)
	if ctx.Err() != nil {
		w.logger.InfoContext(ctx, "Refresh worker stopped")
		return nil
	}
	return err
}
