package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfm/internal/amqp"
	"pfm/internal/core"
	"pfm/internal/log"
	"pfm/internal/provider/memory"
)

type fakeStore struct {
	seeded   *memory.Dataset
	appended []core.Transaction
	err      error
	closeErr error
}

func (s *fakeStore) Seed(_ context.Context, data memory.Dataset) error {
	if s.err != nil {
		return s.err
	}
	s.seeded = &data
	return nil
}

func (s *fakeStore) AppendTransactions(_ context.Context, txns []core.Transaction) error {
	if s.err != nil {
		return s.err
	}
	s.appended = append(s.appended, txns...)
	return nil
}

func (s *fakeStore) Close() error { return s.closeErr }

type fakePublisher struct {
	messages []*amqp.LedgerUpdatedMessage
	err      error
	closeErr error
}

func (p *fakePublisher) PublishLedgerUpdated(_ context.Context, msg *amqp.LedgerUpdatedMessage) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakePublisher) Close() error { return p.closeErr }

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestSeedPublishesNotification(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewLedgerService(store, pub, log.Discard())

	require.NoError(t, svc.Seed(context.Background(), memory.Reference(now)))

	require.NotNil(t, store.seeded)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, "seed", pub.messages[0].Source)
	assert.Equal(t, len(store.seeded.Transactions), pub.messages[0].Count)
}

func TestSeedFailureDoesNotPublish(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	pub := &fakePublisher{}
	svc := NewLedgerService(store, pub, log.Discard())

	err := svc.Seed(context.Background(), memory.Reference(now))
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, pub.messages)
}

func TestPublishFailureKeepsWrite(t *testing.T) {
	store := &fakeStore{}
	svc := NewLedgerService(store, &fakePublisher{err: errors.New("circuit breaker is open")}, log.Discard())

	txns := []core.Transaction{{ID: "txn_9", Title: "Coffee", Amount: core.Money{Cents: 450}, Type: core.Debit, Date: now}}
	require.NoError(t, svc.AppendTransactions(context.Background(), "api", txns))
	assert.Len(t, store.appended, 1)
}

func TestAppendNothingIsNoop(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewLedgerService(store, pub, log.Discard())

	require.NoError(t, svc.AppendTransactions(context.Background(), "api", nil))
	assert.Empty(t, pub.messages)
}

func TestWithoutPublisher(t *testing.T) {
	svc := NewLedgerService(&fakeStore{}, nil, log.Discard())
	assert.NoError(t, svc.Seed(context.Background(), memory.Reference(now)))
	assert.NoError(t, svc.Close())
}

func TestClose(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		service := &LedgerService{}
		assert.NoError(t, service.Close())
	})

	t.Run("joins errors", func(t *testing.T) {
		service := NewLedgerService(
			&fakeStore{closeErr: errors.New("db busy")},
			&fakePublisher{closeErr: errors.New("channel closed")},
			log.Discard(),
		)
		err := service.Close()
		assert.ErrorContains(t, err, "storage: db busy")
		assert.ErrorContains(t, err, "amqp: channel closed")
	})
}
