package services

import (
	"context"
	"fmt"
	"log/slog"

	"budgat/internal/amqp"
	"budgat/internal/core"
)

// LedgerService orchestrates ledger mutations: validate first (fail fast,
// nothing partial), persist, then announce the change over AMQP when a
// publisher is wired.
type LedgerService struct {
	store     LedgerStore
	snapshots SnapshotStore
	events    EventPublisher
}

func NewLedgerService(store LedgerStore, snapshots SnapshotStore, events EventPublisher) *LedgerService {
	return &LedgerService{store: store, snapshots: snapshots, events: events}
}

func (s *LedgerService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

func (s *LedgerService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	id, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}
	s.publish(ctx, amqp.EntityTransaction, amqp.ActionCreated, id)
	return id, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	s.publish(ctx, amqp.EntityTransaction, amqp.ActionUpdated, t.ID)
	return nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, amqp.EntityTransaction, amqp.ActionDeleted, id)
	return nil
}

// ImportTransactions validates and inserts a batch in one store
// transaction. Any invalid row or store failure fails the whole import.
func (s *LedgerService) ImportTransactions(ctx context.Context, txs []core.Transaction) error {
	for i, t := range txs {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	if err := s.store.CreateTransactionsBatch(ctx, txs); err != nil {
		return fmt.Errorf("import transactions: %w", err)
	}
	s.publish(ctx, amqp.EntityTransaction, amqp.ActionImported, int64(len(txs)))
	return nil
}

func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	id, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("save category: %w", err)
	}
	s.publish(ctx, amqp.EntityCategory, amqp.ActionCreated, id)
	return id, nil
}

// UpdateCategory renames or re-budgets a category. The rename does not
// cascade to historical transactions; they keep the old name.
func (s *LedgerService) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	s.publish(ctx, amqp.EntityCategory, amqp.ActionUpdated, c.ID)
	return nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.publish(ctx, amqp.EntityCategory, amqp.ActionDeleted, id)
	return nil
}

// EditSnapshot is the explicit user edit of a pinned month budget.
func (s *LedgerService) EditSnapshot(ctx context.Context, categoryID int64, month core.MonthKey, amount string) error {
	d, err := core.ParseAmount(amount)
	if err != nil {
		return err
	}
	if err := s.snapshots.UpdateSnapshot(ctx, categoryID, month, d); err != nil {
		return fmt.Errorf("edit snapshot: %w", err)
	}
	s.publish(ctx, amqp.EntitySnapshot, amqp.ActionUpdated, categoryID)
	return nil
}

func (s *LedgerService) publish(ctx context.Context, entity, action string, id int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, entity, action, id); err != nil {
		// The mutation already succeeded locally; the event is best-effort.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"entity", entity, "action", action, "id", id, "error", err)
	}
}
