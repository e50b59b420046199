package services

import (
	"context"

	"github.com/shopspring/decimal"

	"budgat/internal/core"
)

// Ports for the outbound stores. storage.Repository implements both; tests
// substitute in-memory fakes.
type (
	// LedgerStore holds transactions and categories.
	LedgerStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		GetCategory(ctx context.Context, id int64) (core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) (int64, error)
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id int64) error

		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id int64) error
		CreateTransactionsBatch(ctx context.Context, txs []core.Transaction) error
	}

	// SnapshotStore holds the per-month pinned budgets.
	SnapshotStore interface {
		ListSnapshots(ctx context.Context) ([]core.BudgetSnapshot, error)
		GetSnapshot(ctx context.Context, categoryID int64, month core.MonthKey) (decimal.Decimal, bool, error)
		CreateSnapshot(ctx context.Context, categoryID int64, month core.MonthKey, amount decimal.Decimal) error
		UpdateSnapshot(ctx context.Context, categoryID int64, month core.MonthKey, amount decimal.Decimal) error
	}

	// EventPublisher announces ledger mutations; the AMQP client implements
	// it. Publishing is best-effort and never fails a request.
	EventPublisher interface {
		PublishLedgerEvent(ctx context.Context, entity, action string, id int64) error
	}
)
