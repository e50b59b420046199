// Package worker keeps a flat-file mirror of the ledger current by reacting
// to change events and by periodic refresh for anything missed.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"budgat/internal/amqp"
	"budgat/internal/core"
	"budgat/internal/ledgercsv"
)

// TransactionLister is the slice of the store the worker needs.
type TransactionLister interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
}

// ExportWorker rewrites the CSV mirror whenever the ledger changes.
type ExportWorker struct {
	store TransactionLister
	path  string
}

func NewExportWorker(store TransactionLister, path string) *ExportWorker {
	return &ExportWorker{store: store, path: path}
}

// HandleLedgerEvent refreshes the mirror for any ledger mutation. Snapshot
// edits do not change exported rows and are acknowledged without work.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	if msg.Entity == amqp.EntitySnapshot {
		return nil
	}

	slog.InfoContext(ctx, "Processing ledger event",
		"entity", msg.Entity,
		"action", msg.Action,
		"id", msg.ID)

	return w.Refresh(ctx)
}

// Refresh rewrites the export file from the current ledger. The write goes
// through a temp file and rename so readers never see a half-written mirror.
func (w *ExportWorker) Refresh(ctx context.Context) error {
	txs, err := w.store.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.path), "ledger-*.csv")
	if err != nil {
		return fmt.Errorf("create temp export: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := ledgercsv.Write(tmp, txs); err != nil {
		tmp.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp export: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("replace export: %w", err)
	}

	slog.InfoContext(ctx, "Ledger export refreshed", "path", w.path, "rows", len(txs))
	return nil
}
