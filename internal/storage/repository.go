// Package storage implements the ledger and budget snapshot stores on
// SQLite. Amounts are persisted as decimal strings; a malformed stored
// amount is degraded to zero on read so one bad row never blocks a report.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"budgat/internal/core"
)

var (
	// ErrDuplicateSnapshot reports a lost race on lazy snapshot creation:
	// another writer already pinned a budget for that (category, month).
	// Callers recover by re-reading, never by surfacing the error.
	ErrDuplicateSnapshot = errors.New("snapshot already exists for category and month")

	ErrNotFound = errors.New("record not found")
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, monthly_budget, kind FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		var budget, kind string
		if err := rows.Scan(&c.ID, &c.Name, &budget, &kind); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.MonthlyBudget = r.scanAmount(ctx, budget, "categories", c.ID)
		c.Kind = core.CategoryKind(kind)
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	var budget, kind string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, monthly_budget, kind FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &budget, &kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.MonthlyBudget = r.scanAmount(ctx, budget, "categories", c.ID)
	c.Kind = core.CategoryKind(kind)
	return c, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	kind := c.Kind
	if kind == "" {
		kind = core.KindExpense
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, monthly_budget, kind) VALUES (?, ?, ?)`,
		c.Name, c.MonthlyBudget.String(), string(kind))
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create category id: %w", err)
	}
	return id, nil
}

// UpdateCategory rewrites the category row. A rename deliberately does not
// cascade to existing transactions, which keep referencing the old name.
func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) error {
	kind := c.Kind
	if kind == "" {
		kind = core.KindExpense
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, monthly_budget = ?, kind = ? WHERE id = ?`,
		c.Name, c.MonthlyBudget.String(), string(kind), c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return checkAffected(res, "update category")
}

// DeleteCategory removes the category and its budget snapshots in one
// transaction. Ledger rows referencing the name stay behind as orphans.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM budget_snapshots WHERE category_id = ?`, id); err != nil {
		return fmt.Errorf("delete category snapshots: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := checkAffected(res, "delete category"); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete category commit: %w", err)
	}
	return nil
}

// ListTransactions returns the full ledger ordered by date ascending, the
// order the derivers expect.
func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, description, category, amount, remark
		 FROM transactions ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var date, amount string
		if err := rows.Scan(&t.ID, &date, &t.Description, &t.Category, &amount, &t.Remark); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			slog.WarnContext(ctx, "Skipping transaction with unreadable date",
				"id", t.ID, "date", date)
			continue
		}
		t.Date = d
		t.Amount = r.scanAmount(ctx, amount, "transactions", t.ID)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, description, category, amount, remark)
		 VALUES (?, ?, ?, ?, ?)`,
		t.Date.String(), t.Description, t.Category, t.Amount.String(), t.Remark)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create transaction id: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET date = ?, description = ?, category = ?, amount = ?, remark = ?
		 WHERE id = ?`,
		t.Date.String(), t.Description, t.Category, t.Amount.String(), t.Remark, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return checkAffected(res, "update transaction")
}

func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return checkAffected(res, "delete transaction")
}

// CreateTransactionsBatch inserts all rows in one transaction. Any failure
// rolls the whole batch back; imports are all-or-nothing.
func (r *Repository) CreateTransactionsBatch(ctx context.Context, txs []core.Transaction) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("batch insert: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx,
		`INSERT INTO transactions (date, description, category, amount, remark)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("batch insert prepare: %w", err)
	}
	defer stmt.Close()

	for i, t := range txs {
		if _, err := stmt.ExecContext(ctx,
			t.Date.String(), t.Description, t.Category, t.Amount.String(), t.Remark); err != nil {
			return fmt.Errorf("batch insert row %d: %w", i+1, err)
		}
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("batch insert commit: %w", err)
	}

	slog.InfoContext(ctx, "Imported transaction batch", "rows", len(txs))
	return nil
}

// ListSnapshots returns all budget snapshots. When duplicate rows exist for
// one (category, month) despite the uniqueness constraint, the highest id
// wins and the older rows are dropped from the result, keeping reads
// deterministic.
func (r *Repository) ListSnapshots(ctx context.Context) ([]core.BudgetSnapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, month, amount FROM budget_snapshots
		 ORDER BY category_id, month, id`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]core.BudgetSnapshot)
	var order []string
	for rows.Next() {
		var s core.BudgetSnapshot
		var month, amount string
		if err := rows.Scan(&s.ID, &s.CategoryID, &month, &amount); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.Month = core.MonthKey(month)
		s.Amount = r.scanAmount(ctx, amount, "budget_snapshots", s.ID)

		key := fmt.Sprintf("%d/%s", s.CategoryID, s.Month)
		if _, seen := latest[key]; !seen {
			order = append(order, key)
		}
		latest[key] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	snaps := make([]core.BudgetSnapshot, 0, len(order))
	for _, key := range order {
		snaps = append(snaps, latest[key])
	}
	return snaps, nil
}

// GetSnapshot returns the budget pinned for (category, month), or ok=false
// when none exists. With duplicate rows the latest id wins (last writer).
func (r *Repository) GetSnapshot(ctx context.Context, categoryID int64, month core.MonthKey) (decimal.Decimal, bool, error) {
	var amount string
	err := r.db.QueryRowContext(ctx,
		`SELECT amount FROM budget_snapshots
		 WHERE category_id = ? AND month = ?
		 ORDER BY id DESC LIMIT 1`, categoryID, string(month)).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("get snapshot: %w", err)
	}
	return r.scanAmount(ctx, amount, "budget_snapshots", categoryID), true, nil
}

// CreateSnapshot pins a budget for (category, month). A uniqueness
// violation maps to ErrDuplicateSnapshot so callers can re-read and use the
// winner instead of failing.
func (r *Repository) CreateSnapshot(ctx context.Context, categoryID int64, month core.MonthKey, amount decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budget_snapshots (category_id, month, amount) VALUES (?, ?, ?)`,
		categoryID, string(month), amount.String())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateSnapshot
		}
		return fmt.Errorf("create snapshot: %w", err)
	}
	return nil
}

// UpdateSnapshot is the explicit user edit of a pinned month budget.
func (r *Repository) UpdateSnapshot(ctx context.Context, categoryID int64, month core.MonthKey, amount decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budget_snapshots SET amount = ? WHERE category_id = ? AND month = ?`,
		amount.String(), categoryID, string(month))
	if err != nil {
		return fmt.Errorf("update snapshot: %w", err)
	}
	return checkAffected(res, "update snapshot")
}

func (r *Repository) scanAmount(ctx context.Context, raw string, table string, id int64) decimal.Decimal {
	d, err := core.ParseAmount(raw)
	if err != nil {
		slog.WarnContext(ctx, "Malformed amount in store, treating as zero",
			"table", table, "id", id, "raw", raw)
		return decimal.Zero
	}
	return d
}

func checkAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
