package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"budgat/internal/budget"
	"budgat/internal/core"
	"budgat/internal/report"
	"budgat/internal/storage"
)

// ReportService renders the read-side views. Each call fetches a fresh
// snapshot of the record sets, then hands the immutable slices to the pure
// engines; staleness against the store is acceptable, the next render
// re-fetches.
type ReportService struct {
	ledger    LedgerStore
	snapshots SnapshotStore

	historyMonths int
	now           func() time.Time
}

// BudgetView is the rollover-aware per-category listing for a month, with
// the plan-vs-actual header totals.
type BudgetView struct {
	Month      core.MonthKey
	Categories []budget.Status
	Totals     budget.Totals
}

// GraphsView bundles the chart inputs for a month.
type GraphsView struct {
	Month     core.MonthKey
	History   []report.MonthFlow
	Daily     report.Series
	Trend     decimal.Decimal
	Breakdown []report.CategoryTotal
}

// FlowView wraps the income allocation graph; HasData is false for a month
// with nothing to draw.
type FlowView struct {
	HasData bool
	Graph   report.FlowGraph
}

func NewReportService(ledger LedgerStore, snapshots SnapshotStore, historyMonths int) *ReportService {
	if historyMonths <= 0 {
		historyMonths = 6
	}
	return &ReportService{
		ledger:        ledger,
		snapshots:     snapshots,
		historyMonths: historyMonths,
		now:           time.Now,
	}
}

// EnsureSnapshot pins the category's current budget for the month unless a
// snapshot already exists. Losing the creation race to a concurrent render
// is fine: re-read and use the winner. The operation is idempotent and
// never produces duplicate rows.
func (s *ReportService) EnsureSnapshot(ctx context.Context, cat core.Category, month core.MonthKey) (decimal.Decimal, error) {
	amount, ok, err := s.snapshots.GetSnapshot(ctx, cat.ID, month)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ensure snapshot: %w", err)
	}
	if ok {
		return amount, nil
	}

	err = s.snapshots.CreateSnapshot(ctx, cat.ID, month, cat.MonthlyBudget)
	if errors.Is(err, storage.ErrDuplicateSnapshot) {
		amount, ok, err = s.snapshots.GetSnapshot(ctx, cat.ID, month)
		if err != nil {
			return decimal.Zero, fmt.Errorf("ensure snapshot re-read: %w", err)
		}
		if !ok {
			return decimal.Zero, fmt.Errorf("ensure snapshot: winner vanished for category %d month %s", cat.ID, month)
		}
		return amount, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("ensure snapshot: %w", err)
	}
	return cat.MonthlyBudget, nil
}

// BudgetView computes the per-category status list for the month. Viewing
// the month pins its budgets as a side effect, before the pure computation
// runs.
func (s *ReportService) BudgetView(ctx context.Context, month core.MonthKey) (BudgetView, error) {
	cats, txs, snaps, err := s.fetch(ctx)
	if err != nil {
		return BudgetView{}, err
	}

	pinned := make(map[int64]bool, len(snaps))
	for _, sn := range snaps {
		if sn.Month == month {
			pinned[sn.CategoryID] = true
		}
	}
	for _, cat := range cats {
		if pinned[cat.ID] {
			continue
		}
		amount, err := s.EnsureSnapshot(ctx, cat, month)
		if err != nil {
			return BudgetView{}, err
		}
		// Fold the fresh pin into the working set so the computation and
		// the store agree within this render.
		snaps = append(snaps, core.BudgetSnapshot{CategoryID: cat.ID, Month: month, Amount: amount})
	}

	view := BudgetView{Month: month, Totals: budget.ComputeTotals(cats, txs, snaps, month)}
	for _, cat := range cats {
		view.Categories = append(view.Categories, budget.CategoryStatus(cat, month, txs, snaps))
	}
	return view, nil
}

// GridView pivots the whole ledger by category and month.
func (s *ReportService) GridView(ctx context.Context) (budget.Grid, error) {
	var (
		g    errgroup.Group
		cats []core.Category
		txs  []core.Transaction
	)
	g.Go(func() error {
		var err error
		cats, err = s.ledger.ListCategories(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.ledger.ListTransactions(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return budget.Grid{}, fmt.Errorf("fetch grid inputs: %w", err)
	}
	return budget.ComputeGrid(cats, txs), nil
}

// GraphsView derives the chart series for the month.
func (s *ReportService) GraphsView(ctx context.Context, month core.MonthKey) (GraphsView, error) {
	cats, txs, _, err := s.fetch(ctx)
	if err != nil {
		return GraphsView{}, err
	}

	today := core.DateOf(s.now())
	return GraphsView{
		Month:     month,
		History:   report.LastN(report.MonthlyHistory(txs, cats), s.historyMonths),
		Daily:     report.DailyCumulative(txs, cats, month, today),
		Trend:     report.Trend(txs, cats, month),
		Breakdown: report.CategoryBreakdown(txs, cats, month),
	}, nil
}

// FlowView derives the income allocation graph for the month.
func (s *ReportService) FlowView(ctx context.Context, month core.MonthKey) (FlowView, error) {
	cats, txs, _, err := s.fetch(ctx)
	if err != nil {
		return FlowView{}, err
	}

	graph, err := report.Flow(txs, cats, month)
	if errors.Is(err, report.ErrNoFlowData) {
		slog.DebugContext(ctx, "No flow data for month", "month", month)
		return FlowView{HasData: false}, nil
	}
	if err != nil {
		return FlowView{}, err
	}
	return FlowView{HasData: true, Graph: graph}, nil
}

// fetch reads the three record sets concurrently; the store calls are the
// only suspension points in a render.
func (s *ReportService) fetch(ctx context.Context) ([]core.Category, []core.Transaction, []core.BudgetSnapshot, error) {
	var (
		g     errgroup.Group
		cats  []core.Category
		txs   []core.Transaction
		snaps []core.BudgetSnapshot
	)
	g.Go(func() error {
		var err error
		cats, err = s.ledger.ListCategories(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.ledger.ListTransactions(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		snaps, err = s.snapshots.ListSnapshots(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, fmt.Errorf("fetch record sets: %w", err)
	}
	return cats, txs, snaps, nil
}
