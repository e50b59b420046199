// Package budget is the aggregation engine: pure functions that turn the
// full category, transaction and snapshot sets into per-category available
// balances and plan-vs-actual totals for a reference month.
//
// The engine performs no I/O and never mutates its inputs. The lazy
// snapshot creation that pins a month's budget on first view is a separate
// store-side operation (services.ReportService.EnsureSnapshot); the
// computations here work from whatever snapshots already exist and
// substitute the category's current monthly budget for the reference month
// when no snapshot is pinned yet.
package budget

import (
	"github.com/shopspring/decimal"

	"budgat/internal/core"
)

var oneHundred = decimal.NewFromInt(100)

// Status is the rollover-aware view of one category for a reference month.
type Status struct {
	Category string
	Month    core.MonthKey

	// MonthBudget is the budget in effect for the reference month: the
	// pinned snapshot when one exists, else the category's current limit.
	MonthBudget decimal.Decimal
	// MonthNet sums only transactions dated within the reference month.
	MonthNet decimal.Decimal

	// LifetimeBudgeted sums pinned budgets for every month up to and
	// including the reference month.
	LifetimeBudgeted decimal.Decimal
	// LifetimeNet sums every transaction of the category with no date
	// filter; unspent budget from prior months carries forward through it.
	LifetimeNet decimal.Decimal

	// Available is LifetimeBudgeted minus LifetimeNet. Positive means money
	// remains, negative means over budget.
	Available decimal.Decimal

	// UtilizationPct is |MonthNet| / |MonthBudget| * 100, zero when the
	// month budget is zero. BarPct is the same value capped at 100 for the
	// progress bar, which never overflows regardless of overage.
	UtilizationPct decimal.Decimal
	BarPct         decimal.Decimal

	// Over mirrors the sign of Available for styling.
	Over bool
}

// Totals is the plan-vs-actual header comparison for a month.
type Totals struct {
	Month core.MonthKey
	// Plan sums every category's resolved month budget.
	Plan decimal.Decimal
	// Actual sums every category's month net.
	Actual decimal.Decimal
}

// CategoryStatus computes the rollover-aware status of one category.
func CategoryStatus(cat core.Category, month core.MonthKey, txs []core.Transaction, snaps []core.BudgetSnapshot) Status {
	monthBudget, pinned := resolveMonthBudget(cat, month, snaps)

	lifetimeBudgeted := decimal.Zero
	for _, s := range snaps {
		if s.CategoryID == cat.ID && s.Month <= month {
			lifetimeBudgeted = lifetimeBudgeted.Add(s.Amount)
		}
	}
	if !pinned {
		lifetimeBudgeted = lifetimeBudgeted.Add(monthBudget)
	}

	lifetimeNet := decimal.Zero
	monthNet := decimal.Zero
	for _, t := range txs {
		if t.Category != cat.Name {
			continue
		}
		lifetimeNet = lifetimeNet.Add(t.Amount)
		if month.Contains(t.Date) {
			monthNet = monthNet.Add(t.Amount)
		}
	}

	available := lifetimeBudgeted.Sub(lifetimeNet)

	utilization := decimal.Zero
	if !monthBudget.IsZero() {
		utilization = monthNet.Abs().Div(monthBudget.Abs()).Mul(oneHundred)
	}
	bar := utilization
	if bar.GreaterThan(oneHundred) {
		bar = oneHundred
	}

	return Status{
		Category:         cat.Name,
		Month:            month,
		MonthBudget:      monthBudget,
		MonthNet:         monthNet,
		LifetimeBudgeted: lifetimeBudgeted,
		LifetimeNet:      lifetimeNet,
		Available:        available,
		UtilizationPct:   utilization,
		BarPct:           bar,
		Over:             available.IsNegative(),
	}
}

// ComputeTotals aggregates the plan-vs-actual header across all categories.
func ComputeTotals(cats []core.Category, txs []core.Transaction, snaps []core.BudgetSnapshot, month core.MonthKey) Totals {
	totals := Totals{Month: month, Plan: decimal.Zero, Actual: decimal.Zero}

	byName := make(map[string]bool, len(cats))
	for _, c := range cats {
		monthBudget, _ := resolveMonthBudget(c, month, snaps)
		totals.Plan = totals.Plan.Add(monthBudget)
		byName[c.Name] = true
	}

	// Orphaned transactions are excluded from category-keyed aggregates.
	for _, t := range txs {
		if byName[t.Category] && month.Contains(t.Date) {
			totals.Actual = totals.Actual.Add(t.Amount)
		}
	}
	return totals
}

func resolveMonthBudget(cat core.Category, month core.MonthKey, snaps []core.BudgetSnapshot) (decimal.Decimal, bool) {
	for _, s := range snaps {
		if s.CategoryID == cat.ID && s.Month == month {
			return s.Amount, true
		}
	}
	return cat.MonthlyBudget, false
}
