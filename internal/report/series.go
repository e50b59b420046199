// Package report derives the chart-facing views from the ledger: monthly
// income/expense history, the cumulative daily spend line, the month trend
// and the income allocation flow graph. Everything here is a pure function
// of an already-fetched snapshot of the record sets.
package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"budgat/internal/core"
)

// MonthFlow is one month's income and expense totals.
type MonthFlow struct {
	Month   core.MonthKey
	Label   string // "January 2024"
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Series is the cumulative daily spend line for one month.
type Series struct {
	Month  core.MonthKey
	Days   []int
	Totals []decimal.Decimal
}

// CategoryTotal is one slice of the month's expense breakdown.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
}

// MonthlyHistory groups the whole ledger by calendar month, accumulating
// income (negative amounts, by absolute value) and expense (positive
// amounts, excluding income-kind categories) separately. The result is
// ordered oldest first; transactions arrive pre-sorted ascending by date,
// so insertion order is chronological.
func MonthlyHistory(txs []core.Transaction, cats []core.Category) []MonthFlow {
	income := core.IncomeNames(cats)

	idx := make(map[core.MonthKey]int)
	var history []MonthFlow
	for _, t := range txs {
		m := t.Date.Month()
		i, ok := idx[m]
		if !ok {
			i = len(history)
			idx[m] = i
			history = append(history, MonthFlow{
				Month:   m,
				Label:   m.Label(),
				Income:  decimal.Zero,
				Expense: decimal.Zero,
			})
		}
		switch {
		case t.Amount.IsNegative():
			history[i].Income = history[i].Income.Add(t.Amount.Abs())
		case income[strings.ToLower(t.Category)]:
			// Positive amounts in an income category are corrections, not
			// spending; they stay out of the expense series.
		default:
			history[i].Expense = history[i].Expense.Add(t.Amount)
		}
	}
	return history
}

// LastN returns the most recent n entries of a history.
func LastN(history []MonthFlow, n int) []MonthFlow {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// DailyCumulative builds the running expense total for each day of the
// month. Income and income-category transactions are excluded. When the
// reference month is the month `today` falls in, the series stops at
// today's day instead of flatlining into the future; past months run in
// full.
func DailyCumulative(txs []core.Transaction, cats []core.Category, month core.MonthKey, today core.Date) Series {
	income := core.IncomeNames(cats)
	days := month.Days()

	buckets := make([]decimal.Decimal, days+1)
	for i := range buckets {
		buckets[i] = decimal.Zero
	}
	for _, t := range txs {
		if !month.Contains(t.Date) {
			continue
		}
		if t.Amount.IsNegative() || income[strings.ToLower(t.Category)] {
			continue
		}
		buckets[t.Date.Day()] = buckets[t.Date.Day()].Add(t.Amount)
	}

	limit := days
	if today.Month() == month && today.Day() < days {
		limit = today.Day()
	}

	s := Series{Month: month, Days: make([]int, 0, limit), Totals: make([]decimal.Decimal, 0, limit)}
	running := decimal.Zero
	for day := 1; day <= limit; day++ {
		running = running.Add(buckets[day])
		s.Days = append(s.Days, day)
		s.Totals = append(s.Totals, running)
	}
	return s
}

// Trend is this month's total expense minus last month's, sign preserved:
// positive means more was spent this month.
func Trend(txs []core.Transaction, cats []core.Category, month core.MonthKey) decimal.Decimal {
	return monthExpense(txs, cats, month).Sub(monthExpense(txs, cats, month.Prev()))
}

// CategoryBreakdown totals the month's expenses per category, largest
// first. Orphaned category names are excluded, as everywhere else.
func CategoryBreakdown(txs []core.Transaction, cats []core.Category, month core.MonthKey) []CategoryTotal {
	totals := expenseByCategory(txs, cats, month)

	out := make([]CategoryTotal, 0, len(totals))
	for name, amount := range totals {
		if amount.IsZero() {
			continue
		}
		out = append(out, CategoryTotal{Category: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func monthExpense(txs []core.Transaction, cats []core.Category, month core.MonthKey) decimal.Decimal {
	income := core.IncomeNames(cats)
	total := decimal.Zero
	for _, t := range txs {
		if !month.Contains(t.Date) || t.Amount.IsNegative() || income[strings.ToLower(t.Category)] {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total
}

func expenseByCategory(txs []core.Transaction, cats []core.Category, month core.MonthKey) map[string]decimal.Decimal {
	income := core.IncomeNames(cats)
	known := make(map[string]bool, len(cats))
	for _, c := range cats {
		known[c.Name] = true
	}

	totals := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if !month.Contains(t.Date) || t.Amount.IsNegative() {
			continue
		}
		if !known[t.Category] || income[strings.ToLower(t.Category)] {
			continue
		}
		cur, ok := totals[t.Category]
		if !ok {
			cur = decimal.Zero
		}
		totals[t.Category] = cur.Add(t.Amount)
	}
	return totals
}
