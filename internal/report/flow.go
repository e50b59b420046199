package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"budgat/internal/core"
)

// ErrNoFlowData reports a month with neither income nor categorized
// expense; callers render an empty state instead of a degenerate graph.
var ErrNoFlowData = errors.New("no flow data for month")

// SavingsLabel is the sink for income that no category consumed.
const SavingsLabel = "Savings"

// FlowGraph is the weighted income-allocation graph for one month: one
// source node feeding each spending category, plus a savings sink when
// income exceeds total expense.
type FlowGraph struct {
	Month  core.MonthKey
	Source string
	Edges  []FlowEdge
}

type FlowEdge struct {
	To     string
	Weight decimal.Decimal
}

// Flow builds the income allocation graph for the month. Zero and negative
// weight edges are omitted; edges are ordered by weight descending.
func Flow(txs []core.Transaction, cats []core.Category, month core.MonthKey) (FlowGraph, error) {
	// Income is sign-driven: every negative amount counts, whatever its
	// category. The kind attribute only gates the expense side.
	income := decimal.Zero
	for _, t := range txs {
		if month.Contains(t.Date) && t.Amount.IsNegative() {
			income = income.Add(t.Amount.Abs())
		}
	}

	totals := expenseByCategory(txs, cats, month)

	g := FlowGraph{Month: month}
	totalExpense := decimal.Zero
	for name, amount := range totals {
		if !amount.IsPositive() {
			continue
		}
		g.Edges = append(g.Edges, FlowEdge{To: name, Weight: amount})
		totalExpense = totalExpense.Add(amount)
	}

	if income.IsZero() && len(g.Edges) == 0 {
		return FlowGraph{}, ErrNoFlowData
	}

	if income.IsPositive() {
		g.Source = fmt.Sprintf("Income (€%s)", income.String())
	} else {
		g.Source = "Funds"
	}

	if surplus := income.Sub(totalExpense); surplus.IsPositive() {
		g.Edges = append(g.Edges, FlowEdge{To: SavingsLabel, Weight: surplus})
	}

	sort.Slice(g.Edges, func(i, j int) bool {
		if !g.Edges[i].Weight.Equal(g.Edges[j].Weight) {
			return g.Edges[i].Weight.GreaterThan(g.Edges[j].Weight)
		}
		return strings.Compare(g.Edges[i].To, g.Edges[j].To) < 0
	})
	return g, nil
}
