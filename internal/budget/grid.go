package budget

import (
	"sort"

	"github.com/shopspring/decimal"

	"budgat/internal/core"
)

// Grid is the category-by-month pivot of the whole ledger. Unlike the
// rollover-aware Status view it measures every cell against the category's
// flat current monthly budget and ignores snapshot history. The two views
// disagree on purpose: the grid is the simpler budget-as-constant reading
// and must stay that way.
type Grid struct {
	// Months present in the ledger, ascending. Months with no transactions
	// are not filled in.
	Months       []core.MonthKey
	Rows         []GridRow
	ColumnTotals []decimal.Decimal
	GrandTotal   decimal.Decimal
}

type GridRow struct {
	Category string
	Cells    []GridCell
	Total    decimal.Decimal
}

type GridCell struct {
	Spent  decimal.Decimal
	Budget decimal.Decimal
	Over   bool
}

// ComputeGrid pivots all transactions by (category, month). Transactions
// referencing unknown category names are excluded, never an error.
func ComputeGrid(cats []core.Category, txs []core.Transaction) Grid {
	monthSet := make(map[core.MonthKey]bool)
	for _, t := range txs {
		monthSet[t.Date.Month()] = true
	}
	months := make([]core.MonthKey, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })

	monthIdx := make(map[core.MonthKey]int, len(months))
	for i, m := range months {
		monthIdx[m] = i
	}

	spent := make(map[string][]decimal.Decimal, len(cats))
	for _, c := range cats {
		row := make([]decimal.Decimal, len(months))
		for i := range row {
			row[i] = decimal.Zero
		}
		spent[c.Name] = row
	}
	for _, t := range txs {
		row, ok := spent[t.Category]
		if !ok {
			continue
		}
		row[monthIdx[t.Date.Month()]] = row[monthIdx[t.Date.Month()]].Add(t.Amount)
	}

	grid := Grid{Months: months, ColumnTotals: make([]decimal.Decimal, len(months))}
	for i := range grid.ColumnTotals {
		grid.ColumnTotals[i] = decimal.Zero
	}
	grid.GrandTotal = decimal.Zero

	for _, c := range cats {
		row := GridRow{Category: c.Name, Cells: make([]GridCell, len(months)), Total: decimal.Zero}
		for i := range months {
			cell := GridCell{
				Spent:  spent[c.Name][i],
				Budget: c.MonthlyBudget,
				Over:   spent[c.Name][i].GreaterThan(c.MonthlyBudget),
			}
			row.Cells[i] = cell
			row.Total = row.Total.Add(cell.Spent)
			grid.ColumnTotals[i] = grid.ColumnTotals[i].Add(cell.Spent)
			grid.GrandTotal = grid.GrandTotal.Add(cell.Spent)
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid
}
