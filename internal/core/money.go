// Package core holds the ledger domain model: transactions, categories,
// budget snapshots and the amount/date primitives they share.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a signed decimal amount. It accepts both dot (12.34)
// and comma (12,34) decimal separators; comma input is normalized to dot
// before parsing.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// AmountOrZero parses like ParseAmount but degrades a malformed value to
// zero instead of failing, so one bad ledger row never blocks a whole
// aggregation run. The caller decides whether the degradation is worth a log
// line.
func AmountOrZero(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
