package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// KindExpense categories hold spending tracked against a monthly budget.
	KindExpense CategoryKind = "expense"
	// KindIncome categories hold earnings; their transactions are excluded
	// from expense aggregates regardless of the category name.
	KindIncome CategoryKind = "income"
)

type (
	CategoryKind string

	// Date is a calendar day without a time component, stored at UTC midnight.
	Date struct {
		time.Time
	}

	// Transaction is one ledger row. Amount is signed: positive is an
	// expense, negative is income. Category references Category.Name by
	// value; the reference is weak and may point at a renamed or deleted
	// category.
	Transaction struct {
		ID          int64
		Date        Date
		Description string
		Category    string
		Amount      decimal.Decimal
		Remark      string
	}

	// Category is a user-defined spending bucket with a planned monthly limit.
	Category struct {
		ID            int64
		Name          string
		MonthlyBudget decimal.Decimal
		Kind          CategoryKind
	}

	// BudgetSnapshot pins the budget that applied to a category in one
	// specific month, so the configured limit can change without rewriting
	// history. At most one snapshot exists per (category, month).
	BudgetSnapshot struct {
		ID         int64
		CategoryID int64
		Month      MonthKey
		Amount     decimal.Decimal
	}
)

var (
	ErrMissingDate        = errors.New("missing date")
	ErrMissingDescription = errors.New("missing description")
	ErrMissingCategory    = errors.New("missing category")
	ErrMissingAmount      = errors.New("missing amount")
	ErrMissingName        = errors.New("missing category name")
	ErrDescriptionLength  = errors.New("description too long (max 200 characters)")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidKind        = errors.New("invalid category kind")
	ErrInvalidMonthKey    = errors.New("invalid month key")
)

// DateFormat is the wire and storage format for calendar days.
const DateFormat = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// DateOf truncates an instant to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) String() string {
	return d.Format(DateFormat)
}

// Month returns the month key the date falls in.
func (d Date) Month() MonthKey {
	return MonthKey(d.Format(monthKeyFormat))
}

func (k CategoryKind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrMissingDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionLength
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrMissingCategory
	}
	if t.Amount.IsZero() {
		return ErrMissingAmount
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrMissingName
	}
	if c.Kind != "" && !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

// IncomeNames returns a lowercase set of the names of income-kind
// categories. The derivers match transactions against this set through
// their weak by-name category reference.
func IncomeNames(cats []Category) map[string]bool {
	names := make(map[string]bool)
	for _, c := range cats {
		if c.Kind == KindIncome {
			names[strings.ToLower(c.Name)] = true
		}
	}
	return names
}
