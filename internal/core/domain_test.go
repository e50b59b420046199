package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:        NewDate(2024, 1, 15),
		Description: "groceries run",
		Category:    "Groceries",
		Amount:      decimal.NewFromInt(42),
	}
	require.NoError(t, good.Validate())

	cases := []struct {
		name string
		mod  func(*Transaction)
		want error
	}{
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrMissingDate},
		{"blank description", func(tx *Transaction) { tx.Description = "  " }, ErrMissingDescription},
		{"blank category", func(tx *Transaction) { tx.Category = "" }, ErrMissingCategory},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrMissingAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := good
			tc.mod(&tx)
			assert.ErrorIs(t, tx.Validate(), tc.want)
		})
	}
}

func TestCategoryValidate(t *testing.T) {
	require.NoError(t, Category{Name: "Groceries"}.Validate())
	require.NoError(t, Category{Name: "Inkomsten", Kind: KindIncome}.Validate())
	assert.ErrorIs(t, Category{Name: ""}.Validate(), ErrMissingName)
	assert.ErrorIs(t, Category{Name: "x", Kind: "weird"}.Validate(), ErrInvalidKind)
}

func TestIncomeNames(t *testing.T) {
	names := IncomeNames([]Category{
		{Name: "Groceries", Kind: KindExpense},
		{Name: "Inkomsten", Kind: KindIncome},
	})
	assert.True(t, names["inkomsten"])
	assert.False(t, names["groceries"])
}

func TestDateMonth(t *testing.T) {
	d, err := ParseDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, MonthKey("2024-03"), d.Month())
	assert.Equal(t, "2024-03-05", d.String())

	_, err = ParseDate("05-03-2024")
	assert.Error(t, err)
}
