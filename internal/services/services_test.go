package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgat/internal/core"
	"budgat/internal/storage"
)

// fakeStore is an in-memory LedgerStore + SnapshotStore.
type fakeStore struct {
	categories []core.Category
	txs        []core.Transaction
	snaps      []core.BudgetSnapshot

	nextID int64

	// conflictWith simulates losing the snapshot creation race: the next
	// CreateSnapshot installs this row as the winner and reports a duplicate.
	conflictWith       *core.BudgetSnapshot
	createSnapshotHits int
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (f *fakeStore) id() int64 {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeStore) ListCategories(context.Context) ([]core.Category, error) {
	return f.categories, nil
}

func (f *fakeStore) GetCategory(_ context.Context, id int64) (core.Category, error) {
	for _, c := range f.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return core.Category{}, storage.ErrNotFound
}

func (f *fakeStore) CreateCategory(_ context.Context, c core.Category) (int64, error) {
	c.ID = f.id()
	f.categories = append(f.categories, c)
	return c.ID, nil
}

func (f *fakeStore) UpdateCategory(_ context.Context, c core.Category) error {
	for i := range f.categories {
		if f.categories[i].ID == c.ID {
			f.categories[i] = c
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeStore) DeleteCategory(_ context.Context, id int64) error {
	for i := range f.categories {
		if f.categories[i].ID == id {
			f.categories = append(f.categories[:i], f.categories[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeStore) ListTransactions(context.Context) ([]core.Transaction, error) {
	return f.txs, nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, t core.Transaction) (int64, error) {
	t.ID = f.id()
	f.txs = append(f.txs, t)
	return t.ID, nil
}

func (f *fakeStore) UpdateTransaction(_ context.Context, t core.Transaction) error {
	for i := range f.txs {
		if f.txs[i].ID == t.ID {
			f.txs[i] = t
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeStore) DeleteTransaction(_ context.Context, id int64) error {
	for i := range f.txs {
		if f.txs[i].ID == id {
			f.txs = append(f.txs[:i], f.txs[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeStore) CreateTransactionsBatch(_ context.Context, txs []core.Transaction) error {
	for _, t := range txs {
		t.ID = f.id()
		f.txs = append(f.txs, t)
	}
	return nil
}

func (f *fakeStore) ListSnapshots(context.Context) ([]core.BudgetSnapshot, error) {
	return f.snaps, nil
}

func (f *fakeStore) GetSnapshot(_ context.Context, categoryID int64, month core.MonthKey) (decimal.Decimal, bool, error) {
	for _, s := range f.snaps {
		if s.CategoryID == categoryID && s.Month == month {
			return s.Amount, true, nil
		}
	}
	return decimal.Zero, false, nil
}

func (f *fakeStore) CreateSnapshot(_ context.Context, categoryID int64, month core.MonthKey, amount decimal.Decimal) error {
	f.createSnapshotHits++
	if f.conflictWith != nil {
		f.snaps = append(f.snaps, *f.conflictWith)
		f.conflictWith = nil
		return storage.ErrDuplicateSnapshot
	}
	for _, s := range f.snaps {
		if s.CategoryID == categoryID && s.Month == month {
			return storage.ErrDuplicateSnapshot
		}
	}
	f.snaps = append(f.snaps, core.BudgetSnapshot{ID: f.id(), CategoryID: categoryID, Month: month, Amount: amount})
	return nil
}

func (f *fakeStore) UpdateSnapshot(_ context.Context, categoryID int64, month core.MonthKey, amount decimal.Decimal) error {
	for i := range f.snaps {
		if f.snaps[i].CategoryID == categoryID && f.snaps[i].Month == month {
			f.snaps[i].Amount = amount
			return nil
		}
	}
	return storage.ErrNotFound
}

// fakePublisher records events and optionally fails every publish.
type fakePublisher struct {
	events []string
	err    error
}

func (f *fakePublisher) PublishLedgerEvent(_ context.Context, entity, action string, _ int64) error {
	f.events = append(f.events, entity+"."+action)
	return f.err
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validTx() core.Transaction {
	return core.Transaction{
		Date:        core.NewDate(2024, 3, 10),
		Description: "Albert Heijn",
		Category:    "Groceries",
		Amount:      dec("42.50"),
	}
}

func TestCreateTransactionPublishesEvent(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewLedgerService(store, store, pub)

	id, err := svc.CreateTransaction(context.Background(), validTx())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, []string{"transaction.created"}, pub.events)
}

func TestCreateTransactionPublishFailureDoesNotFailRequest(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewLedgerService(store, store, pub)

	_, err := svc.CreateTransaction(context.Background(), validTx())
	require.NoError(t, err)
	assert.Len(t, store.txs, 1)
}

func TestCreateTransactionValidationAbortsBeforeStore(t *testing.T) {
	store := newFakeStore()
	svc := NewLedgerService(store, store, nil)

	bad := validTx()
	bad.Amount = decimal.Zero
	_, err := svc.CreateTransaction(context.Background(), bad)
	require.ErrorIs(t, err, core.ErrMissingAmount)
	assert.Empty(t, store.txs)
}

func TestLedgerServiceWithoutPublisher(t *testing.T) {
	store := newFakeStore()
	svc := NewLedgerService(store, store, nil)

	_, err := svc.CreateTransaction(context.Background(), validTx())
	require.NoError(t, err)
}

func TestImportTransactionsRejectsBatchOnInvalidRow(t *testing.T) {
	store := newFakeStore()
	svc := NewLedgerService(store, store, nil)

	bad := validTx()
	bad.Description = ""
	err := svc.ImportTransactions(context.Background(), []core.Transaction{validTx(), bad})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingDescription)
	assert.Contains(t, err.Error(), "row 2")
	assert.Empty(t, store.txs, "no row may land when any row is invalid")
}

func TestImportTransactionsBatch(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewLedgerService(store, store, pub)

	err := svc.ImportTransactions(context.Background(), []core.Transaction{validTx(), validTx()})
	require.NoError(t, err)
	assert.Len(t, store.txs, 2)
	assert.Equal(t, []string{"transaction.imported"}, pub.events)
}

func TestEditSnapshotParsesCommaDecimal(t *testing.T) {
	store := newFakeStore()
	store.snaps = []core.BudgetSnapshot{{ID: 1, CategoryID: 7, Month: "2024-03", Amount: dec("100")}}
	svc := NewLedgerService(store, store, nil)

	err := svc.EditSnapshot(context.Background(), 7, "2024-03", "120,50")
	require.NoError(t, err)
	assert.True(t, store.snaps[0].Amount.Equal(dec("120.50")))
}

func TestEnsureSnapshotIdempotent(t *testing.T) {
	store := newFakeStore()
	cat := core.Category{ID: 3, Name: "Groceries", MonthlyBudget: dec("300"), Kind: core.KindExpense}
	svc := NewReportService(store, store, 6)

	first, err := svc.EnsureSnapshot(context.Background(), cat, "2024-03")
	require.NoError(t, err)
	assert.True(t, first.Equal(dec("300")))
	require.Len(t, store.snaps, 1)

	// A later budget change must not disturb the pinned month.
	cat.MonthlyBudget = dec("500")
	second, err := svc.EnsureSnapshot(context.Background(), cat, "2024-03")
	require.NoError(t, err)
	assert.True(t, second.Equal(dec("300")))
	assert.Len(t, store.snaps, 1)
}

func TestEnsureSnapshotRecoversFromCreationRace(t *testing.T) {
	store := newFakeStore()
	cat := core.Category{ID: 3, Name: "Groceries", MonthlyBudget: dec("300"), Kind: core.KindExpense}
	svc := NewReportService(store, store, 6)

	// A concurrent writer lands between our read and our insert.
	store.conflictWith = &core.BudgetSnapshot{ID: 9, CategoryID: 3, Month: "2024-03", Amount: dec("275")}

	amount, err := svc.EnsureSnapshot(context.Background(), cat, "2024-03")
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("275")), "the winner's amount is authoritative")
	assert.Equal(t, 1, store.createSnapshotHits)
	assert.Len(t, store.snaps, 1)
}

func TestBudgetViewPinsEveryCategory(t *testing.T) {
	store := newFakeStore()
	store.categories = []core.Category{
		{ID: 1, Name: "Groceries", MonthlyBudget: dec("300"), Kind: core.KindExpense},
		{ID: 2, Name: "Transport", MonthlyBudget: dec("100"), Kind: core.KindExpense},
	}
	store.txs = []core.Transaction{
		{ID: 1, Date: core.NewDate(2024, 3, 5), Description: "Shop", Category: "Groceries", Amount: dec("320")},
	}
	svc := NewReportService(store, store, 6)

	view, err := svc.BudgetView(context.Background(), "2024-03")
	require.NoError(t, err)
	assert.Len(t, store.snaps, 2, "viewing the month pins both categories")
	require.Len(t, view.Categories, 2)

	groceries := view.Categories[0]
	assert.Equal(t, "Groceries", groceries.Category)
	assert.True(t, groceries.Available.Equal(dec("-20")))
	assert.True(t, groceries.Over)
}

func TestBudgetViewRespectsExistingPin(t *testing.T) {
	store := newFakeStore()
	store.categories = []core.Category{
		{ID: 1, Name: "Groceries", MonthlyBudget: dec("500"), Kind: core.KindExpense},
	}
	store.snaps = []core.BudgetSnapshot{{ID: 1, CategoryID: 1, Month: "2024-03", Amount: dec("300")}}
	svc := NewReportService(store, store, 6)

	view, err := svc.BudgetView(context.Background(), "2024-03")
	require.NoError(t, err)
	assert.Len(t, store.snaps, 1, "an existing pin is never recreated")
	require.Len(t, view.Categories, 1)
	assert.True(t, view.Categories[0].MonthBudget.Equal(dec("300")))
}

func TestGraphsViewUsesInjectedClock(t *testing.T) {
	store := newFakeStore()
	store.categories = []core.Category{
		{ID: 1, Name: "Groceries", MonthlyBudget: dec("300"), Kind: core.KindExpense},
	}
	store.txs = []core.Transaction{
		{ID: 1, Date: core.NewDate(2024, 3, 2), Description: "Shop", Category: "Groceries", Amount: dec("50")},
		{ID: 2, Date: core.NewDate(2024, 3, 20), Description: "Shop", Category: "Groceries", Amount: dec("30")},
	}
	svc := NewReportService(store, store, 6)
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }

	view, err := svc.GraphsView(context.Background(), "2024-03")
	require.NoError(t, err)
	assert.Len(t, view.Daily.Days, 10, "the current month stops at today")
	assert.True(t, view.Daily.Totals[9].Equal(dec("50")), "day 20 lies beyond the clock")
}

func TestFlowViewWithoutData(t *testing.T) {
	store := newFakeStore()
	svc := NewReportService(store, store, 6)

	view, err := svc.FlowView(context.Background(), "2024-03")
	require.NoError(t, err)
	assert.False(t, view.HasData)
}

func TestFlowViewWithIncomeAndSpending(t *testing.T) {
	store := newFakeStore()
	store.categories = []core.Category{
		{ID: 1, Name: "Groceries", MonthlyBudget: dec("300"), Kind: core.KindExpense},
		{ID: 2, Name: "Inkomsten", Kind: core.KindIncome},
	}
	store.txs = []core.Transaction{
		{ID: 1, Date: core.NewDate(2024, 3, 1), Description: "Salary", Category: "Inkomsten", Amount: dec("-1000")},
		{ID: 2, Date: core.NewDate(2024, 3, 5), Description: "Shop", Category: "Groceries", Amount: dec("200")},
	}
	svc := NewReportService(store, store, 6)

	view, err := svc.FlowView(context.Background(), "2024-03")
	require.NoError(t, err)
	require.True(t, view.HasData)
	assert.Equal(t, "Income (€1000)", view.Graph.Source)
}
