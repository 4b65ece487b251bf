package services

import (
	"context"
	"testing"
	"time"

	"lounge_pos_backend/internal/models"
	"lounge_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExpenseRepo struct {
	repositories.ExpenseRepository

	expenses    []models.Expense
	lastFilters repositories.ExpenseFilters
	settled     map[int64]string
	summary     models.CreditSummary
}

func (r *stubExpenseRepo) CreateExpense(_ repositories.SQLExecutor, expense *models.Expense) (int64, error) {
	expense.ID = int64(len(r.expenses) + 1)
	r.expenses = append(r.expenses, *expense)
	return expense.ID, nil
}

func (r *stubExpenseRepo) GetExpenses(filters repositories.ExpenseFilters) ([]models.Expense, error) {
	r.lastFilters = filters
	return r.expenses, nil
}

func (r *stubExpenseRepo) GetCreditSummary(*string) (*models.CreditSummary, error) {
	summary := r.summary
	return &summary, nil
}

func (r *stubExpenseRepo) SettleExpense(_ repositories.SQLExecutor, id int64, settledBy string, _ time.Time) (decimal.Decimal, error) {
	for _, e := range r.expenses {
		if e.ID == id && e.Credit {
			if r.settled == nil {
				r.settled = map[int64]string{}
			}
			r.settled[id] = settledBy
			return e.Amount, nil
		}
	}
	return decimal.Zero, repositories.ErrNotFound
}

func newExpenseFixture() (*stubExpenseRepo, *recordingPublisher, ExpenseService) {
	repo := &stubExpenseRepo{}
	publisher := &recordingPublisher{}
	svc := NewExpenseService(repo, nil, &fakeTxManager{store: newMemStore()}, publisher, "Admin", time.UTC)
	svc.(*expenseService).now = func() time.Time { return fixedNow }
	return repo, publisher, svc
}

func TestCreateExpense_DefaultsDateToNow(t *testing.T) {
	repo, _, svc := newExpenseFixture()

	expense, err := svc.CreateExpense(CreateExpenseRequest{Expense: " Ice ", Amount: decimal.NewFromInt(150)})
	require.NoError(t, err)

	assert.Equal(t, "Ice", expense.Expense)
	assert.Equal(t, fixedNow, expense.Date)
	assert.Len(t, repo.expenses, 1)
}

func TestCreateExpense_RejectsNegativeAmount(t *testing.T) {
	_, _, svc := newExpenseFixture()
	_, err := svc.CreateExpense(CreateExpenseRequest{Expense: "Ice", Amount: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSettleExpense_UsesDefaultSettlerAndPublishes(t *testing.T) {
	repo, publisher, svc := newExpenseFixture()
	repo.expenses = []models.Expense{{ID: 1, Expense: "Milk", Amount: decimal.NewFromInt(300), Credit: true}}

	result, err := svc.SettleExpense(context.Background(), 1, SettleExpenseRequest{})
	require.NoError(t, err)

	assert.Equal(t, "Admin", repo.settled[1])
	assert.True(t, result.DeductedAmount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, []string{ActionDeductCredit}, publisher.actions())
}

func TestSettleExpense_NamedSettler(t *testing.T) {
	repo, _, svc := newExpenseFixture()
	repo.expenses = []models.Expense{{ID: 1, Amount: decimal.NewFromInt(10), Credit: true}}

	_, err := svc.SettleExpense(context.Background(), 1, SettleExpenseRequest{SettledBy: "Rica"})
	require.NoError(t, err)
	assert.Equal(t, "Rica", repo.settled[1])
}

func TestSettleExpense_NotFound(t *testing.T) {
	_, publisher, svc := newExpenseFixture()
	_, err := svc.SettleExpense(context.Background(), 7, SettleExpenseRequest{})
	assert.ErrorIs(t, err, ErrExpenseNotFound)
	assert.Empty(t, publisher.actions())
}

func TestGetExpensesInRange_EndDateIsInclusive(t *testing.T) {
	repo, _, svc := newExpenseFixture()
	repo.expenses = []models.Expense{
		{ID: 1, Amount: decimal.NewFromInt(100), Credit: true},
		{ID: 2, Amount: decimal.NewFromInt(25)},
	}

	result, err := svc.GetExpensesInRange(DateRangeRequest{StartDate: "2024-03-01", EndDate: "2024-03-09"})
	require.NoError(t, err)

	require.NotNil(t, repo.lastFilters.From)
	require.NotNil(t, repo.lastFilters.To)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), *repo.lastFilters.From)
	assert.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), *repo.lastFilters.To)
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromInt(125)))
	assert.Equal(t, 1, result.TotalCredit)
}

func TestGetExpensesInRange_InvalidDates(t *testing.T) {
	_, _, svc := newExpenseFixture()

	_, err := svc.GetExpensesInRange(DateRangeRequest{StartDate: "03/01/2024", EndDate: "2024-03-09"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.GetExpensesInRange(DateRangeRequest{StartDate: "2024-03-09", EndDate: "2024-03-01"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetExpensesInRange_WithoutDatesListsEverything(t *testing.T) {
	repo, _, svc := newExpenseFixture()
	_, err := svc.GetExpensesInRange(DateRangeRequest{StartDate: "2024-03-01"})
	require.NoError(t, err)
	assert.Nil(t, repo.lastFilters.From)
	assert.Nil(t, repo.lastFilters.To)
}
