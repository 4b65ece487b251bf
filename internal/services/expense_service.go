package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lounge_pos_backend/internal/models"
	"lounge_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

var ErrExpenseNotFound = errors.New("expense not found")

// ActionDeductCredit is published when a credit expense is settled.
const ActionDeductCredit = "deductCredit"

// --- DTOs ---

type CreateExpenseRequest struct {
	Expense       string          `json:"expense" binding:"required"`
	Month         *string         `json:"month"`
	Date          *time.Time      `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	ModeOfPayment *string         `json:"mode_of_payment"`
	ImagePath     *string         `json:"image_path"`
	Credit        bool            `json:"credit"`
	PaidBy        *string         `json:"paid_by"`
}

// SettleExpenseRequest optionally names who settled the credit.
type SettleExpenseRequest struct {
	SettledBy string `json:"settled_by"`
}

// DateRangeRequest filters expenses by business-day range and payer.
// Dates are YYYY-MM-DD.
type DateRangeRequest struct {
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	PaidBy    *string `json:"paidBy"`
}

// ExpensePage is a page of expenses with the outstanding credit summary.
type ExpensePage struct {
	models.Page[models.Expense]
	TotalCreditAmount models.CreditSummary `json:"total_credit_amount"`
}

// FilteredExpenses are the expenses of one payer with their credit summary.
type FilteredExpenses struct {
	Data              []models.Expense     `json:"data"`
	TotalCreditAmount models.CreditSummary `json:"total_credit_amount"`
}

// ExpenseRange is a date-range listing with its totals.
type ExpenseRange struct {
	Data        []models.Expense `json:"data"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	TotalCredit int              `json:"total_credit"`
}

// SettlementResult is returned after paying off a credit expense.
type SettlementResult struct {
	ExpenseID         int64                `json:"expense"`
	DeductedAmount    decimal.Decimal      `json:"deductedAmount"`
	TotalCreditAmount models.CreditSummary `json:"totalCreditAmount"`
}

// ExpenseService records outgoing payments and settles credit.
type ExpenseService interface {
	GetExpensesPage(page, limit int) (*ExpensePage, error)
	CreateExpense(req CreateExpenseRequest) (*models.Expense, error)
	SettleExpense(ctx context.Context, id int64, req SettleExpenseRequest) (*SettlementResult, error)
	GetPaidByOptions() ([]models.LookupValue, error)
	GetModesOfPayment() ([]models.LookupValue, error)
	FilterByPaidBy(paidBy *string) (*FilteredExpenses, error)
	GetExpensesInRange(req DateRangeRequest) (*ExpenseRange, error)
}

type expenseService struct {
	expenseRepo      repositories.ExpenseRepository
	db               repositories.SQLExecutor
	txManager        repositories.TxManager
	publisher        EventPublisher
	defaultSettledBy string
	loc              *time.Location
	now              func() time.Time
}

// NewExpenseService creates a new instance of ExpenseService. defaultSettledBy
// is recorded when a settlement request names nobody.
func NewExpenseService(
	er repositories.ExpenseRepository,
	db repositories.SQLExecutor,
	txm repositories.TxManager,
	publisher EventPublisher,
	defaultSettledBy string,
	loc *time.Location,
) ExpenseService {
	if loc == nil {
		loc = time.UTC
	}
	return &expenseService{
		expenseRepo:      er,
		db:               db,
		txManager:        txm,
		publisher:        publisher,
		defaultSettledBy: defaultSettledBy,
		loc:              loc,
		now:              time.Now,
	}
}

func (s *expenseService) creditSummary(paidBy *string) (models.CreditSummary, error) {
	summary, err := s.expenseRepo.GetCreditSummary(paidBy)
	if err != nil {
		return models.CreditSummary{}, fmt.Errorf("failed to sum credit expenses: %w", err)
	}
	return *summary, nil
}

func (s *expenseService) GetExpensesPage(page, limit int) (*ExpensePage, error) {
	page, limit = normalizePage(page, limit)
	expenses, total, err := s.expenseRepo.GetExpensesPage(page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}
	summary, err := s.creditSummary(nil)
	if err != nil {
		return nil, err
	}
	return &ExpensePage{Page: models.NewPage(expenses, total, page, limit), TotalCreditAmount: summary}, nil
}

func (s *expenseService) CreateExpense(req CreateExpenseRequest) (*models.Expense, error) {
	if strings.TrimSpace(req.Expense) == "" {
		return nil, fmt.Errorf("%w: expense description cannot be empty", ErrValidation)
	}
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	}
	expense := &models.Expense{
		Expense:       strings.TrimSpace(req.Expense),
		Month:         req.Month,
		Amount:        req.Amount,
		ModeOfPayment: req.ModeOfPayment,
		ImagePath:     req.ImagePath,
		Credit:        req.Credit,
		PaidBy:        req.PaidBy,
		Date:          s.now().In(s.loc),
	}
	if req.Date != nil {
		expense.Date = req.Date.In(s.loc)
	}
	if _, err := s.expenseRepo.CreateExpense(s.db, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	return expense, nil
}

// SettleExpense marks a credit expense as paid and broadcasts the new credit total.
func (s *expenseService) SettleExpense(ctx context.Context, id int64, req SettleExpenseRequest) (*SettlementResult, error) {
	settledBy := strings.TrimSpace(req.SettledBy)
	if settledBy == "" {
		settledBy = s.defaultSettledBy
	}

	tx, err := s.txManager.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	amount, err := s.expenseRepo.SettleExpense(tx, id, settledBy, s.now().In(s.loc))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to settle expense: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expense settlement: %w", err)
	}

	summary, err := s.creditSummary(nil)
	if err != nil {
		return nil, err
	}
	result := &SettlementResult{ExpenseID: id, DeductedAmount: amount, TotalCreditAmount: summary}
	if s.publisher != nil {
		s.publisher.Publish(ActionDeductCredit, result)
	}
	return result, nil
}

func (s *expenseService) GetPaidByOptions() ([]models.LookupValue, error) {
	values, err := s.expenseRepo.GetPaidByOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to get paid-by options: %w", err)
	}
	return values, nil
}

func (s *expenseService) GetModesOfPayment() ([]models.LookupValue, error) {
	values, err := s.expenseRepo.GetModesOfPayment()
	if err != nil {
		return nil, fmt.Errorf("failed to get modes of payment: %w", err)
	}
	return values, nil
}

func (s *expenseService) FilterByPaidBy(paidBy *string) (*FilteredExpenses, error) {
	expenses, err := s.expenseRepo.GetExpenses(repositories.ExpenseFilters{PaidBy: paidBy})
	if err != nil {
		return nil, fmt.Errorf("failed to filter expenses: %w", err)
	}
	summary, err := s.creditSummary(paidBy)
	if err != nil {
		return nil, err
	}
	return &FilteredExpenses{Data: expenses, TotalCreditAmount: summary}, nil
}

// GetExpensesInRange lists expenses from the start of StartDate to the end of
// EndDate in the business timezone. The range applies only when both dates are given.
func (s *expenseService) GetExpensesInRange(req DateRangeRequest) (*ExpenseRange, error) {
	filters := repositories.ExpenseFilters{PaidBy: req.PaidBy}
	if req.StartDate != "" && req.EndDate != "" {
		start, err := time.ParseInLocation("2006-01-02", req.StartDate, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid startDate '%s'", ErrValidation, req.StartDate)
		}
		end, err := time.ParseInLocation("2006-01-02", req.EndDate, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid endDate '%s'", ErrValidation, req.EndDate)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("%w: endDate is before startDate", ErrValidation)
		}
		endExclusive := end.AddDate(0, 0, 1)
		filters.From = &start
		filters.To = &endExclusive
	}

	expenses, err := s.expenseRepo.GetExpenses(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses in range: %w", err)
	}
	result := &ExpenseRange{Data: expenses, TotalAmount: decimal.Zero}
	for _, e := range expenses {
		result.TotalAmount = result.TotalAmount.Add(e.Amount)
		if e.Credit {
			result.TotalCredit++
		}
	}
	return result, nil
}
