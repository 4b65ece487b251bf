package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lounge_pos_backend/internal/models"

	"github.com/shopspring/decimal"
)

// ExpenseFilters narrows an expense listing. Zero values mean no filter.
type ExpenseFilters struct {
	PaidBy *string
	From   *time.Time
	To     *time.Time
}

// ExpenseRepository defines the interface for expense-related database operations.
type ExpenseRepository interface {
	CreateExpense(executor SQLExecutor, expense *models.Expense) (int64, error)
	GetExpensesPage(page, pageSize int) ([]models.Expense, int, error)
	GetExpenses(filters ExpenseFilters) ([]models.Expense, error)
	GetCreditSummary(paidBy *string) (*models.CreditSummary, error)
	SettleExpense(executor SQLExecutor, id int64, settledBy string, settledAt time.Time) (decimal.Decimal, error) // Returns the settled amount
	GetPaidByOptions() ([]models.LookupValue, error)
	GetModesOfPayment() ([]models.LookupValue, error)
}

type expenseRepository struct {
	db *sql.DB
}

// NewExpenseRepository creates a new instance of ExpenseRepository.
func NewExpenseRepository(db *sql.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

const expenseColumns = `id, expense, month, date, amount, mode_of_payment, image_path, credit, paid_by, settled_by, date_settled`

func scanExpense(row scanner, extra ...interface{}) (*models.Expense, error) {
	e := &models.Expense{}
	dest := []interface{}{
		&e.ID, &e.Expense, &e.Month, &e.Date, &e.Amount, &e.ModeOfPayment,
		&e.ImagePath, &e.Credit, &e.PaidBy, &e.SettledBy, &e.DateSettled,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *expenseRepository) CreateExpense(executor SQLExecutor, expense *models.Expense) (int64, error) {
	query := `INSERT INTO expenses (expense, month, date, amount, mode_of_payment, image_path, credit, paid_by, settled_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	if expense.Date.IsZero() {
		expense.Date = time.Now()
	}
	err := executor.QueryRow(query,
		expense.Expense, expense.Month, expense.Date, expense.Amount, expense.ModeOfPayment,
		expense.ImagePath, expense.Credit, expense.PaidBy, expense.SettledBy,
	).Scan(&expense.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating expense: %v", ErrDatabaseError, err)
	}
	return expense.ID, nil
}

// GetExpensesPage lists expenses with outstanding credit first.
func (r *expenseRepository) GetExpensesPage(page, pageSize int) ([]models.Expense, int, error) {
	expenses := []models.Expense{}
	totalCount := 0

	query := `SELECT ` + expenseColumns + `, COUNT(*) OVER() AS total_count
	          FROM expenses
	          ORDER BY credit DESC, id DESC
	          LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(query, pageSize, pageOffset(page, pageSize))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying expense page: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanExpense(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning expense: %v", ErrDatabaseError, err)
		}
		expenses = append(expenses, *e)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating expense rows: %v", ErrDatabaseError, err)
	}
	return expenses, totalCount, nil
}

// GetExpenses lists every expense matching filters. Date-filtered listings are
// ordered by date; the rest keep outstanding credit first.
func (r *expenseRepository) GetExpenses(filters ExpenseFilters) ([]models.Expense, error) {
	expenses := []models.Expense{}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + expenseColumns + ` FROM expenses`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.PaidBy != nil && *filters.PaidBy != "" {
		conditions = append(conditions, fmt.Sprintf("paid_by = $%d", argCount))
		args = append(args, *filters.PaidBy)
		argCount++
	}
	if filters.From != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", argCount))
		args = append(args, *filters.From)
		argCount++
	}
	if filters.To != nil {
		conditions = append(conditions, fmt.Sprintf("date < $%d", argCount))
		args = append(args, *filters.To)
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	if filters.From != nil || filters.To != nil {
		queryBuilder.WriteString(" ORDER BY date DESC, id DESC")
	} else {
		queryBuilder.WriteString(" ORDER BY credit DESC, id DESC")
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying expenses: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning expense: %v", ErrDatabaseError, err)
		}
		expenses = append(expenses, *e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating expense rows: %v", ErrDatabaseError, err)
	}
	return expenses, nil
}

func (r *expenseRepository) GetCreditSummary(paidBy *string) (*models.CreditSummary, error) {
	summary := &models.CreditSummary{}
	query := `SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM expenses WHERE credit = true`
	args := []interface{}{}
	if paidBy != nil && *paidBy != "" {
		query += ` AND paid_by = $1`
		args = append(args, *paidBy)
	}
	if err := r.db.QueryRow(query, args...).Scan(&summary.TotalCreditAmount, &summary.CreditCount); err != nil {
		return nil, fmt.Errorf("%w: summing credit expenses: %v", ErrDatabaseError, err)
	}
	return summary, nil
}

func (r *expenseRepository) SettleExpense(executor SQLExecutor, id int64, settledBy string, settledAt time.Time) (decimal.Decimal, error) {
	var amount decimal.Decimal
	query := `UPDATE expenses SET credit = false, settled_by = $1, date_settled = $2
	          WHERE id = $3
	          RETURNING amount`
	err := executor.QueryRow(query, settledBy, settledAt, id).Scan(&amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("%w: settling expense ID %d: %v", ErrDatabaseError, id, err)
	}
	return amount, nil
}

func (r *expenseRepository) GetPaidByOptions() ([]models.LookupValue, error) {
	return r.queryLookup(`SELECT id, name FROM paid_by ORDER BY id ASC`)
}

func (r *expenseRepository) GetModesOfPayment() ([]models.LookupValue, error) {
	return r.queryLookup(`SELECT id, name FROM mode_of_payment ORDER BY id ASC`)
}

func (r *expenseRepository) queryLookup(query string) ([]models.LookupValue, error) {
	values := []models.LookupValue{}
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying lookup values: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v models.LookupValue
		if err := rows.Scan(&v.ID, &v.Name); err != nil {
			return nil, fmt.Errorf("%w: scanning lookup value: %v", ErrDatabaseError, err)
		}
		values = append(values, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating lookup values: %v", ErrDatabaseError, err)
	}
	return values, nil
}
