package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lounge_pos_backend/internal/models"

	"github.com/shopspring/decimal"
)

// SaleRepository defines the interface for sale-related database operations.
type SaleRepository interface {
	CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error)
	FindSaleByTransactionID(executor SQLExecutor, transactionID string) (*models.Sale, error) // Used inside the recording transaction
	GetSaleByTransactionID(transactionID string) (*models.Sale, error)
	GetSaleByID(id int64) (*models.Sale, error)
	GetSales() ([]models.Sale, error)
	GetSalesBetween(start, end time.Time) ([]models.Sale, error)
	SumTotals(since *time.Time) (decimal.Decimal, error)
	UpdateSale(executor SQLExecutor, sale *models.Sale) error
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

const saleColumns = `id, transactionid, orders, qty, total, subtotal, computer, ps4, datetime,
	customer, mode_of_payment, student_discount, discount, credit`

func scanSale(row scanner) (*models.Sale, error) {
	sale := &models.Sale{}
	var modeOfPayment sql.NullString
	err := row.Scan(
		&sale.ID, &sale.TransactionID, &sale.Orders, &sale.Qty, &sale.Total, &sale.Subtotal,
		&sale.Computer, &sale.PS4, &sale.Datetime, &sale.Customer, &modeOfPayment,
		&sale.StudentDiscount, &sale.Discount, &sale.Credit,
	)
	if err != nil {
		return nil, err
	}
	if modeOfPayment.Valid {
		mode := modeOfPayment.String
		sale.ModeOfPayment = &mode
	}
	return sale, nil
}

// CreateSale inserts the sale row. A second sale with the same transaction id
// is rejected by the sales_transactionid_key constraint and reported as ErrDuplicateKey.
func (r *saleRepository) CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error) {
	query := `INSERT INTO sales
	            (transactionid, orders, qty, total, subtotal, computer, ps4, datetime,
	             customer, mode_of_payment, student_discount, discount, credit)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`

	if sale.Datetime.IsZero() {
		sale.Datetime = time.Now()
	}

	err := executor.QueryRow(query,
		sale.TransactionID, sale.Orders, sale.Qty, sale.Total, sale.Subtotal, sale.Computer, sale.PS4,
		sale.Datetime, sale.Customer, sale.ModeOfPayment, sale.StudentDiscount, sale.Discount, sale.Credit,
	).Scan(&sale.ID)
	if err != nil {
		if pqErr, ok := isUniqueViolation(err); ok {
			return 0, fmt.Errorf("%w: transaction id '%s' already recorded (constraint: %s)", ErrDuplicateKey, sale.TransactionID, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating sale: %v", ErrDatabaseError, err)
	}
	return sale.ID, nil
}

func (r *saleRepository) FindSaleByTransactionID(executor SQLExecutor, transactionID string) (*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE transactionid = $1`
	sale, err := scanSale(executor.QueryRow(query, transactionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale by transaction id %s: %v", ErrDatabaseError, transactionID, err)
	}
	return sale, nil
}

func (r *saleRepository) GetSaleByTransactionID(transactionID string) (*models.Sale, error) {
	return r.FindSaleByTransactionID(r.db, transactionID)
}

func (r *saleRepository) GetSaleByID(id int64) (*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`
	sale, err := scanSale(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale by ID %d: %v", ErrDatabaseError, id, err)
	}
	return sale, nil
}

func (r *saleRepository) GetSales() ([]models.Sale, error) {
	return r.querySales(`SELECT `+saleColumns+` FROM sales ORDER BY id DESC`)
}

// GetSalesBetween returns sales with start <= datetime < end, newest first.
func (r *saleRepository) GetSalesBetween(start, end time.Time) ([]models.Sale, error) {
	return r.querySales(`SELECT `+saleColumns+` FROM sales WHERE datetime >= $1 AND datetime < $2 ORDER BY id DESC`, start, end)
}

func (r *saleRepository) querySales(query string, args ...interface{}) ([]models.Sale, error) {
	sales := []models.Sale{}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sales: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning sale: %v", ErrDatabaseError, err)
		}
		sales = append(sales, *sale)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sale rows: %v", ErrDatabaseError, err)
	}
	return sales, nil
}

// SumTotals sums sale totals, optionally only from since onwards.
func (r *saleRepository) SumTotals(since *time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	var err error
	if since != nil {
		err = r.db.QueryRow(`SELECT COALESCE(SUM(total), 0) FROM sales WHERE datetime >= $1`, *since).Scan(&total)
	} else {
		err = r.db.QueryRow(`SELECT COALESCE(SUM(total), 0) FROM sales`).Scan(&total)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: summing sale totals: %v", ErrDatabaseError, err)
	}
	return total, nil
}

// UpdateSale applies an administrative correction. Order lines, quantity and
// transaction id are never rewritten because inventory was deducted from them.
func (r *saleRepository) UpdateSale(executor SQLExecutor, sale *models.Sale) error {
	query := `UPDATE sales SET
	            total = $1, subtotal = $2, computer = $3, ps4 = $4, customer = $5,
	            mode_of_payment = $6, student_discount = $7, discount = $8, credit = $9
	          WHERE id = $10`
	result, err := executor.Exec(query,
		sale.Total, sale.Subtotal, sale.Computer, sale.PS4, sale.Customer,
		sale.ModeOfPayment, sale.StudentDiscount, sale.Discount, sale.Credit, sale.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating sale ID %d: %v", ErrDatabaseError, sale.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for sale update ID %d: %v", ErrDatabaseError, sale.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
