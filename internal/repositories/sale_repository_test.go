package repositories

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"lounge_pos_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func uniqueViolation(constraint string) error {
	return &pq.Error{Code: "23505", Constraint: constraint}
}

var saleRowColumns = []string{
	"id", "transactionid", "orders", "qty", "total", "subtotal", "computer", "ps4", "datetime",
	"customer", "mode_of_payment", "student_discount", "discount", "credit",
}

func TestCreateSale(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSaleRepository(db)

	sale := &models.Sale{
		TransactionID: "tx-1",
		Orders:        models.OrderLines{{Product: "Latte", Quantity: 2}},
		Qty:           2,
		Total:         decimal.NewFromInt(240),
		Datetime:      time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC),
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sales")).
		WithArgs("tx-1", sqlmock.AnyArg(), 2, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sale.Datetime, "", nil, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(17))

	id, err := repo.CreateSale(db, sale)
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)
	assert.Equal(t, int64(17), sale.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSale_DuplicateTransactionID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSaleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sales")).
		WillReturnError(uniqueViolation("sales_transactionid_key"))

	_, err := repo.CreateSale(db, &models.Sale{TransactionID: "tx-1", Datetime: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSale_OtherErrorIsDatabaseError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSaleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sales")).WillReturnError(sql.ErrConnDone)

	_, err := repo.CreateSale(db, &models.Sale{TransactionID: "tx-1", Datetime: time.Now()})
	assert.ErrorIs(t, err, ErrDatabaseError)
	assert.NotErrorIs(t, err, ErrDuplicateKey)
}

func TestFindSaleByTransactionID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSaleRepository(db)
	when := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sales WHERE transactionid = $1")).
		WithArgs("tx-1").
		WillReturnRows(sqlmock.NewRows(saleRowColumns).AddRow(
			3, "tx-1", []byte(`[{"product":"Latte","quantity":2}]`), 2, "240.00", "240.00", "0", "0", when,
			"Juan", "gcash", false, "0", "0",
		))

	sale, err := repo.FindSaleByTransactionID(db, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), sale.ID)
	assert.Equal(t, models.OrderLines{{Product: "Latte", Quantity: 2}}, sale.Orders)
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(240)))
	require.NotNil(t, sale.ModeOfPayment)
	assert.Equal(t, "gcash", *sale.ModeOfPayment)
}

func TestFindSaleByTransactionID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSaleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sales WHERE transactionid = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(saleRowColumns))

	_, err := repo.FindSaleByTransactionID(db, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSumTotals_SinceStartOfDay(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSaleRepository(db)
	since := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(total), 0) FROM sales WHERE datetime >= $1")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("310.50"))

	total, err := repo.SumTotals(&since)
	require.NoError(t, err)
	assert.Equal(t, "310.5", total.String())
}

func TestUpdateSale_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSaleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sales SET")).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateSale(db, &models.Sale{ID: 5})
	assert.ErrorIs(t, err, ErrNotFound)
}
