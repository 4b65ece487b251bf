package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine is a single sold item inside a sale. Lines reference catalog
// entries by product name, not by id.
type OrderLine struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// OrderLines is stored as a JSON document in the sales.orders column.
type OrderLines []OrderLine

// Value implements driver.Valuer.
func (l OrderLines) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshalling order lines: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (l *OrderLines) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = OrderLines{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("order lines: unsupported column type")
	}
	return json.Unmarshal(raw, l)
}

// TotalQuantity sums the quantity over every line.
func (l OrderLines) TotalQuantity() int {
	qty := 0
	for _, line := range l {
		qty += line.Quantity
	}
	return qty
}

// DistinctProducts returns product names in first-seen order.
func (l OrderLines) DistinctProducts() []string {
	seen := make(map[string]struct{}, len(l))
	names := make([]string, 0, len(l))
	for _, line := range l {
		if _, ok := seen[line.Product]; ok {
			continue
		}
		seen[line.Product] = struct{}{}
		names = append(names, line.Product)
	}
	return names
}

// Sale is one checkout event. TransactionID is the client-supplied
// idempotency key and is unique across all sales.
type Sale struct {
	ID              int64           `json:"id" db:"id"`
	TransactionID   string          `json:"transactionId" db:"transactionid"`
	Orders          OrderLines      `json:"orders" db:"orders"`
	Qty             int             `json:"qty" db:"qty"`
	Total           decimal.Decimal `json:"total" db:"total"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	Computer        decimal.Decimal `json:"computer" db:"computer"`
	PS4             decimal.Decimal `json:"ps4" db:"ps4"`
	Datetime        time.Time       `json:"datetime" db:"datetime"`
	Customer        string          `json:"customer" db:"customer"`
	ModeOfPayment   *string         `json:"mode_of_payment,omitempty" db:"mode_of_payment"`
	StudentDiscount bool            `json:"student_discount" db:"student_discount"`
	Discount        decimal.Decimal `json:"discount" db:"discount"`
	Credit          decimal.Decimal `json:"credit" db:"credit"`
}

// SalesSummary is pushed to terminals when they subscribe and after changes.
type SalesSummary struct {
	SalesCurrentDate []Sale          `json:"salesCurrentDate"`
	TotalSum         decimal.Decimal `json:"total_sum"`
	TotalSumToday    decimal.Decimal `json:"total_sum_today"`
}
