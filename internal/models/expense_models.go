package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is an outgoing payment. Credit expenses are unpaid until settled.
type Expense struct {
	ID            int64           `json:"id" db:"id"`
	Expense       string          `json:"expense" db:"expense" binding:"required"`
	Month         *string         `json:"month,omitempty" db:"month"`
	Date          time.Time       `json:"date" db:"date"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	ModeOfPayment *string         `json:"mode_of_payment,omitempty" db:"mode_of_payment"`
	ImagePath     *string         `json:"image_path,omitempty" db:"image_path"`
	Credit        bool            `json:"credit" db:"credit"`
	PaidBy        *string         `json:"paid_by,omitempty" db:"paid_by"`
	SettledBy     *string         `json:"settled_by,omitempty" db:"settled_by"`
	DateSettled   *time.Time      `json:"date_settled,omitempty" db:"date_settled"`
}

// CreditSummary totals the unsettled credit expenses.
type CreditSummary struct {
	TotalCreditAmount decimal.Decimal `json:"totalCreditAmount"`
	CreditCount       int             `json:"creditCount"`
}

// LookupValue is a row of the paid_by or mode_of_payment reference tables.
type LookupValue struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
