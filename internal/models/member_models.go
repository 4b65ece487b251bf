package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Member is a loyalty account. Sales are linked to members by name.
type Member struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name" binding:"required"`
	Email       *string         `json:"email,omitempty" db:"email"`
	DateJoined  *time.Time      `json:"date_joined,omitempty" db:"date_joined"`
	Coffee      decimal.Decimal `json:"coffee" db:"coffee"`
	TotalLoad   decimal.Decimal `json:"total_load" db:"total_load"`
	TotalSpent  decimal.Decimal `json:"total_spent" db:"total_spent"`
	LastSpent   *time.Time      `json:"last_spent,omitempty" db:"last_spent"`
	CurrentLoad decimal.Decimal `json:"current_load" db:"current_load"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// MemberTransaction is a sale seen from the member's history page.
type MemberTransaction struct {
	Datetime time.Time       `json:"datetime"`
	Total    decimal.Decimal `json:"total"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Computer decimal.Decimal `json:"computer"`
	Orders   OrderLines      `json:"orders"`
	Qty      int             `json:"qty"`
}

// MemberDetail is a member with one page of their sales history.
type MemberDetail struct {
	Member
	Transactions []MemberTransaction `json:"transactions"`
	TotalRecords int                 `json:"totalRecords"`
	TotalPages   int                 `json:"totalPages"`
	PageNumber   int                 `json:"pageNumber"`
}

// MemberLoad is one row of a current-load import.
type MemberLoad struct {
	Name        string
	CurrentLoad decimal.Decimal
}
