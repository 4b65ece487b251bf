package models

import "time"

// InventoryItem is a shared consumable such as cups, lids, straws or forks.
type InventoryItem struct {
	ID      int64  `json:"id" db:"id"`
	Product string `json:"product" db:"product"`
	Stocks  int    `json:"stocks" db:"stocks"`
}

// Stock kinds recorded on a movement.
const (
	StockKindInventory = "inventory"
	StockKindBeverage  = "beverage"
)

// Movement types.
const (
	MovementTypeSale    = "sale"
	MovementTypeRestock = "restock"
)

// InventoryMovement records a change in stock for a consumable or beverage row.
type InventoryMovement struct {
	ID              int64     `json:"id" db:"id"`
	StockKind       string    `json:"stock_kind" db:"stock_kind"`
	Resource        string    `json:"resource" db:"resource"`
	SaleID          *int64    `json:"sale_id,omitempty" db:"sale_id"`
	MovementType    string    `json:"movement_type" db:"movement_type"`
	QuantityChanged int       `json:"quantity_changed" db:"quantity_changed"`
	Reason          *string   `json:"reason,omitempty" db:"reason"`
	MovementDate    time.Time `json:"movement_date" db:"movement_date"`
}

// InventoryMovementFilters narrows the movement ledger listing.
type InventoryMovementFilters struct {
	Resource     *string `form:"resource"`
	MovementType *string `form:"movement_type"`
	SaleID       *int64  `form:"sale_id"`
	Page         int     `form:"page"`
	PageSize     int     `form:"page_size"`
}

// StockChange is the before/after of one stock row touched by a deduction.
type StockChange struct {
	Resource string
	Before   int
	After    int
}

// Delta is the signed quantity the row changed by.
func (c StockChange) Delta() int {
	return c.After - c.Before
}
