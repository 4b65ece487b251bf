package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a menu item prepared at the bar. Barista products consume
// cups, lids and straws when sold.
type Product struct {
	ID      int64           `json:"id" db:"id"`
	Name    string          `json:"product" db:"product" binding:"required"`
	Price   decimal.Decimal `json:"price" db:"price"`
	Stocks  int             `json:"stocks" db:"stocks"`
	Barista bool            `json:"barista" db:"barista"`
}

// Food is a kitchen item. Utensil foods consume forks when sold.
type Food struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"product" db:"product" binding:"required"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Stocks    int             `json:"stocks" db:"stocks"`
	Available bool            `json:"available" db:"available"`
	Utensils  bool            `json:"utensils" db:"utensils"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Beverage is a bottled or canned drink with its own stock row.
type Beverage struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"product" db:"product" binding:"required"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Stocks    int             `json:"stocks" db:"stocks"`
	Available bool            `json:"available" db:"available"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Classification groups sold product names by the resources they consume.
type Classification string

const (
	ClassificationBarista  Classification = "barista"
	ClassificationUtensils Classification = "utensils"
	ClassificationBeverage Classification = "beverage"
)

// NameSet is a set of catalog product names.
type NameSet map[string]struct{}

// NewNameSet builds a set from names.
func NewNameSet(names ...string) NameSet {
	set := make(NameSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Classified maps each classification to the product names that matched it.
type Classified map[Classification]NameSet
