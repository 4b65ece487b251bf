package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"lounge_pos_backend/internal/models"

	"github.com/lib/pq"
)

// InventoryRepository defines the interface for shared consumables (cups, lids, straws, forks).
type InventoryRepository interface {
	GetItems() ([]models.InventoryItem, error)
	GetItemByID(id int64) (*models.InventoryItem, error)
	CountBelow(threshold int) (int, error)
	AddStocks(executor SQLExecutor, id int64, quantity int) (*models.InventoryItem, error)
	DecrementStocks(executor SQLExecutor, resources []string, quantity int) ([]models.StockChange, error)
}

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository(db *sql.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) GetItems() ([]models.InventoryItem, error) {
	items := []models.InventoryItem{}
	rows, err := r.db.Query(`SELECT id, product, stocks FROM inventory ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying inventory: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.InventoryItem
		if err := rows.Scan(&item.ID, &item.Product, &item.Stocks); err != nil {
			return nil, fmt.Errorf("%w: scanning inventory item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating inventory rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *inventoryRepository) GetItemByID(id int64) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	err := r.db.QueryRow(`SELECT id, product, stocks FROM inventory WHERE id = $1`, id).Scan(&item.ID, &item.Product, &item.Stocks)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting inventory item by ID %d: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

// CountBelow counts items whose stock is under threshold.
func (r *inventoryRepository) CountBelow(threshold int) (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM inventory WHERE stocks < $1`, threshold).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting low inventory: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *inventoryRepository) AddStocks(executor SQLExecutor, id int64, quantity int) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	query := `UPDATE inventory SET stocks = stocks + $1 WHERE id = $2 RETURNING id, product, stocks`
	err := executor.QueryRow(query, quantity, id).Scan(&item.ID, &item.Product, &item.Stocks)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: adding stocks for inventory ID %d: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

// DecrementStocks lowers every named inventory row by quantity, never below zero.
// Resources with no row are skipped; the returned changes cover only rows that exist.
func (r *inventoryRepository) DecrementStocks(executor SQLExecutor, resources []string, quantity int) ([]models.StockChange, error) {
	query := `WITH locked AS (
	              SELECT id, stocks FROM inventory WHERE product = ANY($2) FOR UPDATE
	          )
	          UPDATE inventory i
	          SET stocks = GREATEST(locked.stocks - $1, 0)
	          FROM locked
	          WHERE i.id = locked.id
	          RETURNING i.product, locked.stocks, i.stocks`
	changes, err := queryStockChanges(executor, query, quantity, pq.Array(resources))
	if err != nil {
		return nil, fmt.Errorf("%w: decrementing inventory stocks: %v", ErrDatabaseError, err)
	}
	return changes, nil
}
