package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lounge_pos_backend/internal/models"
	"lounge_pos_backend/internal/repositories"
)

var ErrInventoryItemNotFound = errors.New("inventory item not found")

// InventoryOverview is the consumables list with the number of items running low.
type InventoryOverview struct {
	Data []models.InventoryItem `json:"data"`
	Low  int                    `json:"low"`
}

// InventoryService exposes consumable stock and the movement ledger.
type InventoryService interface {
	GetInventory() (*InventoryOverview, error)
	AddStocks(ctx context.Context, id int64, req AddStocksRequest) (*models.InventoryItem, error)
	GetMovements(filters models.InventoryMovementFilters) ([]models.InventoryMovement, int, error)
}

type inventoryService struct {
	inventoryRepo     repositories.InventoryRepository
	movementRepo      repositories.InventoryMovementRepository
	txManager         repositories.TxManager
	lowStockThreshold int
}

// NewInventoryService creates a new instance of InventoryService. Items with
// fewer than lowStockThreshold units count as low.
func NewInventoryService(
	ir repositories.InventoryRepository,
	imr repositories.InventoryMovementRepository,
	txm repositories.TxManager,
	lowStockThreshold int,
) InventoryService {
	return &inventoryService{inventoryRepo: ir, movementRepo: imr, txManager: txm, lowStockThreshold: lowStockThreshold}
}

func (s *inventoryService) GetInventory() (*InventoryOverview, error) {
	items, err := s.inventoryRepo.GetItems()
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	low, err := s.inventoryRepo.CountBelow(s.lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to count low inventory: %w", err)
	}
	return &InventoryOverview{Data: items, Low: low}, nil
}

func (s *inventoryService) AddStocks(ctx context.Context, id int64, req AddStocksRequest) (*models.InventoryItem, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	tx, err := s.txManager.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := s.inventoryRepo.AddStocks(tx, id, req.Quantity)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInventoryItemNotFound
		}
		return nil, fmt.Errorf("failed to add inventory stocks: %w", err)
	}
	movement := models.InventoryMovement{
		StockKind:       models.StockKindInventory,
		Resource:        item.Product,
		MovementType:    models.MovementTypeRestock,
		QuantityChanged: req.Quantity,
		MovementDate:    time.Now(),
	}
	if _, err := s.movementRepo.CreateMovement(tx, &movement); err != nil {
		return nil, fmt.Errorf("failed to record inventory restock: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit inventory restock: %w", err)
	}
	return item, nil
}

func (s *inventoryService) GetMovements(filters models.InventoryMovementFilters) ([]models.InventoryMovement, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 200 {
		filters.PageSize = 50
	}
	movements, total, err := s.movementRepo.GetMovements(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get inventory movements: %w", err)
	}
	return movements, total, nil
}
