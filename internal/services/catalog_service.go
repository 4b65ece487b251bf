package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lounge_pos_backend/internal/models"
	"lounge_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for the catalog ---
var (
	ErrValidation        = errors.New("validation error")
	ErrProductNotFound   = errors.New("product not found")
	ErrFoodNotFound      = errors.New("food not found")
	ErrBeverageNotFound  = errors.New("beverage not found")
	ErrCatalogNameExists = errors.New("catalog name already exists")
)

// ActionAddProduct is published when a product is created.
const ActionAddProduct = "addProduct"

// --- DTOs ---

type CreateProductRequest struct {
	Product string          `json:"product" binding:"required"`
	Price   decimal.Decimal `json:"price"`
	Stocks  int             `json:"stocks" binding:"gte=0"`
	Barista bool            `json:"barista"`
}

type UpdatePriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

// AddStocksRequest increments a stock row. Quantity must be positive.
type AddStocksRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

type CreateFoodRequest struct {
	Product   string          `json:"product" binding:"required"`
	Price     decimal.Decimal `json:"price"`
	Stocks    int             `json:"stocks" binding:"gte=0"`
	Available *bool           `json:"available"`
	Utensils  bool            `json:"utensils"`
}

type UpdateFoodRequest struct {
	Product   *string          `json:"product"`
	Price     *decimal.Decimal `json:"price"`
	Available *bool            `json:"available"`
	Utensils  *bool            `json:"utensils"`
}

type CreateBeverageRequest struct {
	Product   string           `json:"product" binding:"required"`
	Price     *decimal.Decimal `json:"price" binding:"required"`
	Stocks    int              `json:"stocks" binding:"gte=0"`
	Available *bool            `json:"available"`
}

// CatalogService manages products, foods and beverages.
type CatalogService interface {
	GetProducts() ([]models.Product, error)
	GetProductByID(id int64) (*models.Product, error)
	CreateProduct(req CreateProductRequest) (*models.Product, error)
	UpdateProductPrice(id int64, req UpdatePriceRequest) (*models.Product, error)
	AddProductStocks(id int64, req AddStocksRequest) (*models.Product, error)
	DeleteProduct(id int64) error

	GetFoods() ([]models.Food, error)
	CreateFood(req CreateFoodRequest) (*models.Food, error)
	UpdateFood(id int64, req UpdateFoodRequest) (*models.Food, error)

	GetBeverages() ([]models.Beverage, error)
	CreateBeverage(req CreateBeverageRequest) (*models.Beverage, error)
	AddBeverageStocks(ctx context.Context, id int64, req AddStocksRequest) (*models.Beverage, error)
}

type catalogService struct {
	catalogRepo  repositories.CatalogRepository
	movementRepo repositories.InventoryMovementRepository
	db           repositories.SQLExecutor
	txManager    repositories.TxManager
	publisher    EventPublisher
}

// NewCatalogService creates a new instance of CatalogService. publisher may be nil.
func NewCatalogService(
	cr repositories.CatalogRepository,
	imr repositories.InventoryMovementRepository,
	db repositories.SQLExecutor,
	txm repositories.TxManager,
	publisher EventPublisher,
) CatalogService {
	return &catalogService{catalogRepo: cr, movementRepo: imr, db: db, txManager: txm, publisher: publisher}
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	return nil
}

func mapCatalogErr(err error, notFound error, action string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return notFound
	case errors.Is(err, repositories.ErrDuplicateKey):
		return fmt.Errorf("%w: %s", ErrCatalogNameExists, err.Error())
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}

// --- Products ---

func (s *catalogService) GetProducts() ([]models.Product, error) {
	products, err := s.catalogRepo.GetProducts()
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

func (s *catalogService) GetProductByID(id int64) (*models.Product, error) {
	product, err := s.catalogRepo.GetProductByID(id)
	if err != nil {
		return nil, mapCatalogErr(err, ErrProductNotFound, "get product")
	}
	return product, nil
}

func (s *catalogService) CreateProduct(req CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Product)
	if name == "" {
		return nil, fmt.Errorf("%w: product name cannot be empty", ErrValidation)
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}
	product := &models.Product{Name: name, Price: req.Price, Stocks: req.Stocks, Barista: req.Barista}
	if _, err := s.catalogRepo.CreateProduct(s.db, product); err != nil {
		return nil, mapCatalogErr(err, ErrProductNotFound, "create product")
	}
	if s.publisher != nil {
		s.publisher.Publish(ActionAddProduct, product)
	}
	return product, nil
}

func (s *catalogService) UpdateProductPrice(id int64, req UpdatePriceRequest) (*models.Product, error) {
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}
	if err := s.catalogRepo.UpdateProductPrice(s.db, id, req.Price); err != nil {
		return nil, mapCatalogErr(err, ErrProductNotFound, "update product price")
	}
	return s.GetProductByID(id)
}

func (s *catalogService) AddProductStocks(id int64, req AddStocksRequest) (*models.Product, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if _, err := s.catalogRepo.AddProductStocks(s.db, id, req.Quantity); err != nil {
		return nil, mapCatalogErr(err, ErrProductNotFound, "add product stocks")
	}
	return s.GetProductByID(id)
}

func (s *catalogService) DeleteProduct(id int64) error {
	if err := s.catalogRepo.DeleteProduct(s.db, id); err != nil {
		return mapCatalogErr(err, ErrProductNotFound, "delete product")
	}
	return nil
}

// --- Foods ---

func (s *catalogService) GetFoods() ([]models.Food, error) {
	foods, err := s.catalogRepo.GetFoods()
	if err != nil {
		return nil, fmt.Errorf("failed to get foods: %w", err)
	}
	return foods, nil
}

func (s *catalogService) CreateFood(req CreateFoodRequest) (*models.Food, error) {
	name := strings.TrimSpace(req.Product)
	if name == "" {
		return nil, fmt.Errorf("%w: food name cannot be empty", ErrValidation)
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	food := &models.Food{Name: name, Price: req.Price, Stocks: req.Stocks, Available: available, Utensils: req.Utensils}
	if _, err := s.catalogRepo.CreateFood(s.db, food); err != nil {
		return nil, mapCatalogErr(err, ErrFoodNotFound, "create food")
	}
	return food, nil
}

func (s *catalogService) UpdateFood(id int64, req UpdateFoodRequest) (*models.Food, error) {
	food, err := s.catalogRepo.GetFoodByID(id)
	if err != nil {
		return nil, mapCatalogErr(err, ErrFoodNotFound, "get food")
	}

	if req.Product != nil {
		name := strings.TrimSpace(*req.Product)
		if name == "" {
			return nil, fmt.Errorf("%w: food name cannot be empty", ErrValidation)
		}
		food.Name = name
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return nil, err
		}
		food.Price = *req.Price
	}
	if req.Available != nil {
		food.Available = *req.Available
	}
	if req.Utensils != nil {
		food.Utensils = *req.Utensils
	}

	if err := s.catalogRepo.UpdateFood(s.db, food); err != nil {
		return nil, mapCatalogErr(err, ErrFoodNotFound, "update food")
	}
	return food, nil
}

// --- Beverages ---

func (s *catalogService) GetBeverages() ([]models.Beverage, error) {
	beverages, err := s.catalogRepo.GetBeverages()
	if err != nil {
		return nil, fmt.Errorf("failed to get beverages: %w", err)
	}
	return beverages, nil
}

func (s *catalogService) CreateBeverage(req CreateBeverageRequest) (*models.Beverage, error) {
	name := strings.TrimSpace(req.Product)
	if name == "" || req.Price == nil {
		return nil, fmt.Errorf("%w: product and price are required", ErrValidation)
	}
	if err := validatePrice(*req.Price); err != nil {
		return nil, err
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	beverage := &models.Beverage{Name: name, Price: *req.Price, Stocks: req.Stocks, Available: available}
	if _, err := s.catalogRepo.CreateBeverage(s.db, beverage); err != nil {
		return nil, mapCatalogErr(err, ErrBeverageNotFound, "create beverage")
	}
	return beverage, nil
}

// AddBeverageStocks restocks a beverage and records the restock in the movement ledger.
func (s *catalogService) AddBeverageStocks(ctx context.Context, id int64, req AddStocksRequest) (*models.Beverage, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	tx, err := s.txManager.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	beverage, err := s.catalogRepo.AddBeverageStocks(tx, id, req.Quantity)
	if err != nil {
		return nil, mapCatalogErr(err, ErrBeverageNotFound, "add beverage stocks")
	}
	movement := models.InventoryMovement{
		StockKind:       models.StockKindBeverage,
		Resource:        beverage.Name,
		MovementType:    models.MovementTypeRestock,
		QuantityChanged: req.Quantity,
		MovementDate:    time.Now(),
	}
	if _, err := s.movementRepo.CreateMovement(tx, &movement); err != nil {
		return nil, fmt.Errorf("failed to record beverage restock: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit beverage restock: %w", err)
	}
	return beverage, nil
}
