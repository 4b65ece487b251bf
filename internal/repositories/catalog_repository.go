package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lounge_pos_backend/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// CatalogRepository defines the interface for products, foods and beverages.
// Sold order lines are matched against these tables by product name.
type CatalogRepository interface {
	// Product methods
	CreateProduct(executor SQLExecutor, product *models.Product) (int64, error)
	GetProductByID(id int64) (*models.Product, error)
	GetProducts() ([]models.Product, error)
	UpdateProductPrice(executor SQLExecutor, id int64, price decimal.Decimal) error
	AddProductStocks(executor SQLExecutor, id int64, quantity int) (int, error) // Returns new stock level
	DeleteProduct(executor SQLExecutor, id int64) error

	// Food methods
	CreateFood(executor SQLExecutor, food *models.Food) (int64, error)
	GetFoodByID(id int64) (*models.Food, error)
	GetFoods() ([]models.Food, error)
	UpdateFood(executor SQLExecutor, food *models.Food) error

	// Beverage methods
	CreateBeverage(executor SQLExecutor, beverage *models.Beverage) (int64, error)
	GetBeverages() ([]models.Beverage, error)
	AddBeverageStocks(executor SQLExecutor, id int64, quantity int) (*models.Beverage, error)

	// Sale support
	ClassifyProductNames(executor SQLExecutor, names []string) (models.Classified, error)
	DecrementBeverageStocks(executor SQLExecutor, names []string, quantity int) ([]models.StockChange, error)
}

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository.
func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// classificationQueries selects, for each classification, which of the given
// names ($1) qualify.
var classificationQueries = map[models.Classification]string{
	models.ClassificationBarista:  `SELECT DISTINCT product FROM products WHERE barista = true AND product = ANY($1)`,
	models.ClassificationUtensils: `SELECT DISTINCT product FROM foods WHERE utensils = true AND product = ANY($1)`,
	models.ClassificationBeverage: `SELECT DISTINCT product FROM beverage WHERE product = ANY($1)`,
}

// --- Product Methods ---

func (r *catalogRepository) CreateProduct(executor SQLExecutor, product *models.Product) (int64, error) {
	query := `INSERT INTO products (product, price, stocks, barista)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	err := executor.QueryRow(query, product.Name, product.Price, product.Stocks, product.Barista).Scan(&product.ID)
	if err != nil {
		if pqErr, ok := isUniqueViolation(err); ok {
			return 0, fmt.Errorf("%w: product '%s' already exists (constraint: %s)", ErrDuplicateKey, product.Name, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	return product.ID, nil
}

func (r *catalogRepository) GetProductByID(id int64) (*models.Product, error) {
	product := &models.Product{}
	query := `SELECT id, product, price, stocks, barista FROM products WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&product.ID, &product.Name, &product.Price, &product.Stocks, &product.Barista)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, id, err)
	}
	return product, nil
}

func (r *catalogRepository) GetProducts() ([]models.Product, error) {
	products := []models.Product{}
	rows, err := r.db.Query(`SELECT id, product, price, stocks, barista FROM products ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stocks, &p.Barista); err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *catalogRepository) UpdateProductPrice(executor SQLExecutor, id int64, price decimal.Decimal) error {
	result, err := executor.Exec(`UPDATE products SET price = $1 WHERE id = $2`, price, id)
	if err != nil {
		return fmt.Errorf("%w: updating price for product ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *catalogRepository) AddProductStocks(executor SQLExecutor, id int64, quantity int) (int, error) {
	var newStock int
	query := `UPDATE products SET stocks = stocks + $1 WHERE id = $2 RETURNING stocks`
	err := executor.QueryRow(query, quantity, id).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: adding stocks for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return newStock, nil
}

func (r *catalogRepository) DeleteProduct(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting product ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Food Methods ---

func (r *catalogRepository) CreateFood(executor SQLExecutor, food *models.Food) (int64, error) {
	query := `INSERT INTO foods (product, price, stocks, available, utensils, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if food.CreatedAt.IsZero() {
		food.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query, food.Name, food.Price, food.Stocks, food.Available, food.Utensils, food.CreatedAt).Scan(&food.ID)
	if err != nil {
		if pqErr, ok := isUniqueViolation(err); ok {
			return 0, fmt.Errorf("%w: food '%s' already exists (constraint: %s)", ErrDuplicateKey, food.Name, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating food: %v", ErrDatabaseError, err)
	}
	return food.ID, nil
}

func (r *catalogRepository) GetFoodByID(id int64) (*models.Food, error) {
	f := &models.Food{}
	query := `SELECT id, product, price, stocks, available, utensils, created_at FROM foods WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&f.ID, &f.Name, &f.Price, &f.Stocks, &f.Available, &f.Utensils, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting food by ID %d: %v", ErrDatabaseError, id, err)
	}
	return f, nil
}

func (r *catalogRepository) GetFoods() ([]models.Food, error) {
	foods := []models.Food{}
	rows, err := r.db.Query(`SELECT id, product, price, stocks, available, utensils, created_at FROM foods ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying foods: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var f models.Food
		if err := rows.Scan(&f.ID, &f.Name, &f.Price, &f.Stocks, &f.Available, &f.Utensils, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning food: %v", ErrDatabaseError, err)
		}
		foods = append(foods, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating food rows: %v", ErrDatabaseError, err)
	}
	return foods, nil
}

func (r *catalogRepository) UpdateFood(executor SQLExecutor, food *models.Food) error {
	query := `UPDATE foods SET product = $1, price = $2, available = $3, utensils = $4 WHERE id = $5`
	result, err := executor.Exec(query, food.Name, food.Price, food.Available, food.Utensils, food.ID)
	if err != nil {
		if pqErr, ok := isUniqueViolation(err); ok {
			return fmt.Errorf("%w: food '%s' already exists (constraint: %s)", ErrDuplicateKey, food.Name, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating food ID %d: %v", ErrDatabaseError, food.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Beverage Methods ---

func (r *catalogRepository) CreateBeverage(executor SQLExecutor, beverage *models.Beverage) (int64, error) {
	query := `INSERT INTO beverage (product, price, stocks, available, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	if beverage.CreatedAt.IsZero() {
		beverage.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query, beverage.Name, beverage.Price, beverage.Stocks, beverage.Available, beverage.CreatedAt).Scan(&beverage.ID)
	if err != nil {
		if pqErr, ok := isUniqueViolation(err); ok {
			return 0, fmt.Errorf("%w: beverage '%s' already exists (constraint: %s)", ErrDuplicateKey, beverage.Name, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating beverage: %v", ErrDatabaseError, err)
	}
	return beverage.ID, nil
}

func (r *catalogRepository) GetBeverages() ([]models.Beverage, error) {
	beverages := []models.Beverage{}
	rows, err := r.db.Query(`SELECT id, product, price, stocks, available, created_at FROM beverage ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying beverages: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var b models.Beverage
		if err := rows.Scan(&b.ID, &b.Name, &b.Price, &b.Stocks, &b.Available, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning beverage: %v", ErrDatabaseError, err)
		}
		beverages = append(beverages, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating beverage rows: %v", ErrDatabaseError, err)
	}
	return beverages, nil
}

func (r *catalogRepository) AddBeverageStocks(executor SQLExecutor, id int64, quantity int) (*models.Beverage, error) {
	b := &models.Beverage{}
	query := `UPDATE beverage SET stocks = stocks + $1 WHERE id = $2
	          RETURNING id, product, price, stocks, available, created_at`
	err := executor.QueryRow(query, quantity, id).Scan(&b.ID, &b.Name, &b.Price, &b.Stocks, &b.Available, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: adding stocks for beverage ID %d: %v", ErrDatabaseError, id, err)
	}
	return b, nil
}

// --- Sale Support ---

// ClassifyProductNames runs one lookup per classification and returns the
// names that matched each. Classifications are independent: a name may
// appear under several of them.
func (r *catalogRepository) ClassifyProductNames(executor SQLExecutor, names []string) (models.Classified, error) {
	classified := make(models.Classified, len(classificationQueries))
	if len(names) == 0 {
		return classified, nil
	}
	for classification, query := range classificationQueries {
		matched, err := queryNameSet(executor, query, pq.Array(names))
		if err != nil {
			return nil, fmt.Errorf("%w: classifying %s products: %v", ErrDatabaseError, classification, err)
		}
		classified[classification] = matched
	}
	return classified, nil
}

// DecrementBeverageStocks lowers every named beverage row by quantity, never below zero.
func (r *catalogRepository) DecrementBeverageStocks(executor SQLExecutor, names []string, quantity int) ([]models.StockChange, error) {
	query := `WITH locked AS (
	              SELECT id, stocks FROM beverage WHERE product = ANY($2) FOR UPDATE
	          )
	          UPDATE beverage b
	          SET stocks = GREATEST(locked.stocks - $1, 0)
	          FROM locked
	          WHERE b.id = locked.id
	          RETURNING b.product, locked.stocks, b.stocks`
	changes, err := queryStockChanges(executor, query, quantity, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("%w: decrementing beverage stocks: %v", ErrDatabaseError, err)
	}
	return changes, nil
}

func queryNameSet(executor SQLExecutor, query string, args ...interface{}) (models.NameSet, error) {
	rows, err := executor.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := models.NameSet{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		set[name] = struct{}{}
	}
	return set, rows.Err()
}

func queryStockChanges(executor SQLExecutor, query string, args ...interface{}) ([]models.StockChange, error) {
	rows, err := executor.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := []models.StockChange{}
	for rows.Next() {
		var c models.StockChange
		if err := rows.Scan(&c.Resource, &c.Before, &c.After); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
