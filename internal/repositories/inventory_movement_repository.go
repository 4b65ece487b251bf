package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"lounge_pos_backend/internal/models"
)

// InventoryMovementRepository defines the interface for the stock movement ledger.
type InventoryMovementRepository interface {
	CreateMovement(executor SQLExecutor, movement *models.InventoryMovement) (int64, error)
	GetMovements(filters models.InventoryMovementFilters) ([]models.InventoryMovement, int, error)
}

type inventoryMovementRepository struct {
	db *sql.DB
}

// NewInventoryMovementRepository creates a new instance of InventoryMovementRepository.
func NewInventoryMovementRepository(db *sql.DB) InventoryMovementRepository {
	return &inventoryMovementRepository{db: db}
}

func (r *inventoryMovementRepository) CreateMovement(executor SQLExecutor, movement *models.InventoryMovement) (int64, error) {
	query := `INSERT INTO inventory_movements
	          (stock_kind, resource, sale_id, movement_type, quantity_changed, reason, movement_date)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	if movement.MovementDate.IsZero() {
		movement.MovementDate = time.Now()
	}

	var saleID sql.NullInt64
	if movement.SaleID != nil {
		saleID = sql.NullInt64{Int64: *movement.SaleID, Valid: true}
	}

	err := executor.QueryRow(query,
		movement.StockKind, movement.Resource, saleID, movement.MovementType,
		movement.QuantityChanged, movement.Reason, movement.MovementDate,
	).Scan(&movement.ID)
	if err != nil {
		if pqErr, ok := isForeignKeyViolation(err); ok {
			return 0, fmt.Errorf("%w: movement references missing sale (constraint: %s)", ErrDatabaseError, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating inventory movement: %v", ErrDatabaseError, err)
	}
	return movement.ID, nil
}

func (r *inventoryMovementRepository) GetMovements(filters models.InventoryMovementFilters) ([]models.InventoryMovement, int, error) {
	movements := []models.InventoryMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    id, stock_kind, resource, sale_id, movement_type, quantity_changed, reason, movement_date,
	    COUNT(*) OVER() AS total_count
	  FROM inventory_movements`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Resource != nil && *filters.Resource != "" {
		conditions = append(conditions, fmt.Sprintf("resource = $%d", argCount))
		args = append(args, *filters.Resource)
		argCount++
	}
	if filters.MovementType != nil && *filters.MovementType != "" {
		conditions = append(conditions, fmt.Sprintf("movement_type = $%d", argCount))
		args = append(args, *filters.MovementType)
		argCount++
	}
	if filters.SaleID != nil {
		conditions = append(conditions, fmt.Sprintf("sale_id = $%d", argCount))
		args = append(args, *filters.SaleID)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY movement_date DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, pageOffset(filters.Page, filters.PageSize))

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting inventory movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var movement models.InventoryMovement
		var saleID sql.NullInt64
		var reason sql.NullString

		if err := rows.Scan(
			&movement.ID, &movement.StockKind, &movement.Resource, &saleID, &movement.MovementType,
			&movement.QuantityChanged, &reason, &movement.MovementDate, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory movement: %v", ErrDatabaseError, err)
		}
		if saleID.Valid {
			id := saleID.Int64
			movement.SaleID = &id
		}
		if reason.Valid {
			text := reason.String
			movement.Reason = &text
		}
		movements = append(movements, movement)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory movements: %v", ErrDatabaseError, err)
	}

	return movements, totalCount, nil
}
