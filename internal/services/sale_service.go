package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"lounge_pos_backend/internal/models"
	"lounge_pos_backend/internal/repositories"
	"lounge_pos_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrSaleValidation = errors.New("invalid sale")
	ErrSaleStorage    = errors.New("sale could not be stored")
	ErrSaleNotFound   = errors.New("sale not found")
)

// Event actions published by the sale service.
const (
	ActionSaleRecorded = "saleRecorded"
	ActionSaleUpdated  = "saleUpdated"
)

// SaleOutcome tells a caller whether RecordSale wrote a new sale.
type SaleOutcome string

const (
	SaleRecorded        SaleOutcome = "recorded"
	SaleAlreadyRecorded SaleOutcome = "already_recorded"
)

// EventPublisher fans an action out to live terminals.
type EventPublisher interface {
	Publish(action string, payload interface{})
}

// MemberAggregator rebuilds a member's totals from the sales table.
type MemberAggregator interface {
	RecomputeMember(customer string) error
}

// --- DTOs ---

// RecordSaleRequest is a checkout submitted by a terminal. The sale time is
// assigned by the server.
type RecordSaleRequest struct {
	TransactionID   string            `json:"transactionId" binding:"required"`
	Orders          models.OrderLines `json:"orders" binding:"required,min=1,dive"`
	Total           decimal.Decimal   `json:"total"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	Customer        string            `json:"customer"`
	Computer        decimal.Decimal   `json:"computer"`
	PS4             decimal.Decimal   `json:"ps4"`
	ModeOfPayment   *string           `json:"mode_of_payment"`
	StudentDiscount bool              `json:"student_discount"`
	Discount        decimal.Decimal   `json:"discount"`
	Credit          decimal.Decimal   `json:"credit"`
}

// RecordSaleResult carries the stored sale. For SaleAlreadyRecorded it is the
// sale persisted by the first submission.
type RecordSaleResult struct {
	Outcome SaleOutcome  `json:"status"`
	Sale    *models.Sale `json:"sale"`
}

// UpdateSaleRequest corrects the charge and payment fields of a recorded sale.
// Nil fields are left unchanged.
type UpdateSaleRequest struct {
	Total           *decimal.Decimal `json:"total"`
	Subtotal        *decimal.Decimal `json:"subtotal"`
	Computer        *decimal.Decimal `json:"computer"`
	PS4             *decimal.Decimal `json:"ps4"`
	Customer        *string          `json:"customer"`
	ModeOfPayment   *string          `json:"mode_of_payment"`
	StudentDiscount *bool            `json:"student_discount"`
	Discount        *decimal.Decimal `json:"discount"`
	Credit          *decimal.Decimal `json:"credit"`
}

// SaleService records checkouts and serves the sales ledger.
type SaleService interface {
	RecordSale(ctx context.Context, req RecordSaleRequest) (*RecordSaleResult, error)
	GetSales() ([]models.Sale, error)
	GetSaleByID(id int64) (*models.Sale, error)
	GetSalesSummary() (*models.SalesSummary, error)
	UpdateSale(ctx context.Context, id int64, req UpdateSaleRequest) (*models.Sale, error)
}

type saleService struct {
	saleRepo      repositories.SaleRepository
	catalogRepo   repositories.CatalogRepository
	inventoryRepo repositories.InventoryRepository
	movementRepo  repositories.InventoryMovementRepository
	txManager     repositories.TxManager
	publisher     EventPublisher
	members       MemberAggregator
	rules         []DeductionRule
	loc           *time.Location
	now           func() time.Time
}

// NewSaleService creates a new instance of SaleService. publisher and members
// may be nil.
func NewSaleService(
	sr repositories.SaleRepository,
	cr repositories.CatalogRepository,
	ir repositories.InventoryRepository,
	imr repositories.InventoryMovementRepository,
	txm repositories.TxManager,
	publisher EventPublisher,
	members MemberAggregator,
	loc *time.Location,
) SaleService {
	if loc == nil {
		loc = time.UTC
	}
	return &saleService{
		saleRepo:      sr,
		catalogRepo:   cr,
		inventoryRepo: ir,
		movementRepo:  imr,
		txManager:     txm,
		publisher:     publisher,
		members:       members,
		rules:         DefaultDeductionRules,
		loc:           loc,
		now:           time.Now,
	}
}

func validateRecordSaleRequest(req RecordSaleRequest) error {
	if utils.IsEmpty(req.TransactionID) {
		return fmt.Errorf("%w: transactionId is required", ErrSaleValidation)
	}
	if len(req.Orders) == 0 {
		return fmt.Errorf("%w: orders must not be empty", ErrSaleValidation)
	}
	var total int64
	for i, line := range req.Orders {
		if utils.IsEmpty(line.Product) {
			return fmt.Errorf("%w: order line %d has no product", ErrSaleValidation, i)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: quantity for '%s' must be positive", ErrSaleValidation, line.Product)
		}
		if int64(line.Quantity) > math.MaxInt32 {
			return fmt.Errorf("%w: quantity for '%s' is too large", ErrSaleValidation, line.Product)
		}
		total += int64(line.Quantity)
	}
	// Stock columns are INTEGER, so the summed deduction must fit in int32.
	if total > math.MaxInt32 {
		return fmt.Errorf("%w: total quantity %d is too large", ErrSaleValidation, total)
	}
	return nil
}

// RecordSale stores the sale and deducts consumables in one transaction.
// Resubmitting a transaction id returns the first sale with SaleAlreadyRecorded
// and changes nothing.
func (s *saleService) RecordSale(ctx context.Context, req RecordSaleRequest) (*RecordSaleResult, error) {
	if err := validateRecordSaleRequest(req); err != nil {
		return nil, err
	}

	sale := &models.Sale{
		TransactionID:   strings.TrimSpace(req.TransactionID),
		Orders:          append(models.OrderLines(nil), req.Orders...),
		Qty:             req.Orders.TotalQuantity(),
		Total:           req.Total,
		Subtotal:        req.Subtotal,
		Computer:        req.Computer,
		PS4:             req.PS4,
		Datetime:        s.now().In(s.loc),
		Customer:        strings.TrimSpace(req.Customer),
		ModeOfPayment:   req.ModeOfPayment,
		StudentDiscount: req.StudentDiscount,
		Discount:        req.Discount,
		Credit:          req.Credit,
	}

	tx, err := s.txManager.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaleStorage, err)
	}
	defer tx.Rollback()

	existing, err := s.saleRepo.FindSaleByTransactionID(tx, sale.TransactionID)
	if err == nil {
		utils.LogInfo("Duplicate sale submission ignored", map[string]interface{}{"transaction_id": sale.TransactionID, "sale_id": existing.ID})
		return &RecordSaleResult{Outcome: SaleAlreadyRecorded, Sale: existing}, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: checking transaction id: %v", ErrSaleStorage, err)
	}

	if _, err := s.saleRepo.CreateSale(tx, sale); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			// A concurrent submission won the insert; the transaction is
			// aborted, so look the winner up outside it.
			tx.Rollback()
			return s.alreadyRecorded(sale.TransactionID)
		}
		return nil, fmt.Errorf("%w: inserting sale: %v", ErrSaleStorage, err)
	}

	if err := s.applyDeductions(tx, sale); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaleStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing sale: %v", ErrSaleStorage, err)
	}

	utils.LogInfo("Sale recorded", map[string]interface{}{"transaction_id": sale.TransactionID, "sale_id": sale.ID, "qty": sale.Qty})
	s.afterCommit(ActionSaleRecorded, sale, sale.Customer)
	return &RecordSaleResult{Outcome: SaleRecorded, Sale: sale}, nil
}

func (s *saleService) alreadyRecorded(transactionID string) (*RecordSaleResult, error) {
	existing, err := s.saleRepo.GetSaleByTransactionID(transactionID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading concurrently recorded sale %s: %v", ErrSaleStorage, transactionID, err)
	}
	utils.LogInfo("Concurrent duplicate sale submission ignored", map[string]interface{}{"transaction_id": transactionID, "sale_id": existing.ID})
	return &RecordSaleResult{Outcome: SaleAlreadyRecorded, Sale: existing}, nil
}

// applyDeductions classifies the sold names, plans the decrements from the
// rule table and applies them, logging each real change in the movement ledger.
func (s *saleService) applyDeductions(executor repositories.SQLExecutor, sale *models.Sale) error {
	matched, err := s.catalogRepo.ClassifyProductNames(executor, sale.Orders.DistinctProducts())
	if err != nil {
		return fmt.Errorf("classifying order lines: %w", err)
	}

	reason := fmt.Sprintf("Sale %s", sale.TransactionID)
	for _, deduction := range PlanDeductions(s.rules, sale.Orders, matched) {
		var changes []models.StockChange
		stockKind := models.StockKindInventory
		switch deduction.Rule.Target {
		case TargetMatchedBeverages:
			stockKind = models.StockKindBeverage
			changes, err = s.catalogRepo.DecrementBeverageStocks(executor, deduction.Resources, deduction.Quantity)
		default:
			changes, err = s.inventoryRepo.DecrementStocks(executor, deduction.Resources, deduction.Quantity)
		}
		if err != nil {
			return fmt.Errorf("deducting %s stock: %w", deduction.Rule.Classification, err)
		}

		for _, change := range changes {
			if change.Delta() == 0 {
				continue
			}
			movement := models.InventoryMovement{
				StockKind:       stockKind,
				Resource:        change.Resource,
				SaleID:          &sale.ID,
				MovementType:    models.MovementTypeSale,
				QuantityChanged: change.Delta(),
				Reason:          &reason,
				MovementDate:    sale.Datetime,
			}
			if _, err := s.movementRepo.CreateMovement(executor, &movement); err != nil {
				return fmt.Errorf("recording movement for %s: %w", change.Resource, err)
			}
		}
	}
	return nil
}

// afterCommit informs collaborators. Their failures are logged only; the sale
// is already durable.
func (s *saleService) afterCommit(action string, sale *models.Sale, customers ...string) {
	if s.publisher != nil {
		s.publisher.Publish(action, sale)
	}
	if s.members == nil {
		return
	}
	seen := map[string]bool{}
	for _, customer := range customers {
		key := strings.ToLower(strings.TrimSpace(customer))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if err := s.members.RecomputeMember(customer); err != nil {
			utils.LogWarn(err, "Member aggregate recompute failed", map[string]interface{}{"customer": customer, "transaction_id": sale.TransactionID})
		}
	}
}

func (s *saleService) GetSales() ([]models.Sale, error) {
	sales, err := s.saleRepo.GetSales()
	if err != nil {
		return nil, fmt.Errorf("failed to get sales: %w", err)
	}
	return sales, nil
}

func (s *saleService) GetSaleByID(id int64) (*models.Sale, error) {
	sale, err := s.saleRepo.GetSaleByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to get sale by ID from repository: %w", err)
	}
	return sale, nil
}

// GetSalesSummary returns today's sales in the business timezone together with
// the all-time and today totals.
func (s *saleService) GetSalesSummary() (*models.SalesSummary, error) {
	startOfDay := StartOfDay(s.now(), s.loc)
	today, err := s.saleRepo.GetSalesBetween(startOfDay, startOfDay.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to get today's sales: %w", err)
	}
	totalSum, err := s.saleRepo.SumTotals(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to sum sales: %w", err)
	}
	totalToday, err := s.saleRepo.SumTotals(&startOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to sum today's sales: %w", err)
	}
	return &models.SalesSummary{SalesCurrentDate: today, TotalSum: totalSum, TotalSumToday: totalToday}, nil
}

func (s *saleService) UpdateSale(ctx context.Context, id int64, req UpdateSaleRequest) (*models.Sale, error) {
	sale, err := s.GetSaleByID(id)
	if err != nil {
		return nil, err
	}
	previousCustomer := sale.Customer

	if req.Total != nil {
		sale.Total = *req.Total
	}
	if req.Subtotal != nil {
		sale.Subtotal = *req.Subtotal
	}
	if req.Computer != nil {
		sale.Computer = *req.Computer
	}
	if req.PS4 != nil {
		sale.PS4 = *req.PS4
	}
	if req.Customer != nil {
		sale.Customer = strings.TrimSpace(*req.Customer)
	}
	if req.ModeOfPayment != nil {
		sale.ModeOfPayment = utils.NewNullString(strings.TrimSpace(*req.ModeOfPayment))
	}
	if req.StudentDiscount != nil {
		sale.StudentDiscount = *req.StudentDiscount
	}
	if req.Discount != nil {
		sale.Discount = *req.Discount
	}
	if req.Credit != nil {
		sale.Credit = *req.Credit
	}

	tx, err := s.txManager.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.saleRepo.UpdateSale(tx, sale); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to update sale: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sale update: %w", err)
	}

	s.afterCommit(ActionSaleUpdated, sale, previousCustomer, sale.Customer)
	return sale, nil
}

// StartOfDay is midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
