package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"lounge_pos_backend/internal/models"
	"lounge_pos_backend/internal/repositories"
	"lounge_pos_backend/pkg/utils"

	"github.com/xuri/excelize/v2"
)

var (
	ErrMemberNotFound   = errors.New("member not found")
	ErrMemberNameExists = errors.New("member name already exists")
	ErrInvalidWorkbook  = errors.New("invalid member load workbook")
)

// Columns of the exported account sheet used by the current-load import.
const (
	memberLoadNameColumn    = 7  // H
	memberLoadBalanceColumn = 41 // AP
)

// --- DTOs ---

type CreateMemberRequest struct {
	Name       string     `json:"name" binding:"required"`
	Email      *string    `json:"email"`
	DateJoined *time.Time `json:"date_joined"`
}

// LoadImportResult reports how a current-load workbook was applied.
type LoadImportResult struct {
	RowsRead int `json:"rows_read"`
	Skipped  int `json:"skipped"`
	Updated  int `json:"updated"`
	Unknown  int `json:"unknown"`
}

// MemberService manages loyalty members and their derived totals.
type MemberService interface {
	GetMembers() ([]models.Member, error)
	GetMembersPage(page, limit int, search *string) (models.Page[models.Member], error)
	GetMemberDetail(id int64, page, limit int) (*models.MemberDetail, error)
	CreateMember(req CreateMemberRequest) (*models.Member, error)
	DeleteMember(id int64) error
	RecomputeMember(customer string) error
	RecomputeAll() (int64, error)
	ImportCurrentLoad(ctx context.Context, workbook io.Reader) (*LoadImportResult, error)
}

type memberService struct {
	memberRepo repositories.MemberRepository
	db         repositories.SQLExecutor
	txManager  repositories.TxManager
	loc        *time.Location
}

// NewMemberService creates a new instance of MemberService.
func NewMemberService(mr repositories.MemberRepository, db repositories.SQLExecutor, txm repositories.TxManager, loc *time.Location) MemberService {
	if loc == nil {
		loc = time.UTC
	}
	return &memberService{memberRepo: mr, db: db, txManager: txm, loc: loc}
}

func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func (s *memberService) GetMembers() ([]models.Member, error) {
	members, err := s.memberRepo.GetMembers()
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	return members, nil
}

func (s *memberService) GetMembersPage(page, limit int, search *string) (models.Page[models.Member], error) {
	page, limit = normalizePage(page, limit)
	members, total, err := s.memberRepo.GetMembersPage(page, limit, search)
	if err != nil {
		return models.Page[models.Member]{}, fmt.Errorf("failed to get member page: %w", err)
	}
	return models.NewPage(members, total, page, limit), nil
}

// GetMemberDetail returns the member and one page of the sales recorded under their name.
func (s *memberService) GetMemberDetail(id int64, page, limit int) (*models.MemberDetail, error) {
	member, err := s.memberRepo.GetMemberByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member by ID: %w", err)
	}

	page, limit = normalizePage(page, limit)
	transactions, total, err := s.memberRepo.GetTransactionsByCustomer(member.Name, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get member transactions: %w", err)
	}
	history := models.NewPage(transactions, total, page, limit)
	return &models.MemberDetail{
		Member:       *member,
		Transactions: history.Data,
		TotalRecords: history.TotalRecords,
		TotalPages:   history.TotalPages,
		PageNumber:   history.PageNumber,
	}, nil
}

func (s *memberService) CreateMember(req CreateMemberRequest) (*models.Member, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: member name cannot be empty", ErrValidation)
	}
	if req.Email != nil && *req.Email != "" && !utils.IsValidEmail(*req.Email) {
		return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
	}

	member := &models.Member{Name: name, Email: req.Email, CreatedAt: time.Now().In(s.loc)}
	if req.DateJoined != nil {
		joined := req.DateJoined.In(s.loc)
		member.DateJoined = &joined
	}
	if _, err := s.memberRepo.CreateMember(s.db, member); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrMemberNameExists, name)
		}
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	// Sales may already exist under this name.
	if err := s.RecomputeMember(name); err != nil {
		utils.LogWarn(err, "Initial member aggregate failed", map[string]interface{}{"member": name})
	}
	return s.memberRepo.GetMemberByID(member.ID)
}

func (s *memberService) DeleteMember(id int64) error {
	if err := s.memberRepo.DeleteMember(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return nil
}

// RecomputeMember rebuilds a member's totals. A customer with no member row is not an error.
func (s *memberService) RecomputeMember(customer string) error {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return nil
	}
	updated, err := s.memberRepo.RecomputeAggregates(s.db, customer)
	if err != nil {
		return fmt.Errorf("failed to recompute member aggregates: %w", err)
	}
	utils.LogDebug("Member aggregates recomputed", map[string]interface{}{"customer": customer, "rows": updated})
	return nil
}

func (s *memberService) RecomputeAll() (int64, error) {
	updated, err := s.memberRepo.RecomputeAllAggregates(s.db)
	if err != nil {
		return 0, fmt.Errorf("failed to recompute member aggregates: %w", err)
	}
	return updated, nil
}

// ImportCurrentLoad applies the balances of an exported account workbook.
// All updates commit together.
func (s *memberService) ImportCurrentLoad(ctx context.Context, workbook io.Reader) (*LoadImportResult, error) {
	loads, result, err := ParseMemberLoads(workbook)
	if err != nil {
		return nil, err
	}

	tx, err := s.txManager.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, load := range loads {
		updated, err := s.memberRepo.UpdateCurrentLoad(tx, load)
		if err != nil {
			return nil, fmt.Errorf("failed to update current load: %w", err)
		}
		if updated == 0 {
			result.Unknown++
			continue
		}
		result.Updated++
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit current load import: %w", err)
	}

	utils.LogInfo("Member current load imported", map[string]interface{}{
		"rows": result.RowsRead, "updated": result.Updated, "unknown": result.Unknown, "skipped": result.Skipped,
	})
	return result, nil
}

// ParseMemberLoads reads usernames from column H and balances from column AP
// of the first sheet. Rows missing either value, or whose balance has no
// number in it, are counted as skipped.
func ParseMemberLoads(workbook io.Reader) ([]models.MemberLoad, *LoadImportResult, error) {
	f, err := excelize.OpenReader(workbook)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidWorkbook)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}

	result := &LoadImportResult{RowsRead: len(rows)}
	loads := make([]models.MemberLoad, 0, len(rows))
	for _, row := range rows {
		if len(row) <= memberLoadBalanceColumn {
			result.Skipped++
			continue
		}
		name := strings.ToLower(strings.TrimSpace(row[memberLoadNameColumn]))
		balance := strings.TrimSpace(row[memberLoadBalanceColumn])
		if name == "" || balance == "" {
			result.Skipped++
			continue
		}
		amount, err := utils.ParseAmount(balance)
		if err != nil {
			result.Skipped++
			continue
		}
		loads = append(loads, models.MemberLoad{Name: name, CurrentLoad: amount})
	}
	return loads, result, nil
}
