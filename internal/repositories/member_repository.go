package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lounge_pos_backend/internal/models"
)

// MemberRepository defines the interface for member-related database operations.
type MemberRepository interface {
	CreateMember(executor SQLExecutor, member *models.Member) (int64, error)
	GetMemberByID(id int64) (*models.Member, error)
	GetMembers() ([]models.Member, error)
	GetMembersPage(page, pageSize int, searchTerm *string) ([]models.Member, int, error) // Members, total count, error
	DeleteMember(executor SQLExecutor, id int64) error
	GetTransactionsByCustomer(customer string, page, pageSize int) ([]models.MemberTransaction, int, error)
	RecomputeAggregates(executor SQLExecutor, customer string) (int64, error) // Returns rows affected
	RecomputeAllAggregates(executor SQLExecutor) (int64, error)
	UpdateCurrentLoad(executor SQLExecutor, load models.MemberLoad) (int64, error)
}

type memberRepository struct {
	db *sql.DB
}

// NewMemberRepository creates a new instance of MemberRepository.
func NewMemberRepository(db *sql.DB) MemberRepository {
	return &memberRepository{db: db}
}

const memberColumns = `id, name, email, date_joined, coffee, total_load, total_spent, last_spent, current_load, created_at`

func scanMember(row scanner, extra ...interface{}) (*models.Member, error) {
	member := &models.Member{}
	dest := []interface{}{
		&member.ID, &member.Name, &member.Email, &member.DateJoined, &member.Coffee,
		&member.TotalLoad, &member.TotalSpent, &member.LastSpent, &member.CurrentLoad, &member.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return member, nil
}

func (r *memberRepository) CreateMember(executor SQLExecutor, member *models.Member) (int64, error) {
	query := `INSERT INTO members (name, email, date_joined, created_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now()
	}
	if member.DateJoined == nil {
		joined := member.CreatedAt
		member.DateJoined = &joined
	}

	err := executor.QueryRow(query, member.Name, member.Email, member.DateJoined, member.CreatedAt).Scan(&member.ID)
	if err != nil {
		if pqErr, ok := isUniqueViolation(err); ok {
			return 0, fmt.Errorf("%w: member '%s' already exists (constraint: %s)", ErrDuplicateKey, member.Name, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating member: %v", ErrDatabaseError, err)
	}
	return member.ID, nil
}

func (r *memberRepository) GetMemberByID(id int64) (*models.Member, error) {
	member, err := scanMember(r.db.QueryRow(`SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting member by ID %d: %v", ErrDatabaseError, id, err)
	}
	return member, nil
}

func (r *memberRepository) GetMembers() ([]models.Member, error) {
	members := []models.Member{}
	rows, err := r.db.Query(`SELECT ` + memberColumns + ` FROM members ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying members: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning member: %v", ErrDatabaseError, err)
		}
		members = append(members, *member)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating member rows: %v", ErrDatabaseError, err)
	}
	return members, nil
}

// GetMembersPage lists members, most recent spenders first, with optional name search.
func (r *memberRepository) GetMembersPage(page, pageSize int, searchTerm *string) ([]models.Member, int, error) {
	members := []models.Member{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + memberColumns + `, COUNT(*) OVER() AS total_count FROM members`)

	var args []interface{}
	argCount := 1

	if searchTerm != nil && *searchTerm != "" {
		queryBuilder.WriteString(fmt.Sprintf(" WHERE name ILIKE $%d", argCount))
		args = append(args, "%"+*searchTerm+"%")
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY last_spent DESC NULLS LAST, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, pageOffset(page, pageSize))

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying member page: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		member, err := scanMember(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning member: %v", ErrDatabaseError, err)
		}
		members = append(members, *member)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating member rows: %v", ErrDatabaseError, err)
	}
	return members, totalCount, nil
}

func (r *memberRepository) DeleteMember(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting member ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTransactionsByCustomer pages through the sales recorded under a member's name.
func (r *memberRepository) GetTransactionsByCustomer(customer string, page, pageSize int) ([]models.MemberTransaction, int, error) {
	transactions := []models.MemberTransaction{}
	totalCount := 0

	query := `SELECT datetime, total, subtotal, computer, orders, qty, COUNT(*) OVER() AS total_count
	          FROM sales
	          WHERE LOWER(customer) = LOWER($1)
	          ORDER BY datetime DESC
	          LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(query, customer, pageSize, pageOffset(page, pageSize))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying transactions for %s: %v", ErrDatabaseError, customer, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.MemberTransaction
		if err := rows.Scan(&t.Datetime, &t.Total, &t.Subtotal, &t.Computer, &t.Orders, &t.Qty, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning member transaction: %v", ErrDatabaseError, err)
		}
		transactions = append(transactions, t)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating member transactions: %v", ErrDatabaseError, err)
	}
	return transactions, totalCount, nil
}

// recomputeAggregatesQuery is driven from members so that a member with no
// sales left is reset to zero totals and a NULL last_spent.
const recomputeAggregatesQuery = `UPDATE members m SET
	    total_load = agg.total_load,
	    coffee = agg.coffee,
	    total_spent = agg.total_load + agg.coffee,
	    last_spent = agg.last_spent
	  FROM (
	    SELECT mm.id,
	           COALESCE(SUM(s.computer), 0) AS total_load,
	           COALESCE(SUM(s.subtotal), 0) AS coffee,
	           MAX(s.datetime) AS last_spent
	    FROM members mm
	    LEFT JOIN sales s ON LOWER(s.customer) = LOWER(mm.name)
	    %s
	    GROUP BY mm.id
	  ) agg
	  WHERE m.id = agg.id`

// RecomputeAggregates rebuilds total_load, coffee, total_spent and last_spent
// for the member named customer from the sales table.
func (r *memberRepository) RecomputeAggregates(executor SQLExecutor, customer string) (int64, error) {
	query := fmt.Sprintf(recomputeAggregatesQuery, "WHERE LOWER(mm.name) = LOWER($1)")
	result, err := executor.Exec(query, customer)
	if err != nil {
		return 0, fmt.Errorf("%w: recomputing aggregates for %s: %v", ErrDatabaseError, customer, err)
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}

func (r *memberRepository) RecomputeAllAggregates(executor SQLExecutor) (int64, error) {
	result, err := executor.Exec(fmt.Sprintf(recomputeAggregatesQuery, ""))
	if err != nil {
		return 0, fmt.Errorf("%w: recomputing all member aggregates: %v", ErrDatabaseError, err)
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}

// UpdateCurrentLoad sets the prepaid balance of the member whose name matches case-insensitively.
func (r *memberRepository) UpdateCurrentLoad(executor SQLExecutor, load models.MemberLoad) (int64, error) {
	result, err := executor.Exec(`UPDATE members SET current_load = $1 WHERE LOWER(name) = LOWER($2)`, load.CurrentLoad, load.Name)
	if err != nil {
		return 0, fmt.Errorf("%w: updating current load for %s: %v", ErrDatabaseError, load.Name, err)
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}
