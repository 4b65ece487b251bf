package repositories

import (
	"database/sql"
	"fmt"
)

// WhitelistRepository answers whether a terminal may reach the API.
type WhitelistRepository interface {
	IsIPAllowed(ip string) (bool, error)
}

type whitelistRepository struct {
	db *sql.DB
}

// NewWhitelistRepository creates a new instance of WhitelistRepository.
func NewWhitelistRepository(db *sql.DB) WhitelistRepository {
	return &whitelistRepository{db: db}
}

func (r *whitelistRepository) IsIPAllowed(ip string) (bool, error) {
	var allowed bool
	err := r.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM whitelist WHERE ip = $1 AND enabled = true)`, ip).Scan(&allowed)
	if err != nil {
		return false, fmt.Errorf("%w: checking whitelist for %s: %v", ErrDatabaseError, ip, err)
	}
	return allowed, nil
}
