package services

import (
	"fmt"

	"lounge_pos_backend/internal/repositories"
	"lounge_pos_backend/pkg/utils"
)

// WhitelistService decides whether a client address may use the API.
type WhitelistService interface {
	IsAllowed(ip string) (bool, error)
}

type whitelistService struct {
	whitelistRepo repositories.WhitelistRepository
}

// NewWhitelistService creates a new instance of WhitelistService.
func NewWhitelistService(wr repositories.WhitelistRepository) WhitelistService {
	return &whitelistService{whitelistRepo: wr}
}

func (s *whitelistService) IsAllowed(ip string) (bool, error) {
	ip = utils.NormalizeIP(ip)
	if ip == "" {
		return false, nil
	}
	allowed, err := s.whitelistRepo.IsIPAllowed(ip)
	if err != nil {
		return false, fmt.Errorf("failed to check whitelist: %w", err)
	}
	return allowed, nil
}
