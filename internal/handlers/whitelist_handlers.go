package handlers

import (
	"net/http"

	"lounge_pos_backend/internal/services"
	"lounge_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// WhitelistHandler holds the whitelist service.
type WhitelistHandler struct {
	whitelistService services.WhitelistService
}

// NewWhitelistHandler creates a new WhitelistHandler.
func NewWhitelistHandler(ws services.WhitelistService) *WhitelistHandler {
	return &WhitelistHandler{whitelistService: ws}
}

// GetClientIP echoes the caller's normalized address.
func (h *WhitelistHandler) GetClientIP(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ip": utils.NormalizeIP(c.ClientIP())})
}

// CheckAccess answers 200 for whitelisted addresses and 403 otherwise.
func (h *WhitelistHandler) CheckAccess(c *gin.Context) {
	ip := utils.NormalizeIP(c.ClientIP())
	allowed, err := h.whitelistService.IsAllowed(ip)
	if err != nil {
		utils.LogError(err, "CheckAccess: Error from whitelistService.IsAllowed")
		respondInternal(c, "Failed to check whitelist.")
		return
	}
	if !allowed {
		utils.LogInfo("Whitelist check denied", map[string]interface{}{"client_ip": ip})
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Access denied", ""))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "success"})
}
