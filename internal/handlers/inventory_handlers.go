package handlers

import (
	"errors"
	"net/http"

	"lounge_pos_backend/internal/models"
	"lounge_pos_backend/internal/services"
	"lounge_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryHandler holds the inventory service.
type InventoryHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(is services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: is}
}

// GetInventory returns consumables with the count of items running low.
func (h *InventoryHandler) GetInventory(c *gin.Context) {
	overview, err := h.inventoryService.GetInventory()
	if err != nil {
		utils.LogError(err, "GetInventory: Error from inventoryService.GetInventory")
		respondInternal(c, "Failed to fetch inventory.")
		return
	}
	c.JSON(http.StatusOK, overview)
}

// AddStocks restocks one consumable.
func (h *InventoryHandler) AddStocks(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.AddStocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "AddInventoryStocks: Failed to bind JSON")
		respondBindError(c, err)
		return
	}

	item, err := h.inventoryService.AddStocks(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInventoryItemNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Inventory item not found.", err.Error()))
		case errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		default:
			utils.LogError(err, "AddInventoryStocks: Error from inventoryService.AddStocks")
			respondInternal(c, "Failed to add inventory stocks.")
		}
		return
	}
	c.JSON(http.StatusOK, item)
}

// GetMovements lists the stock movement ledger.
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	var filters models.InventoryMovementFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters.", err.Error()))
		return
	}

	movements, total, err := h.inventoryService.GetMovements(filters)
	if err != nil {
		utils.LogError(err, "GetMovements: Error from inventoryService.GetMovements")
		respondInternal(c, "Failed to fetch inventory movements.")
		return
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filters.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	c.JSON(http.StatusOK, models.NewPage(movements, total, page, pageSize))
}
