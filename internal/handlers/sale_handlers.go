package handlers

import (
	"errors"
	"net/http"

	"lounge_pos_backend/internal/services"
	"lounge_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SaleHandler holds the sale service.
type SaleHandler struct {
	saleService services.SaleService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(ss services.SaleService) *SaleHandler {
	return &SaleHandler{saleService: ss}
}

// RecordSale handles a checkout. A new sale answers 201; a resubmitted
// transaction id answers 200 with the sale recorded the first time.
func (h *SaleHandler) RecordSale(c *gin.Context) {
	var req services.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "RecordSale: Failed to bind JSON")
		respondBindError(c, err)
		return
	}

	result, err := h.saleService.RecordSale(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "RecordSale: Error from saleService.RecordSale")
		if errors.Is(err, services.ErrSaleValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid sale.", err.Error()))
		} else {
			respondInternal(c, "Failed to record sale.")
		}
		return
	}

	status := http.StatusCreated
	if result.Outcome == services.SaleAlreadyRecorded {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// GetSales returns every sale, newest first.
func (h *SaleHandler) GetSales(c *gin.Context) {
	sales, err := h.saleService.GetSales()
	if err != nil {
		utils.LogError(err, "GetSales: Error from saleService.GetSales")
		respondInternal(c, "Failed to fetch sales.")
		return
	}
	c.JSON(http.StatusOK, sales)
}

// GetSalesToday returns today's sales with the running totals.
func (h *SaleHandler) GetSalesToday(c *gin.Context) {
	summary, err := h.saleService.GetSalesSummary()
	if err != nil {
		utils.LogError(err, "GetSalesToday: Error from saleService.GetSalesSummary")
		respondInternal(c, "Failed to fetch today's sales.")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *SaleHandler) GetSaleByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	sale, err := h.saleService.GetSaleByID(id)
	if err != nil {
		if errors.Is(err, services.ErrSaleNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Sale not found.", err.Error()))
		} else {
			utils.LogError(err, "GetSaleByID: Error from saleService.GetSaleByID")
			respondInternal(c, "Failed to fetch sale.")
		}
		return
	}
	c.JSON(http.StatusOK, sale)
}

// UpdateSale applies an administrative correction to a sale.
func (h *SaleHandler) UpdateSale(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateSale: Failed to bind JSON")
		respondBindError(c, err)
		return
	}

	sale, err := h.saleService.UpdateSale(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, services.ErrSaleNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Sale not found.", err.Error()))
		} else {
			utils.LogError(err, "UpdateSale: Error from saleService.UpdateSale")
			respondInternal(c, "Failed to update sale.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Sale updated successfully", "sale": sale})
}
