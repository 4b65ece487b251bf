package handlers

import (
	"errors"
	"net/http"

	"lounge_pos_backend/internal/services"
	"lounge_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler holds the expense service.
type ExpenseHandler struct {
	expenseService services.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(es services.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: es}
}

func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	page, limit := pageQuery(c, 10)
	result, err := h.expenseService.GetExpensesPage(page, limit)
	if err != nil {
		utils.LogError(err, "GetExpenses: Error from expenseService.GetExpensesPage")
		respondInternal(c, "Failed to fetch expenses.")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req services.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateExpense: Failed to bind JSON")
		respondBindError(c, err)
		return
	}
	expense, err := h.expenseService.CreateExpense(req)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		} else {
			utils.LogError(err, "CreateExpense: Error from expenseService.CreateExpense")
			respondInternal(c, "Failed to add expense.")
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "expense": expense})
}

// SettleExpense pays off a credit expense. The body is optional.
func (h *ExpenseHandler) SettleExpense(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.SettleExpenseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	result, err := h.expenseService.SettleExpense(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, services.ErrExpenseNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Expense not found.", err.Error()))
		} else {
			utils.LogError(err, "SettleExpense: Error from expenseService.SettleExpense")
			respondInternal(c, "Failed to settle expense.")
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ExpenseHandler) GetPaidBy(c *gin.Context) {
	values, err := h.expenseService.GetPaidByOptions()
	if err != nil {
		utils.LogError(err, "GetPaidBy: Error from expenseService.GetPaidByOptions")
		respondInternal(c, "Failed to fetch paid-by options.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"paid_by": values})
}

func (h *ExpenseHandler) GetModesOfPayment(c *gin.Context) {
	values, err := h.expenseService.GetModesOfPayment()
	if err != nil {
		utils.LogError(err, "GetModesOfPayment: Error from expenseService.GetModesOfPayment")
		respondInternal(c, "Failed to fetch modes of payment.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode_of_payment": values})
}

func (h *ExpenseHandler) FilterByPaidBy(c *gin.Context) {
	var req struct {
		PaidBy *string `json:"paid_by"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	result, err := h.expenseService.FilterByPaidBy(req.PaidBy)
	if err != nil {
		utils.LogError(err, "FilterByPaidBy: Error from expenseService.FilterByPaidBy")
		respondInternal(c, "Failed to filter expenses.")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ExpenseHandler) GetExpensesInRange(c *gin.Context) {
	var req services.DateRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	result, err := h.expenseService.GetExpensesInRange(req)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		} else {
			utils.LogError(err, "GetExpensesInRange: Error from expenseService.GetExpensesInRange")
			respondInternal(c, "Failed to fetch expenses.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"expensesData": result})
}
