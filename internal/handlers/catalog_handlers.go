package handlers

import (
	"errors"
	"net/http"

	"lounge_pos_backend/internal/services"
	"lounge_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler holds the catalog service.
type CatalogHandler struct {
	catalogService services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cs services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

// respondCatalogError maps catalog service errors to HTTP responses.
func respondCatalogError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, services.ErrProductNotFound), errors.Is(err, services.ErrFoodNotFound), errors.Is(err, services.ErrBeverageNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), ""))
	case errors.Is(err, services.ErrCatalogNameExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Name already exists.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
	default:
		utils.LogError(err, op+": Error from catalogService")
		respondInternal(c, "Failed to "+op+".")
	}
}

// --- Products ---

func (h *CatalogHandler) GetProducts(c *gin.Context) {
	products, err := h.catalogService.GetProducts()
	if err != nil {
		respondCatalogError(c, err, "fetch products")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *CatalogHandler) GetProductByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalogService.GetProductByID(id)
	if err != nil {
		respondCatalogError(c, err, "fetch product")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateProduct: Failed to bind JSON")
		respondBindError(c, err)
		return
	}
	product, err := h.catalogService.CreateProduct(req)
	if err != nil {
		respondCatalogError(c, err, "create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateProductPrice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	product, err := h.catalogService.UpdateProductPrice(id, req)
	if err != nil {
		respondCatalogError(c, err, "update product price")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) AddProductStocks(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.AddStocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	product, err := h.catalogService.AddProductStocks(id, req)
	if err != nil {
		respondCatalogError(c, err, "add product stocks")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteProduct(id); err != nil {
		respondCatalogError(c, err, "delete product")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Foods ---

func (h *CatalogHandler) GetFoods(c *gin.Context) {
	foods, err := h.catalogService.GetFoods()
	if err != nil {
		respondCatalogError(c, err, "fetch foods")
		return
	}
	c.JSON(http.StatusOK, foods)
}

func (h *CatalogHandler) CreateFood(c *gin.Context) {
	var req services.CreateFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateFood: Failed to bind JSON")
		respondBindError(c, err)
		return
	}
	food, err := h.catalogService.CreateFood(req)
	if err != nil {
		respondCatalogError(c, err, "create food")
		return
	}
	c.JSON(http.StatusCreated, food)
}

func (h *CatalogHandler) UpdateFood(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	food, err := h.catalogService.UpdateFood(id, req)
	if err != nil {
		respondCatalogError(c, err, "update food")
		return
	}
	c.JSON(http.StatusOK, food)
}

// --- Beverages ---

func (h *CatalogHandler) GetBeverages(c *gin.Context) {
	beverages, err := h.catalogService.GetBeverages()
	if err != nil {
		respondCatalogError(c, err, "fetch beverages")
		return
	}
	c.JSON(http.StatusOK, beverages)
}

func (h *CatalogHandler) CreateBeverage(c *gin.Context) {
	var req services.CreateBeverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateBeverage: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Product and price are required.", err.Error()))
		return
	}
	beverage, err := h.catalogService.CreateBeverage(req)
	if err != nil {
		respondCatalogError(c, err, "create beverage")
		return
	}
	c.JSON(http.StatusCreated, beverage)
}

func (h *CatalogHandler) AddBeverageStocks(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.AddStocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	beverage, err := h.catalogService.AddBeverageStocks(c.Request.Context(), id, req)
	if err != nil {
		respondCatalogError(c, err, "add beverage stocks")
		return
	}
	c.JSON(http.StatusOK, beverage)
}
