package router

import (
	"lounge_pos_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupWhitelistRoutes sets up the whitelist routes. They stay reachable from
// unknown addresses so terminals can check their status.
func SetupWhitelistRoutes(apiGroup *gin.RouterGroup, whitelistHandler *handlers.WhitelistHandler) {
	whitelistRoutes := apiGroup.Group("/whitelist")
	{
		whitelistRoutes.GET("", whitelistHandler.CheckAccess)
		whitelistRoutes.GET("/ip", whitelistHandler.GetClientIP)
	}
}

// SetupSaleRoutes sets up the sale routes.
func SetupSaleRoutes(group *gin.RouterGroup, saleHandler *handlers.SaleHandler) {
	saleRoutes := group.Group("/sales")
	{
		saleRoutes.POST("", saleHandler.RecordSale)
		saleRoutes.GET("", saleHandler.GetSales)
		saleRoutes.GET("/today", saleHandler.GetSalesToday)
		saleRoutes.GET("/:id", saleHandler.GetSaleByID)
		saleRoutes.PUT("/:id", saleHandler.UpdateSale)
	}
}

// SetupProductRoutes sets up the product routes.
func SetupProductRoutes(group *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	productRoutes := group.Group("/products")
	{
		productRoutes.GET("", catalogHandler.GetProducts)
		productRoutes.POST("", catalogHandler.CreateProduct)
		productRoutes.GET("/:id", catalogHandler.GetProductByID)
		productRoutes.PUT("/:id/price", catalogHandler.UpdateProductPrice)
		productRoutes.PUT("/:id/add-stocks", catalogHandler.AddProductStocks)
		productRoutes.DELETE("/:id", catalogHandler.DeleteProduct)
	}
}

// SetupFoodRoutes sets up the food routes.
func SetupFoodRoutes(group *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	foodRoutes := group.Group("/foods")
	{
		foodRoutes.GET("", catalogHandler.GetFoods)
		foodRoutes.POST("", catalogHandler.CreateFood)
		foodRoutes.PUT("/:id", catalogHandler.UpdateFood)
	}
}

// SetupBeverageRoutes sets up the beverage routes.
func SetupBeverageRoutes(group *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	beverageRoutes := group.Group("/beverage")
	{
		beverageRoutes.GET("", catalogHandler.GetBeverages)
		beverageRoutes.POST("", catalogHandler.CreateBeverage)
		beverageRoutes.PUT("/:id/add-stocks", catalogHandler.AddBeverageStocks)
	}
}

// SetupInventoryRoutes sets up the consumable inventory routes.
func SetupInventoryRoutes(group *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	inventoryRoutes := group.Group("/inventory")
	{
		inventoryRoutes.GET("", inventoryHandler.GetInventory)
		inventoryRoutes.GET("/movements", inventoryHandler.GetMovements)
		inventoryRoutes.PUT("/:id/add-stocks", inventoryHandler.AddStocks)
	}
}

// SetupMemberRoutes sets up the member routes.
func SetupMemberRoutes(group *gin.RouterGroup, memberHandler *handlers.MemberHandler) {
	memberRoutes := group.Group("/members")
	{
		memberRoutes.GET("", memberHandler.GetMembers)
		memberRoutes.GET("/page", memberHandler.GetMembersPage)
		memberRoutes.POST("", memberHandler.CreateMember)
		memberRoutes.POST("/upload", memberHandler.UploadCurrentLoad)
		memberRoutes.POST("/recompute", memberHandler.RecomputeAggregates)
		memberRoutes.GET("/:id", memberHandler.GetMemberDetail)
		memberRoutes.DELETE("/:id", memberHandler.DeleteMember)
	}
}

// SetupExpenseRoutes sets up the expense routes.
func SetupExpenseRoutes(group *gin.RouterGroup, expenseHandler *handlers.ExpenseHandler) {
	expenseRoutes := group.Group("/expenses")
	{
		expenseRoutes.GET("", expenseHandler.GetExpenses)
		expenseRoutes.POST("/add", expenseHandler.CreateExpense)
		expenseRoutes.PUT("/:id/pay", expenseHandler.SettleExpense)
		expenseRoutes.GET("/paid-by", expenseHandler.GetPaidBy)
		expenseRoutes.GET("/mode-of-payment", expenseHandler.GetModesOfPayment)
		expenseRoutes.POST("/filter-by-paid-by", expenseHandler.FilterByPaidBy)
		expenseRoutes.POST("/date-range", expenseHandler.GetExpensesInRange)
	}
}

// SetupEventRoutes sets up the live update stream.
func SetupEventRoutes(group *gin.RouterGroup, eventHandler *handlers.EventHandler) {
	group.GET("/events", eventHandler.Stream)
}
