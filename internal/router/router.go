package router

import (
	"database/sql"
	"time"

	"lounge_pos_backend/internal/events"
	"lounge_pos_backend/internal/handlers"
	"lounge_pos_backend/internal/middleware"
	"lounge_pos_backend/internal/repositories"
	"lounge_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Options carries the runtime settings the services need.
type Options struct {
	Location          *time.Location
	LowStockThreshold int
	ExpenseSettler    string
	WhitelistEnabled  bool
	Hub               *events.Hub
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, opts Options) {
	hub := opts.Hub
	if hub == nil {
		hub = events.NewHub(0)
	}

	// Repositories
	txManager := repositories.NewTxManager(db)
	saleRepo := repositories.NewSaleRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	inventoryRepo := repositories.NewInventoryRepository(db)
	movementRepo := repositories.NewInventoryMovementRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	expenseRepo := repositories.NewExpenseRepository(db)
	whitelistRepo := repositories.NewWhitelistRepository(db)

	// Services
	memberService := services.NewMemberService(memberRepo, db, txManager, opts.Location)
	saleService := services.NewSaleService(saleRepo, catalogRepo, inventoryRepo, movementRepo, txManager, hub, memberService, opts.Location)
	catalogService := services.NewCatalogService(catalogRepo, movementRepo, db, txManager, hub)
	inventoryService := services.NewInventoryService(inventoryRepo, movementRepo, txManager, opts.LowStockThreshold)
	expenseService := services.NewExpenseService(expenseRepo, db, txManager, hub, opts.ExpenseSettler, opts.Location)
	whitelistService := services.NewWhitelistService(whitelistRepo)

	// Handlers
	saleHandler := handlers.NewSaleHandler(saleService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	memberHandler := handlers.NewMemberHandler(memberService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)
	whitelistHandler := handlers.NewWhitelistHandler(whitelistService)
	eventHandler := handlers.NewEventHandler(hub, saleService)

	apiV1 := engine.Group("/api/v1")
	SetupWhitelistRoutes(apiV1, whitelistHandler)

	protected := apiV1.Group("")
	if opts.WhitelistEnabled {
		protected.Use(middleware.WhitelistMiddleware(whitelistService))
	}
	{
		SetupSaleRoutes(protected, saleHandler)
		SetupProductRoutes(protected, catalogHandler)
		SetupFoodRoutes(protected, catalogHandler)
		SetupBeverageRoutes(protected, catalogHandler)
		SetupInventoryRoutes(protected, inventoryHandler)
		SetupMemberRoutes(protected, memberHandler)
		SetupExpenseRoutes(protected, expenseHandler)
		SetupEventRoutes(protected, eventHandler)
	}
}
