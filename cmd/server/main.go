package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"lounge_pos_backend/internal/database"
	"lounge_pos_backend/internal/events"
	"lounge_pos_backend/internal/router"
	"lounge_pos_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	if err := utils.LoadEnvFile(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load .env file")
	}
	utils.InitLogger(utils.Getenv("LOG_LEVEL", "info"))

	decimal.MarshalJSONWithoutQuotes = true

	tzName := utils.Getenv("BUSINESS_TIMEZONE", "Asia/Manila")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", tzName).Msg("Invalid business timezone")
	}

	db, err := database.InitDB(database.Config{
		Host:       utils.Getenv("DB_HOST", "localhost"),
		Port:       utils.Getenv("DB_PORT", "5432"),
		User:       utils.Getenv("DB_USER", "lounge_pos_user"),
		Password:   utils.Getenv("DB_PASSWORD", "lounge_pos_password"),
		Name:       utils.Getenv("DB_NAME", "lounge_pos_db"),
		SSLMode:    utils.Getenv("DB_SSLMODE", "disable"),
		SchemaPath: utils.Getenv("DB_SCHEMA_PATH", ""),
		TimeZone:   tzName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	hub := events.NewHub(utils.GetenvInt("EVENT_BUFFER", 32))
	defer hub.Close()

	if amqpURL := utils.Getenv("AMQP_URL", ""); amqpURL != "" {
		exchange := utils.Getenv("AMQP_EXCHANGE", "lounge_pos.events")
		publisher, err := events.NewAMQPPublisher(amqpURL, exchange)
		if err != nil {
			utils.LogWarn(err, "Broker unavailable, live updates stay in-process", map[string]interface{}{"exchange": exchange})
		} else {
			defer publisher.Close()
			hub.AddMirror(publisher)
			utils.LogInfo("Mirroring live updates to broker", map[string]interface{}{"exchange": exchange})
		}
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())

	config := cors.DefaultConfig()
	config.AllowOrigins = utils.GetenvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:3001"})
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowCredentials = true
	engine.Use(cors.New(config))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.Setup(engine, db, router.Options{
		Location:          loc,
		LowStockThreshold: utils.GetenvInt("LOW_STOCK_THRESHOLD", 50),
		ExpenseSettler:    utils.Getenv("EXPENSE_SETTLER", "Admin"),
		WhitelistEnabled:  utils.GetenvBool("WHITELIST_ENABLED", false),
		Hub:               hub,
	})

	port := utils.Getenv("PORT", "8080")
	srv := &http.Server{Addr: ":" + port, Handler: engine}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": port, "timezone": tzName})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.LogInfo("Shutting down server")
	// Live streams never finish on their own; close them before draining.
	hub.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.LogError(err, "Server forced to shut down")
	}
}
