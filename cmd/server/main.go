package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/haulbridge/freightex-api/internal/auction"
	"github.com/haulbridge/freightex-api/internal/auth"
	"github.com/haulbridge/freightex-api/internal/database"
	"github.com/haulbridge/freightex-api/internal/fleet"
	"github.com/haulbridge/freightex-api/internal/settlement"
	"github.com/haulbridge/freightex-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the marketplace API server with graceful shutdown
// support. It sets up all required services, database connections, and API
// routes.
func main() {
	// Initialize database
	db, err := database.NewDatabase()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "freightex-secret-key"
	}
	authService := auth.NewService(jwtSecret)
	authHandlers := auth.NewGinHandlers(authService)
	// Register test credentials
	authService.RegisterAPICredentials(auth.TestShipperAPIKey, auth.TestShipperAPISecret, "SHIPPER_TEST", auth.RoleShipper)
	authService.RegisterAPICredentials(auth.TestCarrierAPIKey, auth.TestCarrierAPISecret, "CARRIER_TEST", auth.RoleCarrier)

	auctionService := auction.NewService(db)
	auctionHandlers := auction.NewGinHandlers(auctionService)

	fleetService := fleet.NewService(db)

	settlementService := settlement.NewService(db, fleetService, auctionService)
	settlementHandlers := settlement.NewGinHandlers(settlementService)

	// Create and start billing processor
	billingProcessor := settlement.NewProcessor(settlementService.GetDB())
	processorCtx, processorCancel := context.WithCancel(context.Background())
	defer processorCancel()

	go billingProcessor.Start(processorCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, authHandlers, auctionHandlers, settlementHandlers, billingProcessor)

	// Get port from env otherwise it's 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create server
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Listing routes: Public board reads
// - Exchange and bid routes: Protected by JWT authentication and role checks
// Parameters:
//   - router: The main Gin router instance
//   - authHandlers: Handlers for authentication endpoints
//   - auctionHandlers: Handlers for exchange and bid management
//   - settlementHandlers: Handlers for bid acceptance and cancellation
//   - billingProcessor: Billing processor exposed on the internal surface
func setupRoutes(
	router *gin.Engine,
	authHandlers *auth.GinHandlers,
	auctionHandlers *auction.GinHandlers,
	settlementHandlers *settlement.GinHandlers,
	billingProcessor *settlement.Processor,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Public board
		listings := v1.Group("/listings")
		{
			listings.GET("", auctionHandlers.ListListingsHandler())
		}

		// Exchange routes
		exchanges := v1.Group("/exchanges")
		exchanges.Use(middleware.JWTAuth())
		{
			exchanges.POST("", middleware.RequireRole(auth.RoleShipper), auctionHandlers.CreateExchangeHandler())
			exchanges.GET("/:exchange_id", auctionHandlers.GetExchangeHandler())
			exchanges.GET("/:exchange_id/bids", auctionHandlers.GetBidsHandler())
			exchanges.POST("/:exchange_id/bids", middleware.RequireRole(auth.RoleCarrier), auctionHandlers.SubmitBidHandler())
			exchanges.POST("/:exchange_id/cancel", middleware.RequireRole(auth.RoleShipper), settlementHandlers.CancelExchangeHandler())
			exchanges.GET("/:exchange_id/ledger", settlementHandlers.GetLedgerHandler())
		}

		// Bid acceptance
		bids := v1.Group("/bids")
		bids.Use(middleware.JWTAuth())
		{
			bids.POST("/:bid_id/accept", middleware.RequireRole(auth.RoleShipper), settlementHandlers.AcceptBidHandler())
		}

		// Internal routes
		internal := v1.Group("/internal")
		internal.Use(middleware.InternalAuth())
		{
			internal.POST("/billing/run", billingProcessor.RunPassHandler())
		}
	}
}
