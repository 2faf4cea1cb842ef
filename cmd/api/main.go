package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"coinkeep/internal/config"
	"coinkeep/internal/database"
	"coinkeep/internal/events"
	"coinkeep/internal/forex"
	"coinkeep/internal/handlers"
	"coinkeep/internal/logger"
	"coinkeep/internal/middleware"
	"coinkeep/internal/services"
	"coinkeep/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "coinkeep/internal/docs" // Import swagger docs
)

// @title           Coinkeep API
// @version         1.0
// @description     Coinkeep is a personal finance API for tracking accounts, transactions, transfers, recurring plans and multi-currency net worth.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Change events fan out to connected SSE streams
	bus := events.NewBus()

	ratesClient := forex.NewClient(&http.Client{Timeout: 10 * time.Second}, appConfig.RatesURL)

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	accountService := services.NewAccountService(db, bus)
	categoryService := services.NewCategoryService(db, bus)
	settingsService := services.NewSettingsService(db, bus)
	currencyService := services.NewCurrencyService(db, bus, settingsService, ratesClient)
	transactionService := services.NewTransactionService(db, bus, accountService, categoryService)
	transferService := services.NewTransferService(db, bus, accountService)
	plannedService := services.NewPlannedService(db, bus, categoryService)
	reportService := services.NewReportService(db, accountService, settingsService, plannedService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	accountHandler := handlers.NewAccountHandler(accountService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	currencyHandler := handlers.NewCurrencyHandler(currencyService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	transferHandler := handlers.NewTransferHandler(transferService)
	plannedHandler := handlers.NewPlannedHandler(plannedService)
	reportHandler := handlers.NewReportHandler(reportService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	streamHandler := handlers.NewStreamHandler(bus)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Account routes
	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.GET("/:id/balance", accountHandler.GetAccountBalance)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Currency routes
	currencies := protected.Group("/currencies")
	currencies.GET("", currencyHandler.GetCurrencies)
	currencies.PUT("", currencyHandler.UpsertCurrency)
	currencies.POST("/refresh", currencyHandler.RefreshCurrencies)
	currencies.POST("/rebase", currencyHandler.Rebase)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Transfer routes
	transfers := protected.Group("/transfers")
	transfers.POST("", transferHandler.CreateTransfer)
	transfers.GET("", transferHandler.GetTransfers)
	transfers.GET("/:id", transferHandler.GetTransfer)
	transfers.PUT("/:id", transferHandler.UpdateTransfer)
	transfers.DELETE("/:id", transferHandler.DeleteTransfer)

	// Planned transaction routes. The occurrences route is registered before
	// the :id routes so gin does not treat "occurrences" as an id.
	planned := protected.Group("/planned")
	planned.POST("", plannedHandler.CreatePlanned)
	planned.GET("", plannedHandler.GetPlanned)
	planned.GET("/occurrences", plannedHandler.GetOccurrences)
	planned.GET("/:id", plannedHandler.GetPlannedByID)
	planned.PUT("/:id", plannedHandler.UpdatePlanned)
	planned.DELETE("/:id", plannedHandler.DeletePlanned)

	// Report routes
	reports := protected.Group("/reports")
	reports.GET("/net-worth", reportHandler.GetNetWorth)
	reports.GET("/categories", reportHandler.GetCategoryBreakdown)
	reports.GET("/projection", reportHandler.GetProjection)

	// Settings routes
	settings := protected.Group("/settings")
	settings.GET("", settingsHandler.GetSettings)
	settings.PUT("/onboarding", settingsHandler.UpdateOnboarding)

	// Server-sent change events
	protected.GET("/events", streamHandler.Stream)

	log.Infof("Starting Coinkeep backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
