// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"agrichain/internal/domain/auth"
	"agrichain/internal/domain/inventory"
	"agrichain/internal/domain/shipments"
	"agrichain/internal/infrastructure/http/v1/handlers"
	"agrichain/internal/infrastructure/http/v1/middleware"
	"agrichain/internal/infrastructure/storage/postgres"
	"agrichain/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// InventoryService is the snapshot engine
	InventoryService *inventory.Service

	// ShipmentService is the shipment log
	ShipmentService *shipments.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		registerAuthRoutes(apiV1, cfg)

		// Company-scoped endpoints: JWT + membership check on :companyId
		companies := apiV1.Group("/companies/:companyId")
		companies.Use(middleware.Auth(cfg.JWTValidator))
		companies.Use(middleware.RequireCompanyAccess())

		registerSnapshotRoutes(companies, cfg)
		registerShipmentRoutes(companies, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	publicAuth := rg.Group("/auth")

	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerSnapshotRoutes registers the inventory snapshot endpoints.
func registerSnapshotRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewSnapshotHandler(baseHandler, cfg.InventoryService)

	// Reads materialize missing days; only finalize and correction are
	// explicit writes.
	rg.GET("/centers/:centerId/snapshots/:date", handler.GetCenterSnapshot)
	rg.POST("/centers/:centerId/snapshots/:date/finalize", handler.Finalize)

	rg.GET("/snapshots", handler.GetCompanyRange)
	rg.GET("/snapshots/:date", handler.GetCompanyDay)
	rg.PUT("/snapshots/:date", handler.Correct)
}

// registerShipmentRoutes registers the shipment log endpoints.
func registerShipmentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewShipmentHandler(baseHandler, cfg.ShipmentService)

	shipmentsGroup := rg.Group("/shipments")
	shipmentsGroup.GET("", handler.List)
	shipmentsGroup.POST("", handler.Create)
	shipmentsGroup.GET("/:id", handler.Get)
}
