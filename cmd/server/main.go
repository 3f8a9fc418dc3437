// Package main is the entry point for the agrichain API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrichain/internal/domain/auth"
	"agrichain/internal/domain/inventory"
	"agrichain/internal/domain/shipments"
	v1 "agrichain/internal/infrastructure/http/v1"
	"agrichain/internal/infrastructure/numerator"
	"agrichain/internal/infrastructure/storage/postgres"
	"agrichain/internal/infrastructure/storage/postgres/auth_repo"
	"agrichain/internal/infrastructure/storage/postgres/catalog_repo"
	"agrichain/internal/infrastructure/storage/postgres/shipment_repo"
	"agrichain/internal/infrastructure/storage/postgres/snapshot_repo"
	"agrichain/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting agrichain server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)
	locker := postgres.NewCenterLocker(txManager)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Numerator ---
	numeratorService := numerator.New(pool.Pool)

	// --- Repositories ---
	snapshotRepo := snapshot_repo.NewSnapshotRepo(txManager)
	shipmentRepo := shipment_repo.NewShipmentRepo(txManager)
	centerRepo := catalog_repo.NewCenterRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)
	tokenRepo := auth_repo.NewTokenRepo(txManager)

	// --- Domain services ---
	shipmentService := shipments.NewService(shipmentRepo, numeratorService, txManager)

	inventoryCfg := inventory.DefaultConfig()
	if days := getEnvInt("CASCADE_WINDOW_DAYS", 0); days > 0 {
		inventoryCfg.CascadeWindowDays = days
	}
	if days := getEnvInt("MAX_ROLLFORWARD_DAYS", 0); days > 0 {
		inventoryCfg.MaxRollforwardDays = days
	}

	inventoryService := inventory.NewService(
		snapshotRepo,
		shipmentRepo,
		shipmentService,
		centerRepo,
		txManager,
		locker,
		auditService,
		inventoryCfg,
	)

	// --- Auth ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))
	authService := auth.NewService(
		userRepo,
		tokenRepo,
		txManager,
		jwtService,
		auth.DefaultServiceConfig(),
	)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:             pool,
		Logger:           log,
		JWTValidator:     jwtService,
		AuthService:      authService,
		InventoryService: inventoryService,
		ShipmentService:  shipmentService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
