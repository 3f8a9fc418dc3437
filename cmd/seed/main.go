// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
	"agrichain/internal/core/types"
	"agrichain/internal/domain/auth"
	"agrichain/internal/domain/catalogs/center"
	"agrichain/internal/domain/catalogs/company"
	"agrichain/internal/domain/shipments"
	"agrichain/internal/infrastructure/numerator"
	"agrichain/internal/infrastructure/storage/postgres"
	"agrichain/internal/infrastructure/storage/postgres/auth_repo"
	"agrichain/internal/infrastructure/storage/postgres/catalog_repo"
	"agrichain/internal/infrastructure/storage/postgres/shipment_repo"
	"agrichain/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	adminID, err := seedAdminUser(ctx, txManager, log)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, txManager, adminID, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) (id.ID, error) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@agrichain.io"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	userRepo := auth_repo.NewUserRepo(txManager)

	existing, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		log.Infow("admin user already exists", "email", adminEmail, "user_id", existing.ID)
		return existing.ID, nil
	}
	if !apperror.IsNotFound(err) {
		return id.Nil(), fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	admin := auth.NewUser(adminEmail, string(passwordHash))
	admin.FullName = "System Admin"
	admin.IsAdmin = true

	if err := userRepo.Create(ctx, admin); err != nil {
		return id.Nil(), fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created", "email", adminEmail, "user_id", admin.ID)
	return admin.ID, nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, txManager *postgres.TxManager, adminID id.ID, log *logger.Logger) error {
	companyRepo := catalog_repo.NewCompanyRepo(txManager)
	centerRepo := catalog_repo.NewCenterRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)
	shipmentRepo := shipment_repo.NewShipmentRepo(txManager)
	shipmentService := shipments.NewService(shipmentRepo, numerator.New(pool.Pool), txManager)

	// Demo farmer with two collection centers
	farm := company.New("Green Valley Farms", company.KindFarmer)
	farm.Registration = "GVF-001"
	if err := companyRepo.Create(ctx, farm); err != nil {
		if apperror.IsDuplicate(err) {
			log.Info("demo data already seeded, skipping")
			return nil
		}
		return fmt.Errorf("create company: %w", err)
	}

	north := center.New(farm.ID, "North Collection Center")
	north.Address = "12 Orchard Road"
	if err := centerRepo.Create(ctx, north); err != nil {
		return fmt.Errorf("create center: %w", err)
	}

	south := center.New(farm.ID, "South Collection Center")
	south.Address = "7 Harvest Lane"
	if err := centerRepo.Create(ctx, south); err != nil {
		return fmt.Errorf("create center: %w", err)
	}

	if err := userRepo.AttachCompany(ctx, adminID, farm.ID); err != nil {
		return fmt.Errorf("attach company: %w", err)
	}

	// A few days of inbound produce at the north center
	base := time.Now().UTC().AddDate(0, 0, -7)
	wholesaler := company.New("FreshLink Wholesale", company.KindWholesaler)
	wholesaler.Registration = "FLW-001"
	if err := companyRepo.Create(ctx, wholesaler); err != nil {
		return fmt.Errorf("create wholesaler: %w", err)
	}
	hub := center.New(wholesaler.ID, "FreshLink Hub")
	if err := centerRepo.Create(ctx, hub); err != nil {
		return fmt.Errorf("create hub: %w", err)
	}

	for day := 0; day < 5; day++ {
		sh := shipments.New(wholesaler.ID, hub.ID, shipments.KindWholesale, base.AddDate(0, 0, day))
		sh.Title = "Demo produce delivery"
		sh.CreatorID = adminID.String()
		sh.DestCompanyID = &farm.ID
		sh.DestCenterID = &north.ID
		sh.Status = shipments.StatusCompleted
		sh.AddItem("Tomatoes", shipments.QualityA, types.NewQuantityFromInt(120), types.NewMoney(2.50))
		sh.AddItem("Tomatoes", shipments.QualityB, types.NewQuantityFromInt(40), types.NewMoney(1.80))
		sh.AddItem("Cucumbers", shipments.QualityA, types.NewQuantityFromInt(75), types.NewMoney(1.95))

		if err := shipmentService.Record(ctx, sh); err != nil {
			return fmt.Errorf("record demo shipment: %w", err)
		}
	}

	log.Infow("demo data seeded",
		"company_id", farm.ID,
		"centers", 2,
		"shipments", 5,
	)
	return nil
}
