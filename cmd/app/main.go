package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"provest/configs"
	"provest/internal/database"
	delivery "provest/internal/delivery/http"
	"provest/internal/domain"
	"provest/internal/infra"
	"provest/internal/repository"
	"provest/internal/service"
	"provest/internal/usecase"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg := configs.Load()

	logger, err := infra.NewLogger(cfg.Server.Env, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Initialize database
	db, err := infra.NewDatabase(ctx, cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis is optional; without it settings reads go straight to the database
	rdb, err := infra.NewRedis(ctx, cfg.Redis.URL, logger)
	if err != nil {
		logger.Warn("redis unavailable, settings cache disabled", zap.Error(err))
		rdb = nil
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	planRepo := repository.NewPlanRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	if rdb != nil {
		settingsRepo = repository.NewCachedSettingsRepository(settingsRepo, rdb, logger)
	}

	ensureAdminUser(ctx, userRepo, walletRepo, logger)

	// Usecases
	ledgerService := usecase.NewLedgerService(walletRepo, txnRepo, userRepo, settingsRepo, logger)
	referralService := usecase.NewReferralService(userRepo, walletRepo, logger)
	commissionService := usecase.NewCommissionService(ledgerService, referralService, settingsRepo, logger)
	planService := usecase.NewPlanService(planRepo, userRepo, walletRepo, commissionService, logger)
	payoutService := usecase.NewPayoutService(payoutRepo, walletRepo, txnRepo, settingsRepo, logger)

	// Background jobs
	roiDistributor := service.NewROIDistributor(userRepo, planRepo, walletRepo, txnRepo, ledgerService, logger)
	reservationAuditor := service.NewReservationAuditor(userRepo, walletRepo, payoutRepo, logger)

	scheduler := infra.NewScheduler(roiDistributor, reservationAuditor,
		cfg.Scheduler.ROISchedule, cfg.Scheduler.AuditSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	// HTTP server
	e := echo.New()
	e.HideBanner = true

	delivery.SetupRoutes(e, &delivery.RouterConfig{
		AuthHandler:   delivery.NewAuthHandler(userRepo, referralService),
		WalletHandler: delivery.NewWalletHandler(ledgerService),
		PlanHandler:   delivery.NewPlanHandler(planService),
		PayoutHandler: delivery.NewPayoutHandler(payoutService),
		AdminHandler: delivery.NewAdminHandler(
			payoutService, planService, ledgerService,
			userRepo, settingsRepo, roiDistributor, reservationAuditor),
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("starting server",
		zap.String("addr", addr),
		zap.String("env", cfg.Server.Env))

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}

// ensureAdminUser seeds the operator account on first boot. Credentials come
// from ADMIN_EMAIL and ADMIN_PASSWORD; without them nothing is created.
func ensureAdminUser(ctx context.Context, users domain.UserRepository, wallets domain.WalletRepository, logger *zap.Logger) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}

	if _, err := users.GetByEmail(ctx, email); err == nil {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash admin password", zap.Error(err))
		return
	}

	now := time.Now()
	admin := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Administrator",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		ReferralCode: "ADMIN001",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, admin); err != nil {
		logger.Error("failed to create admin user", zap.Error(err))
		return
	}
	if err := wallets.Create(ctx, domain.NewWallet(admin.ID)); err != nil {
		logger.Error("failed to create admin wallet", zap.Error(err))
		return
	}

	logger.Info("admin user created", zap.String("email", email))
}
