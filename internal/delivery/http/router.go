package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	custommiddleware "provest/internal/middleware"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	AuthHandler   *AuthHandler
	WalletHandler *WalletHandler
	PlanHandler   *PlanHandler
	PayoutHandler *PayoutHandler
	AdminHandler  *AdminHandler
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return SuccessResponse(c, map[string]interface{}{
			"status":  "healthy",
			"service": "provest-api",
		})
	})

	api := e.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/register", config.AuthHandler.Register)
		auth.POST("/login", config.AuthHandler.Login)
		auth.POST("/logout", config.AuthHandler.Logout)
	}

	// Public plan catalog
	api.GET("/plans", config.PlanHandler.ListPlans)
	api.GET("/plans/:id", config.PlanHandler.GetPlan)

	// User routes (protected with AuthMiddleware)
	user := api.Group("/user", custommiddleware.AuthMiddleware)
	{
		user.GET("/me", config.AuthHandler.Me)
		user.GET("/wallet", config.WalletHandler.GetWallet)
		user.GET("/wallet/eligibility", config.WalletHandler.CheckEligibility)
		user.GET("/wallet/statement", config.WalletHandler.GetStatement)
		user.GET("/transactions", config.WalletHandler.GetTransactions)
		user.POST("/plans/purchase", config.PlanHandler.Purchase)
		user.POST("/payouts", config.PayoutHandler.Request)
		user.GET("/payouts", config.PayoutHandler.List)
		user.GET("/payouts/:id", config.PayoutHandler.Get)
		user.POST("/payouts/:id/cancel", config.PayoutHandler.Cancel)
	}

	// Admin routes (protected with Auth + Admin middleware)
	admin := api.Group("/admin", custommiddleware.AuthMiddleware, custommiddleware.AdminMiddleware)
	{
		admin.GET("/payouts", config.AdminHandler.ListPayoutQueue)
		admin.POST("/payouts/:id/approve", config.AdminHandler.ApprovePayout)
		admin.POST("/payouts/:id/reject", config.AdminHandler.RejectPayout)
		admin.POST("/payouts/:id/process", config.AdminHandler.ProcessPayout)
		admin.POST("/payouts/:id/complete", config.AdminHandler.CompletePayout)
		admin.POST("/payouts/:id/fail", config.AdminHandler.FailPayout)
		admin.POST("/payouts/:id/retry", config.AdminHandler.RetryPayout)
		admin.GET("/plans", config.AdminHandler.ListAllPlans)
		admin.POST("/plans", config.AdminHandler.CreatePlan)
		admin.PUT("/plans/:id", config.AdminHandler.UpdatePlan)
		admin.GET("/settings", config.AdminHandler.GetSettings)
		admin.PUT("/settings/:key", config.AdminHandler.UpdateSetting)
		admin.POST("/wallets/adjust", config.AdminHandler.AdjustBalance)
		admin.GET("/users", config.AdminHandler.ListUsers)
		admin.POST("/jobs/roi", config.AdminHandler.TriggerROIDistribution)
		admin.POST("/jobs/audit", config.AdminHandler.TriggerReservationAudit)
	}
}
