package handler

import (
	"campus-ledger/internal/adapter/http/middleware"
	"campus-ledger/internal/core/domain"
	"campus-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	RewardSvc      ports.RewardService
	PurchaseSvc    ports.PurchaseService
	TreasurySvc    ports.TreasuryService
	ReportingSvc   ports.ReportingService
	TokenSvc       ports.TokenService
	RateLimitStore ports.RateLimitStore // nil = rate limiting disabled
	RateLimitRules map[string]middleware.RateLimitRule // nil = DefaultRateLimitRules
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20))

	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := deps.RateLimitRules
	if rules == nil {
		rules = middleware.DefaultRateLimitRules()
	}
	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimitStore == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	// --- Public routes ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- Authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	walletHandler := NewWalletHandler(deps.ReportingSvc)
	rewardHandler := NewRewardHandler(deps.RewardSvc)
	orderHandler := NewOrderHandler(deps.PurchaseSvc)

	wallet := v1.Group("/wallet", jwtAuth, rl("read"))
	{
		wallet.GET("", walletHandler.GetWallet)
		wallet.GET("/coins", walletHandler.ListCoins)
		wallet.GET("/transactions", walletHandler.ListTransactions)
	}
	v1.GET("/coins/:id/history", jwtAuth, rl("read"), walletHandler.CoinHistory)

	rewards := v1.Group("/rewards", jwtAuth)
	{
		rewards.GET("/events", rl("read"), rewardHandler.ListEvents)
		rewards.POST("/claim", rl("claim"), rewardHandler.Claim)
	}

	orders := v1.Group("/orders", jwtAuth)
	{
		orders.POST("", rl("purchase"), orderHandler.Purchase)
		orders.GET("", rl("read"), orderHandler.ListOrders)
		orders.POST("/:id/confirm", rl("purchase"), orderHandler.Confirm)
	}
	v1.POST("/ads", jwtAuth, rl("purchase"), orderHandler.PurchaseAd)

	// --- Admin routes ---
	adminHandler := NewAdminHandler(deps.TreasurySvc, deps.ReportingSvc)
	admin := v1.Group("/admin", jwtAuth, middleware.RequireRole(domain.RoleAdmin), rl("admin"))
	{
		admin.POST("/rewards/events", rewardHandler.CreateEvent)
		admin.PATCH("/rewards/events/:id/status", rewardHandler.ToggleEvent)
		admin.DELETE("/rewards/events/:id", rewardHandler.DeleteEvent)
		admin.GET("/rewards/events/:id/ticket", rewardHandler.Ticket)

		admin.GET("/treasury", adminHandler.Vault)
		admin.POST("/mint/semester", adminHandler.MintSemester)
		admin.POST("/mint/manual", adminHandler.MintManual)
		admin.POST("/grants", adminHandler.Grant)
		admin.GET("/ledger/verify", adminHandler.VerifyChain)
	}

	return r
}
