package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-ledger/config"
	httpHandler "campus-ledger/internal/adapter/http/handler"
	"campus-ledger/internal/adapter/http/middleware"
	"campus-ledger/internal/adapter/messaging/rabbitmq"
	pgStorage "campus-ledger/internal/adapter/storage/postgres"
	redisStorage "campus-ledger/internal/adapter/storage/redis"
	"campus-ledger/internal/core/ports"
	"campus-ledger/internal/service"
	"campus-ledger/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("currency", cfg.Ledger.CurrencySymbol).
		Msg("Starting campus ledger")

	ctx := context.Background()

	// PostgreSQL is the source of truth; refuse to start without it.
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	if cfg.Database.BootstrapSchema {
		if err := pgStorage.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap schema")
		}
		log.Info().Msg("Schema bootstrapped")
	}

	// Redis only backs caches, claim guards and rate limits.
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing in degraded mode")
	}
	defer rdb.Close()

	var publisher interface {
		ports.EventPublisher
		ports.HealthChecker
	}
	if p, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log); err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, ledger events will be dropped")
		publisher = rabbitmq.NewNopPublisher(log)
	} else {
		publisher = p
	}
	defer publisher.Close()

	// Repositories
	userRepo := pgStorage.NewUserRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	coinRepo := pgStorage.NewCoinRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	historyRepo := pgStorage.NewCoinHistoryRepo(pool)
	eventRepo := pgStorage.NewRewardEventRepo(pool)
	claimRepo := pgStorage.NewRewardClaimRepo(pool)
	productRepo := pgStorage.NewProductRepo(pool)
	orderRepo := pgStorage.NewOrderRepo(pool)
	adRepo := pgStorage.NewAdRepo(pool)
	notificationRepo := pgStorage.NewNotificationRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Redis-backed stores
	cache := redisStorage.NewCache(rdb)
	claimGuard := redisStorage.NewClaimGuard(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	ticketSvc := service.NewJWTTicketService(cfg.Ledger.ClaimClockTolerance)
	chainHasher := service.NewSHA256ChainHasher()
	notifier := service.NewEventNotifier(walletRepo, publisher, logger.Component(log, "notifier"))

	// Business services
	ledgerSvc := service.NewLedgerService(
		service.LedgerRepos{Wallets: walletRepo, Coins: coinRepo, Txns: txRepo, History: historyRepo},
		transactor,
		chainHasher,
		cache,
		notifier,
		cfg.Ledger.CurrencySymbol,
		cfg.Ledger.CacheTTLShort,
		logger.Component(log, "ledger"),
	)
	if err := ledgerSvc.EnsureTreasury(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure treasury wallet")
	}

	authSvc := service.NewAuthService(userRepo, ledgerSvc, transactor, hashSvc, tokenSvc, logger.Component(log, "auth"))
	rewardSvc := service.NewRewardService(
		eventRepo,
		claimRepo,
		walletRepo,
		coinRepo,
		ledgerSvc,
		transactor,
		encSvc,
		ticketSvc,
		claimGuard,
		cache,
		service.RewardOptions{
			DefaultRefreshRate: cfg.Ledger.DefaultQRRefreshRate,
			ClaimGuardTTL:      cfg.Ledger.ClaimGuardTTL,
			ListCacheTTL:       cfg.Ledger.CacheTTLShort,
		},
		logger.Component(log, "rewards"),
	)
	purchaseSvc := service.NewPurchaseService(
		service.PurchaseRepos{
			Wallets:       walletRepo,
			Products:      productRepo,
			Orders:        orderRepo,
			Ads:           adRepo,
			Notifications: notificationRepo,
		},
		ledgerSvc,
		transactor,
		cache,
		notifier,
		service.PurchaseOptions{
			CurrencySymbol: cfg.Ledger.CurrencySymbol,
			OrderListTTL:   cfg.Ledger.CacheTTLShort,
		},
		logger.Component(log, "purchases"),
	)
	treasurySvc := service.NewTreasuryService(
		userRepo, walletRepo, coinRepo, eventRepo, ledgerSvc, transactor, hashSvc,
		cfg.Ledger.AllowanceFor, logger.Component(log, "treasury"),
	)
	reportingSvc := service.NewReportingService(walletRepo, coinRepo, txRepo, historyRepo, ledgerSvc, chainHasher)
	auditSvc := service.NewAuditService(auditRepo, logger.Component(log, "audit"))

	rules := middleware.DefaultRateLimitRules()
	if cfg.RateLimit.Requests > 0 && cfg.RateLimit.Window > 0 {
		rules["read"] = middleware.RateLimitRule{Limit: int64(cfg.RateLimit.Requests), Window: cfg.RateLimit.Window}
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		RewardSvc:      rewardSvc,
		PurchaseSvc:    purchaseSvc,
		TreasurySvc:    treasurySvc,
		ReportingSvc:   reportingSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		RateLimitRules: rules,
		HealthCheckers: []ports.HealthChecker{
			pgStorage.NewHealthCheck(pool),
			redisStorage.NewHealthCheck(rdb),
			publisher,
		},
		AuditSvc: auditSvc,
		Logger:   log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
