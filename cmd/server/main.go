package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"algobank/backend/internal/config"
	"algobank/backend/internal/handler"
	"algobank/backend/internal/middleware"
	"algobank/backend/internal/repository"
	"algobank/backend/internal/service"
	"algobank/backend/pkg/db"
	"algobank/backend/pkg/helpers"
	"algobank/backend/pkg/logger"
	"algobank/backend/pkg/metrics"
)

const serviceName = "backend"

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	log := logger.NewLogger(serviceName)
	cfg := config.LoadConfig()

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	gin.SetMode(cfg.Server.Mode)

	// Database
	conn, err := db.NewConnection(db.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer conn.Close()

	if err := db.Bootstrap(conn.DB); err != nil {
		log.WithError(err).Fatal("failed to bootstrap schema")
	}

	m := metrics.NewMetrics(serviceName)
	validator := helpers.NewCustomValidator()

	// Repositories
	userRepo := repository.NewUserRepository(conn.DB)
	walletRepo := repository.NewWalletRepository(conn.DB)
	gainsRepo := repository.NewGainsRepository(conn.DB)
	transactionRepo := repository.NewTransactionRepository(conn.DB)
	withdrawalRepo := repository.NewWithdrawalRepository(conn.DB)
	investmentRepo := repository.NewInvestmentRepository(conn.DB)
	referralRepo := repository.NewReferralRepository(conn.DB)
	notificationRepo := repository.NewNotificationRepository(conn.DB)
	ticketRepo := repository.NewTicketRepository(conn.DB)

	// Services
	var channel service.EmailChannel
	if cfg.SMTP.Host != "" {
		channel = service.NewSMTPChannel(cfg.SMTP)
	} else {
		channel = service.NewNoopChannel(log)
	}
	emailService := service.NewEmailService(channel, cfg.Server.FrontendURL, log)
	notificationService := service.NewNotificationService(notificationRepo, log)
	marketService := service.NewMarketService(log)
	referralService := service.NewReferralService(referralRepo, userRepo, notificationService, log)
	authService := service.NewAuthService(userRepo, walletRepo, gainsRepo, referralRepo,
		emailService, cfg.JWT, log)
	ledgerService := service.NewLedgerService(walletRepo, gainsRepo, transactionRepo,
		withdrawalRepo, investmentRepo, userRepo, referralService, notificationService,
		emailService, marketService, cfg.Deposit, log)
	ticketService := service.NewTicketService(ticketRepo, userRepo, notificationService,
		emailService, log)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.FrontendURL))
	router.Use(logger.RequestLogger(log))
	router.Use(metrics.Middleware(m))

	router.GET("/health", func(c *gin.Context) {
		if err := conn.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.RequireAuth(authService)
	requireAdmin := middleware.RequireAdmin()

	api := router.Group("/api")
	handler.NewAuthHandler(authService, validator).RegisterRoutes(api, requireAuth)
	handler.NewWalletHandler(ledgerService, validator).RegisterRoutes(api, requireAuth, requireAdmin)
	handler.NewReferralHandler(referralService).RegisterRoutes(api, requireAuth)
	handler.NewNotificationHandler(notificationService).RegisterRoutes(api, requireAuth)
	handler.NewSupportHandler(ticketService, validator, cfg.Uploads).RegisterRoutes(api, requireAuth, requireAdmin)
	handler.NewMarketHandler(marketService).RegisterRoutes(api)
	handler.NewAdminHandler(ledgerService, referralService, validator).RegisterRoutes(api, requireAuth, requireAdmin)

	// Periodically export connection pool stats
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			stats := conn.DB.Stats()
			m.RecordDBPoolStats(stats.OpenConnections, stats.InUse, stats.Idle,
				stats.WaitCount, stats.WaitDuration)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Server.HTTPPort).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
	log.Info("server stopped")
}
