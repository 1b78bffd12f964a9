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

	"github.com/gin-gonic/gin"

	"github.com/Moe-hub814/Academy/internal/di"
	"github.com/Moe-hub814/Academy/internal/gateway"
	"github.com/Moe-hub814/Academy/internal/metrics"
	internalmw "github.com/Moe-hub814/Academy/internal/middleware"
	"github.com/Moe-hub814/Academy/internal/repository"
	"github.com/Moe-hub814/Academy/pkg/config"
	"github.com/Moe-hub814/Academy/pkg/database"
	"github.com/Moe-hub814/Academy/pkg/logger"
	"github.com/Moe-hub814/Academy/pkg/middleware"
	pkgredis "github.com/Moe-hub814/Academy/pkg/redis"
	"github.com/Moe-hub814/Academy/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       "info",
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if cfg.App.Debug {
		logCfg.Level = "debug"
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info(fmt.Sprintf("Starting %s...", cfg.App.Name))

	ctx := context.Background()

	// Initialize tracing
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Warn(fmt.Sprintf("Telemetry init failed: %v", err))
	} else if cfg.OTel.Enabled {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetry.Shutdown(shutdownCtx); err != nil {
				appLog.Warn(fmt.Sprintf("Telemetry shutdown failed: %v", err))
			}
		}()
	}
	if err := metrics.Init(); err != nil {
		appLog.Warn(fmt.Sprintf("Metrics init failed: %v", err))
	}

	// Initialize database connection
	var db *database.PostgresDB
	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	}
	db, err = database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Warn(fmt.Sprintf("Database connection failed: %v", err))
	} else {
		defer db.Close()
		appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))
	}

	// Initialize Redis connection
	var redisClient *pkgredis.Client
	redisCfg := &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		MaxRetries:    3,
		RetryInterval: 100 * time.Millisecond,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
	}
	redisClient, err = pkgredis.NewClient(ctx, redisCfg)
	if err != nil {
		appLog.Warn(fmt.Sprintf("Redis connection failed: %v", err))
	} else {
		defer redisClient.Close()
		appLog.Info("Redis connected")
	}

	// Initialize billing gateway
	var billingGateway gateway.BillingGateway
	if cfg.Billing.SecretKey != "" {
		billingGateway, err = gateway.NewStripeGateway(&gateway.StripeGatewayConfig{
			SecretKey:     cfg.Billing.SecretKey,
			WebhookSecret: cfg.Billing.WebhookSecret,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Failed to create Stripe gateway: %v, falling back to mock", err))
		}
	}
	if billingGateway == nil {
		billingGateway = gateway.NewMockGateway()
		appLog.Warn("Using mock billing gateway (no billing secret key configured)")
	} else {
		appLog.Info(fmt.Sprintf("Using %s billing gateway", billingGateway.Name()))
	}

	// Initialize repositories
	var (
		studentRepo    repository.StudentRepository
		progressRepo   repository.ProgressRepository
		paymentRepo    repository.PaymentRepository
		enrollmentRepo repository.EnrollmentRepository
	)
	if db != nil {
		studentRepo = repository.NewPostgresStudentRepository(db)
		progressRepo = repository.NewPostgresProgressRepository(db)
		paymentRepo = repository.NewPostgresPaymentRepository(db)
		enrollmentRepo = repository.NewPostgresEnrollmentRepository(db)
		appLog.Info("Using PostgreSQL repositories")
	} else {
		studentRepo = repository.NewMemoryStudentRepository()
		progressRepo = repository.NewMemoryProgressRepository()
		paymentRepo = repository.NewMemoryPaymentRepository()
		enrollmentRepo = repository.NewMemoryEnrollmentRepository()
		appLog.Warn("Using in-memory repositories (data will not persist)")
	}

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		Config:         cfg,
		DB:             db,
		Redis:          redisClient,
		StudentRepo:    studentRepo,
		ProgressRepo:   progressRepo,
		PaymentRepo:    paymentRepo,
		EnrollmentRepo: enrollmentRepo,
		BillingGateway: billingGateway,
	})

	// Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(appLog))
	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware(cfg.OTel.ServiceName))
	}

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		// Student session routes
		studentAuth := v1.Group("/auth/student")
		{
			studentAuth.POST("/login", container.AuthHandler.StudentLogin)
			studentAuth.POST("/logout", container.AuthHandler.StudentLogout)
			studentAuth.GET("/check",
				internalmw.RequireStudent(container.TokenService, studentRepo),
				container.AuthHandler.StudentCheck)
		}

		// Admin session routes
		adminAuth := v1.Group("/auth/admin")
		{
			adminAuth.POST("/login", container.AuthHandler.AdminLogin)
			adminAuth.POST("/logout", container.AuthHandler.AdminLogout)
			adminAuth.GET("/check",
				internalmw.RequireAdmin(container.TokenService),
				container.AuthHandler.AdminCheck)
		}

		// Course progress routes, gated on an active subscription
		progress := v1.Group("/progress")
		progress.Use(internalmw.RequireStudent(container.TokenService, studentRepo))
		{
			progress.GET("", container.ProgressHandler.Get)
			progress.PATCH("", container.ProgressHandler.Update)
		}

		// Admin routes
		admin := v1.Group("")
		admin.Use(internalmw.RequireAdmin(container.TokenService))
		{
			// Configure idempotency middleware for admin write operations
			var idempotencyConfig *middleware.IdempotencyConfig
			if redisClient != nil {
				idempotencyConfig = middleware.DefaultIdempotencyConfig(redisClient.Client())
			}

			students := admin.Group("/students")
			{
				students.GET("", container.StudentHandler.List)
				students.GET("/:id", container.StudentHandler.Get)
				if idempotencyConfig != nil {
					students.POST("", middleware.Idempotency(idempotencyConfig), container.StudentHandler.Create)
					students.PATCH("/:id", middleware.Idempotency(idempotencyConfig), container.StudentHandler.Update)
				} else {
					students.POST("", container.StudentHandler.Create)
					students.PATCH("/:id", container.StudentHandler.Update)
				}
				students.DELETE("/:id", container.StudentHandler.Delete)
			}

			admin.GET("/admin/stats", container.StudentHandler.Stats)
		}

		// Billing processor webhook
		if container.WebhookHandler != nil {
			v1.POST("/webhooks/billing", container.WebhookHandler.HandleBillingWebhook)
		} else {
			appLog.Warn("Billing webhook secret not configured, webhook endpoint disabled")
		}
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("%s listening on %s", cfg.App.Name, addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
