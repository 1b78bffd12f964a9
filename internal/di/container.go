package di

import (
	"github.com/Moe-hub814/Academy/internal/gateway"
	"github.com/Moe-hub814/Academy/internal/handler"
	"github.com/Moe-hub814/Academy/internal/repository"
	"github.com/Moe-hub814/Academy/internal/service"
	"github.com/Moe-hub814/Academy/pkg/config"
	"github.com/Moe-hub814/Academy/pkg/database"
	"github.com/Moe-hub814/Academy/pkg/redis"
)

// Container holds all dependencies for the platform service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Gateways
	BillingGateway gateway.BillingGateway

	// Repositories
	StudentRepo    repository.StudentRepository
	ProgressRepo   repository.ProgressRepository
	PaymentRepo    repository.PaymentRepository
	EnrollmentRepo repository.EnrollmentRepository

	// Services
	TokenService    *service.TokenService
	AuthService     *service.AuthService
	BillingService  *service.BillingService
	ProgressService *service.ProgressService
	StudentService  *service.StudentService

	// Handlers
	HealthHandler   *handler.HealthHandler
	AuthHandler     *handler.AuthHandler
	ProgressHandler *handler.ProgressHandler
	StudentHandler  *handler.StudentHandler
	WebhookHandler  *handler.WebhookHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config         *config.Config
	DB             *database.PostgresDB
	Redis          *redis.Client
	StudentRepo    repository.StudentRepository
	ProgressRepo   repository.ProgressRepository
	PaymentRepo    repository.PaymentRepository
	EnrollmentRepo repository.EnrollmentRepository
	BillingGateway gateway.BillingGateway
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		BillingGateway: cfg.BillingGateway,
		StudentRepo:    cfg.StudentRepo,
		ProgressRepo:   cfg.ProgressRepo,
		PaymentRepo:    cfg.PaymentRepo,
		EnrollmentRepo: cfg.EnrollmentRepo,
	}

	appCfg := cfg.Config

	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis, appCfg.App.Version)

	c.TokenService = service.NewTokenService(&service.TokenServiceConfig{
		JWTSecret:       appCfg.Auth.JWTSecret,
		StudentTokenTTL: appCfg.Auth.StudentTokenTTL,
		AdminTokenTTL:   appCfg.Auth.AdminTokenTTL,
	})

	c.AuthService = service.NewAuthService(
		c.StudentRepo,
		c.ProgressRepo,
		c.EnrollmentRepo,
		c.TokenService,
		&service.AuthServiceConfig{
			AdminEmail:        appCfg.Auth.AdminEmail,
			AdminPasswordHash: appCfg.Auth.AdminPasswordHash,
			BcryptCost:        appCfg.Auth.BcryptCost,
			ModuleCount:       appCfg.Course.ModuleCount,
		},
	)

	c.BillingService = service.NewBillingService(
		c.StudentRepo,
		c.PaymentRepo,
		c.EnrollmentRepo,
		c.BillingGateway,
		&service.BillingServiceConfig{
			SelfPacedPriceIDs: appCfg.Billing.SelfPacedPriceIDs(),
		},
	)

	c.ProgressService = service.NewProgressService(c.ProgressRepo, appCfg.Course.ModuleCount)

	c.StudentService = service.NewStudentService(
		c.StudentRepo,
		c.ProgressRepo,
		c.PaymentRepo,
		c.BillingGateway,
		appCfg.Course.ModuleCount,
	)

	c.AuthHandler = handler.NewAuthHandler(c.AuthService, &handler.AuthHandlerConfig{
		StudentTokenTTL: appCfg.Auth.StudentTokenTTL,
		AdminTokenTTL:   appCfg.Auth.AdminTokenTTL,
		SecureCookies:   appCfg.IsProduction(),
	})
	c.ProgressHandler = handler.NewProgressHandler(c.ProgressService)
	c.StudentHandler = handler.NewStudentHandler(c.StudentService, c.AuthService)

	if appCfg.Billing.WebhookSecret != "" {
		c.WebhookHandler = handler.NewWebhookHandler(c.BillingService, appCfg.Billing.WebhookSecret)
	}

	return c
}
