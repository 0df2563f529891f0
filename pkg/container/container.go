package container

import (
	"log"

	"github.com/KanishKumar11/UNextDoor-sub005/config"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/api/handlers"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/auth"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/cache"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/catalog"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/currency"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/domain"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/jobs"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/logger"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/metrics"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/payment"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/paymentsapi"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/subscription"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  logger.Logger
	Metrics *metrics.Metrics

	// Infrastructure
	Cache       domain.CacheRepository
	PaymentsAPI domain.PaymentsAPI

	// Services
	CurrencyResolver    *currency.Resolver
	CatalogService      *catalog.Service
	PendingStore        *payment.PendingStore
	PaymentService      *payment.Service
	SubscriptionService *subscription.Service

	// Auth
	TokenBlacklist *auth.TokenBlacklist

	// Jobs
	CronManager *jobs.CronManager

	// Handlers
	AuthHandler     *handlers.AuthHandler
	CurrencyHandler *handlers.CurrencyHandler
	BillingHandler  *handlers.BillingHandler
}

// New creates and initializes all application dependencies
func New(cfg *config.Config) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger.New(cfg.LogLevel, cfg.LogFormat),
		Metrics: metrics.New(),
	}

	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	c.initServices()
	c.initJobs()
	c.initHandlers()

	c.Logger.Info("Container initialized successfully",
		"environment", cfg.APIEnvironment,
		"payments_backend", cfg.PaymentsAPIBaseURL,
		"cache", "connected")

	return c, nil
}

// initInfrastructure initializes the cache and the payments backend client
func (c *Container) initInfrastructure() error {
	cacheClient, err := cache.NewClient(c.Config.RedisURL)
	if err != nil {
		c.Logger.Error("Failed to connect to cache", "error", err)
		return err
	}
	c.Cache = cacheClient

	apiClient := paymentsapi.NewClient(paymentsapi.Config{
		BaseURL: c.Config.PaymentsAPIBaseURL,
		Timeout: c.Config.PaymentsAPITimeout,
	}, c.Logger)
	apiClient.SetMetrics(c.Metrics)
	c.PaymentsAPI = apiClient

	c.Logger.Info("Infrastructure initialized",
		"cache", "connected",
		"payments_backend", c.Config.PaymentsAPIBaseURL)

	return nil
}

// initServices initializes all domain services and wires their
// cross-dependencies
func (c *Container) initServices() {
	c.TokenBlacklist = auth.NewTokenBlacklist(c.Cache)

	c.CurrencyResolver = currency.NewResolver(c.PaymentsAPI, c.Cache, c.Logger)
	c.CurrencyResolver.SetMetrics(c.Metrics)

	c.CatalogService = catalog.NewService(c.PaymentsAPI, c.Logger)

	c.PendingStore = payment.NewPendingStore(c.Cache, c.Config.PendingOrderTTL)

	c.PaymentService = payment.NewService(
		c.PaymentsAPI,
		c.PendingStore,
		c.CatalogService,
		c.Cache,
		c.Config.PaymentLockTTL,
		c.Logger,
	)
	c.PaymentService.SetMetrics(c.Metrics)

	c.SubscriptionService = subscription.NewService(c.PaymentsAPI, c.Cache, c.Logger)
	c.SubscriptionService.SetMetrics(c.Metrics)

	// Settled payments refresh the subscription read model exactly once
	c.PaymentService.SetRefresher(c.SubscriptionService)

	c.Logger.Info("Services initialized",
		"currency_resolver", "ready",
		"catalog_service", "ready",
		"payment_service", "ready",
		"subscription_service", "ready")
}

// initJobs wires the pending-order sweep when it is enabled
func (c *Container) initJobs() {
	if !c.Config.PendingSweepEnabled {
		c.Logger.Info("Pending-order sweep disabled")
		return
	}

	sweeper := jobs.NewPendingSweeper(
		c.PaymentService,
		c.PendingStore,
		c.Config.PaymentsAPIServiceToken,
		log.Default(),
	)

	c.CronManager = jobs.NewCronManager(sweeper, log.Default())
	c.CronManager.SetMetrics(c.Metrics)
}

// initHandlers initializes all HTTP handlers
func (c *Container) initHandlers() {
	c.AuthHandler = handlers.NewAuthHandler(c.TokenBlacklist, c.Config)
	c.CurrencyHandler = handlers.NewCurrencyHandler(c.CurrencyResolver)
	c.BillingHandler = handlers.NewBillingHandler(
		c.CurrencyResolver,
		c.CatalogService,
		c.PaymentService,
		c.SubscriptionService,
	)

	c.Logger.Info("Handlers initialized")
}

// Close closes all resources
func (c *Container) Close() error {
	c.Logger.Info("Shutting down container...")

	if c.CronManager != nil {
		c.CronManager.Stop()
	}

	if err := c.Cache.Close(); err != nil {
		c.Logger.Error("Failed to close cache", "error", err)
		return err
	}

	c.Logger.Info("Container shutdown complete")
	return nil
}
