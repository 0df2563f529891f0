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

	"github.com/KanishKumar11/UNextDoor-sub005/config"
	custommw "github.com/KanishKumar11/UNextDoor-sub005/pkg/api/middleware"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/container"
	custommiddleware "github.com/KanishKumar11/UNextDoor-sub005/pkg/middleware"
	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Initialize dependencies
	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize container: %v", err)
	}
	defer c.Close()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Rate limiters: the payment budget is much smaller than the general one
	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	paymentRateLimiter := custommiddleware.NewRateLimiter(cfg.PaymentRateLimitPerMinute, cfg.PaymentRateLimitBurst)

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", c.Request().Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Sentry error tracking middleware (if configured)
	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	// Prometheus metrics middleware
	e.Use(c.Metrics.Middleware())

	// CORS with restricted origins
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowCredentials: true,
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Device-Timezone",
		},
	}))

	e.Use(middleware.Gzip())
	e.Use(middleware.Secure())

	// Global rate limiting
	e.Use(globalRateLimiter.RateLimitMiddleware())

	// Health check endpoints (public)
	e.GET("/", func(ec echo.Context) error {
		return ec.JSON(http.StatusOK, map[string]any{
			"name":        "UNextDoor Billing API",
			"version":     "0.1.0",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(ec echo.Context) error {
		ctx, cancel := context.WithTimeout(ec.Request().Context(), 2*time.Second)
		defer cancel()

		if _, err := c.Cache.Exists(ctx, "health_check"); err != nil {
			return ec.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"cache":  "down",
			})
		}

		return ec.JSON(http.StatusOK, map[string]any{
			"status": "healthy",
			"cache":  "up",
		})
	})

	// Prometheus metrics endpoint (public)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.GET("/ping", func(ec echo.Context) error {
		return ec.JSON(http.StatusOK, map[string]string{
			"message": "pong",
		})
	})

	jwtMW := custommw.JWTMiddlewareWithBlacklist(cfg.JWTSecret, c.TokenBlacklist)

	// Session routes
	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/logout", c.AuthHandler.Logout, jwtMW)
	}

	// Protected routes
	protected := v1.Group("")
	protected.Use(jwtMW)
	{
		// Currency resolution
		protected.GET("/currency", c.CurrencyHandler.Resolve)
		protected.POST("/currency", c.CurrencyHandler.Select)

		// Subscription routes
		subs := protected.Group("/subscriptions")
		{
			subs.GET("/plans", c.BillingHandler.ListPlans)
			subs.POST("/classify", c.BillingHandler.ClassifyChange)
			subs.GET("/current", c.BillingHandler.GetState)
			subs.POST("/refresh", c.BillingHandler.RefreshState)
			subs.POST("/cancel", c.BillingHandler.CancelSubscription)
			subs.POST("/reactivate", c.BillingHandler.ReactivateSubscription)
			subs.POST("/auto-renewal", c.BillingHandler.SetAutoRenewal)
			subs.POST("/schedule-downgrade", c.BillingHandler.ScheduleDowngrade)
		}

		// Payment routes with the stricter rate limit
		payments := protected.Group("/payments")
		payments.Use(paymentRateLimiter.RateLimitMiddleware())
		{
			payments.POST("/initiate", c.BillingHandler.InitiatePayment)
			payments.POST("/recover", c.BillingHandler.RecoverPending)
		}
	}

	// Start cron jobs
	if c.CronManager != nil {
		if err := c.CronManager.SetupJobs(cfg.PendingSweepCron); err != nil {
			log.Fatalf("❌ Failed to setup cron jobs: %v", err)
		}
		c.CronManager.Start()
		log.Printf("✅ Cron jobs started successfully")
	}

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 UNextDoor Billing API starting on %s", address)
	log.Printf("📝 Log level: %s, Log format: %s", cfg.LogLevel, cfg.LogFormat)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d), payments: %d req/min (burst: %d)",
		cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst,
		cfg.PaymentRateLimitPerMinute, cfg.PaymentRateLimitBurst)

	// Graceful shutdown
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
