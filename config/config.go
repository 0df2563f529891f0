package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// API Configuration
	APIPort        string
	APIHost        string
	APIEnvironment string

	// Payments backend (external subscription/payment processor API)
	PaymentsAPIBaseURL      string
	PaymentsAPITimeout      time.Duration
	PaymentsAPIServiceToken string

	// Redis
	RedisURL string

	// JWT & Security
	JWTSecret          string
	JWTExpirationHours int

	// CORS
	CORSAllowedOrigins []string

	// Rate Limiting
	RateLimitRequestsPerMinute int
	RateLimitBurst             int
	PaymentRateLimitPerMinute  int
	PaymentRateLimitBurst      int

	// Payment orchestration
	PendingOrderTTL     time.Duration
	PaymentLockTTL      time.Duration
	PendingSweepEnabled bool
	PendingSweepCron    string

	// Sentry
	SentryDSN         string
	SentryEnvironment string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// API
		APIPort:        getEnv("API_PORT", "8080"),
		APIHost:        getEnv("API_HOST", "0.0.0.0"),
		APIEnvironment: getEnv("API_ENVIRONMENT", "development"),

		// Payments backend
		PaymentsAPIBaseURL:      getEnv("PAYMENTS_API_BASE_URL", "http://localhost:5001/api"),
		PaymentsAPITimeout:      getEnvAsDuration("PAYMENTS_API_TIMEOUT", 15*time.Second),
		PaymentsAPIServiceToken: getEnv("PAYMENTS_API_SERVICE_TOKEN", ""),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		// JWT
		JWTSecret:          getEnv("JWT_SECRET", "change-this-in-production"),
		JWTExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),

		// CORS
		CORSAllowedOrigins: []string{
			getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:19006"),
		},

		// Rate Limiting
		RateLimitRequestsPerMinute: getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 60),
		RateLimitBurst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		PaymentRateLimitPerMinute:  getEnvAsInt("PAYMENT_RATE_LIMIT_PER_MINUTE", 10),
		PaymentRateLimitBurst:      getEnvAsInt("PAYMENT_RATE_LIMIT_BURST", 3),

		// Payment orchestration
		PendingOrderTTL:     getEnvAsDuration("PENDING_ORDER_TTL", 24*time.Hour),
		PaymentLockTTL:      getEnvAsDuration("PAYMENT_LOCK_TTL", 30*time.Second),
		PendingSweepEnabled: getEnvAsBool("PENDING_SWEEP_ENABLED", true),
		PendingSweepCron:    getEnv("PENDING_SWEEP_CRON", "*/10 * * * *"),

		// Sentry
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "development"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
