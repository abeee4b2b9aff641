package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Unsubscribe UnsubscribeConfig
	Email       EmailConfig
	Billing     BillingConfig
	MinIO       MinIOConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	BaseURL     string // public URL, used to build links in outbound emails
	WebURL      string // reader-facing frontend (unsubscribe confirm/error pages)
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  int // minutes
	RefreshTokenExpiry int // hours
}

// UnsubscribeConfig cấu hình cho unsubscribe action tokens
type UnsubscribeConfig struct {
	Secret string
	TTL    int // hours
}

type EmailConfig struct {
	SMTPHost string
	SMTPPort string
	From     string
}

// BillingConfig - payment provider contract (Stripe-shaped)
type BillingConfig struct {
	Provider      string // stripe, mock
	APIKey        string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

type MinIOConfig struct {
	Endpoint  string // localhost:9000
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load đọc config từ environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Newsletter API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			BaseURL:     getEnv("APP_BASE_URL", "http://localhost:8080"),
			WebURL:      getEnv("APP_WEB_URL", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "newsletter"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenExpiry:  getEnvInt("JWT_ACCESS_EXPIRY", 15),  // 15 minutes
			RefreshTokenExpiry: getEnvInt("JWT_REFRESH_EXPIRY", 72), // 3 days
		},
		Unsubscribe: UnsubscribeConfig{
			// Separate secret from JWT sessions: rotating one must not
			// invalidate the other
			Secret: getEnv("UNSUBSCRIBE_SECRET", "your-unsubscribe-secret-change-in-production"),
			TTL:    getEnvInt("UNSUBSCRIBE_TTL_HOURS", 168), // 7 days, email links live long
		},
		Email: EmailConfig{
			SMTPHost: getEnv("SMTP_HOST", "localhost"),
			SMTPPort: getEnv("SMTP_PORT", "1025"),
			From:     getEnv("EMAIL_FROM", "noreply@newsletter.dev"),
		},
		Billing: BillingConfig{
			Provider:      getEnv("BILLING_PROVIDER", "mock"),
			APIKey:        getEnv("BILLING_API_KEY", ""),
			WebhookSecret: getEnv("BILLING_WEBHOOK_SECRET", ""),
			SuccessURL:    getEnv("BILLING_SUCCESS_URL", "http://localhost:3000/billing/success"),
			CancelURL:     getEnv("BILLING_CANCEL_URL", "http://localhost:3000/billing/cancel"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "newsletter"),
			UseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	// Production environment phải có secrets thật
	if c.App.Environment == "production" {
		if c.JWT.Secret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Unsubscribe.Secret == "your-unsubscribe-secret-change-in-production" {
			return fmt.Errorf("UNSUBSCRIBE_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
		if c.Billing.Provider != "mock" && c.Billing.APIKey == "" {
			fmt.Println("WARNING: billing API key not set - paid subscriptions will not work")
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
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
