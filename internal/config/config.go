// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the storefront backend and CLI
type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Security   SecurityConfig
	External   ExternalConfig
	Checkout   CheckoutConfig
	Company    CompanyConfig
	Logging    LoggingConfig
	Storefront StorefrontConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	CartTTL      time.Duration
	OrderLockTTL time.Duration
}

// JWTConfig contains JWT token configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	BcryptCost         int
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	TrustedProxies     []string
}

// ExternalConfig contains external service configurations
type ExternalConfig struct {
	Email   EmailConfig
	Kafka   KafkaConfig
	Storage StorageConfig
}

// EmailConfig contains SMTP settings for order confirmations
type EmailConfig struct {
	FromEmail string
	FromName  string
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
}

// KafkaConfig contains the order event stream settings
type KafkaConfig struct {
	Brokers    []string
	OrderTopic string
}

// StorageConfig describes where product images are served from
type StorageConfig struct {
	CDNBaseURL string
}

// CheckoutConfig contains pricing rules applied to every order
type CheckoutConfig struct {
	BaseCurrency string
	TaxRate      decimal.Decimal
	ShippingFlat decimal.Decimal
}

// CompanyConfig is printed on invoices and confirmation emails
type CompanyConfig struct {
	Name    string
	Address string
	Phone   string
	Email   string
	Website string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// StorefrontConfig configures the storefront client
type StorefrontConfig struct {
	APIBaseURL      string
	DisplayCurrency string
	ExchangeRate    decimal.Decimal
	RatesURL        string
	RatesTTL        time.Duration
	RequestTimeout  time.Duration
	NotificationTTL time.Duration
	RedirectDelay   time.Duration
	SessionFile     string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Agroreach Storefront"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
		},
		Server: ServerConfig{
			Port:           getEnv("APP_PORT", "8080"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "agroreach"),
			User:         getEnv("DB_USER", "agroreach"),
			Password:     getEnv("DB_PASSWORD", "agroreach"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			CartTTL:      getEnvAsDuration("REDIS_CART_TTL", 15*time.Minute),
			OrderLockTTL: getEnvAsDuration("REDIS_ORDER_LOCK_TTL", 30*time.Second),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "agroreach-development-secret-change-me-now"),
			AccessTokenExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRE", 24*time.Hour),
		},
		Security: SecurityConfig{
			BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "Idempotency-Key"}),
			TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
		},
		External: ExternalConfig{
			Email: EmailConfig{
				FromEmail: getEnv("FROM_EMAIL", "orders@agroreach.example"),
				FromName:  getEnv("FROM_NAME", "Agroreach"),
				SMTPHost:  getEnv("SMTP_HOST", ""),
				SMTPPort:  getEnvAsInt("SMTP_PORT", 587),
				SMTPUser:  getEnv("SMTP_USER", ""),
				SMTPPass:  getEnv("SMTP_PASS", ""),
			},
			Kafka: KafkaConfig{
				Brokers:    getEnvAsSlice("KAFKA_BROKERS", []string{}),
				OrderTopic: getEnv("KAFKA_ORDER_TOPIC", "orders.placed"),
			},
			Storage: StorageConfig{
				CDNBaseURL: getEnv("CDN_BASE_URL", "http://localhost:8080/uploads"),
			},
		},
		Checkout: CheckoutConfig{
			BaseCurrency: getEnv("CHECKOUT_BASE_CURRENCY", "USD"),
			TaxRate:      getEnvAsDecimal("CHECKOUT_TAX_RATE", decimal.RequireFromString("0.18")),
			ShippingFlat: getEnvAsDecimal("CHECKOUT_SHIPPING_FLAT", decimal.Zero),
		},
		Company: CompanyConfig{
			Name:    getEnv("COMPANY_NAME", "Agroreach"),
			Address: getEnv("COMPANY_ADDRESS", ""),
			Phone:   getEnv("COMPANY_PHONE", ""),
			Email:   getEnv("COMPANY_EMAIL", "support@agroreach.example"),
			Website: getEnv("COMPANY_WEBSITE", "https://agroreach.example"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "debug"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Storefront: StorefrontConfig{
			APIBaseURL:      getEnv("STOREFRONT_API_URL", "http://localhost:8080/api/v1"),
			DisplayCurrency: getEnv("STOREFRONT_CURRENCY", "USD"),
			ExchangeRate:    getEnvAsDecimal("STOREFRONT_EXCHANGE_RATE", decimal.Zero),
			RatesURL:        getEnv("STOREFRONT_RATES_URL", ""),
			RatesTTL:        getEnvAsDuration("STOREFRONT_RATES_TTL", time.Hour),
			RequestTimeout:  getEnvAsDuration("STOREFRONT_REQUEST_TIMEOUT", 10*time.Second),
			NotificationTTL: getEnvAsDuration("STOREFRONT_NOTIFICATION_TTL", 3*time.Second),
			RedirectDelay:   getEnvAsDuration("STOREFRONT_REDIRECT_DELAY", 1500*time.Millisecond),
			SessionFile:     getEnv("STOREFRONT_SESSION_FILE", ".agroreach-session"),
		},
	}

	return config, nil
}

// Validate validates the configuration needed by the API server
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}

	if c.Checkout.TaxRate.IsNegative() {
		return fmt.Errorf("CHECKOUT_TAX_RATE must not be negative")
	}

	return nil
}

// ValidateStorefront validates the configuration needed by the storefront client
func (c *Config) ValidateStorefront() error {
	if c.Storefront.APIBaseURL == "" {
		return fmt.Errorf("STOREFRONT_API_URL is required")
	}
	switch strings.ToUpper(c.Storefront.DisplayCurrency) {
	case "USD", "INR":
	default:
		return fmt.Errorf("STOREFRONT_CURRENCY must be USD or INR, got %q", c.Storefront.DisplayCurrency)
	}
	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
