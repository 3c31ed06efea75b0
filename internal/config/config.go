package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the API server.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Pricing  PricingConfig
	Payment  PaymentConfig
	Auth     AuthConfig
	Log      LogConfig
	Orders   OrdersConfig
}

type AppConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RabbitMQConfig configures event publishing. An empty URL disables it.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type PricingConfig struct {
	TaxRate decimal.Decimal
}

type PaymentConfig struct {
	// DeclineAmount is the amount the simulated gateway always rejects.
	DeclineAmount decimal.Decimal
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type OrdersConfig struct {
	LowStockThreshold  int
	TrackingCodePrefix string
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.App.Env, "development")
}

// Load reads the optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", time.Hour)
	v.SetDefault("RABBITMQ_EXCHANGE", "restaurant_events")
	v.SetDefault("TAX_RATE", "0.07")
	v.SetDefault("PAYMENT_DECLINE_AMOUNT", "31.55")
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOW_STOCK_THRESHOLD", 10)
	v.SetDefault("TRACKING_CODE_PREFIX", "ORD")
}

func fromViper(v *viper.Viper) (*Config, error) {
	taxRate, err := decimal.NewFromString(v.GetString("TAX_RATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TAX_RATE: %w", err)
	}
	if taxRate.IsNegative() || taxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("TAX_RATE must be in [0, 1), got %s", taxRate)
	}
	declineAmount, err := decimal.NewFromString(v.GetString("PAYMENT_DECLINE_AMOUNT"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYMENT_DECLINE_AMOUNT: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Port: v.GetString("APP_PORT"),
			Env:  v.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
		},
		Pricing: PricingConfig{TaxRate: taxRate},
		Payment: PaymentConfig{DeclineAmount: declineAmount},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			TokenTTL:  v.GetDuration("JWT_TTL"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Orders: OrdersConfig{
			LowStockThreshold:  v.GetInt("LOW_STOCK_THRESHOLD"),
			TrackingCodePrefix: strings.ToUpper(v.GetString("TRACKING_CODE_PREFIX")),
		},
	}

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET is required outside development")
		}
		cfg.Auth.JWTSecret = "development-secret"
	}
	return cfg, nil
}
