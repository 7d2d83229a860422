package api

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/client"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port              string
	PostgresDSN       string
	TaxRate           decimal.Decimal
	PaymentLinkBase   string
	RedisAddr         string
	StatusChannel     string
	VendorJWTSecret   string
	RateLimitRPS      float64
	RateLimitBurst    int
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	IdempotencyTTL    time.Duration
	SeedCatalog       bool
}

// Memory reports whether the process runs on in-memory adapters.
func (c Config) Memory() bool {
	return c.PostgresDSN == ""
}

// LoadConfig reads an optional .env file and the environment, applies
// defaults, and validates the result.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		PaymentLinkBase:   envDefault("PAYMENT_LINK_BASE", "https://example.com/pay/"),
		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		StatusChannel:     envDefault("STATUS_CHANNEL", "foodcourt.order-status"),
		VendorJWTSecret:   strings.TrimSpace(os.Getenv("VENDOR_JWT_SECRET")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
	}

	rate, err := decimal.NewFromString(envDefault("TAX_RATE", "0.05"))
	if err != nil {
		return Config{}, fmt.Errorf("TAX_RATE must be a decimal: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Config{}, fmt.Errorf("TAX_RATE must be in [0, 1), got %s", rate)
	}
	cfg.TaxRate = rate

	if cfg.RateLimitRPS, err = strconv.ParseFloat(envDefault("RATE_LIMIT_RPS", "10"), 64); err != nil || cfg.RateLimitRPS <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_RPS must be a positive number")
	}
	if cfg.RateLimitBurst, err = positiveInt("RATE_LIMIT_BURST", 20); err != nil {
		return Config{}, err
	}
	hours, err := positiveInt("IDEMPOTENCY_TTL_HOURS", 24)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = time.Duration(hours) * time.Hour

	cfg.SeedCatalog = cfg.Memory()
	if raw := strings.TrimSpace(os.Getenv("SEED_CATALOG")); raw != "" {
		cfg.SeedCatalog = isTruthy(raw)
	}
	return cfg, nil
}

func positiveInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return value, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
