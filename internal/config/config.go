package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName         = "BillyMainService"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultSessionTTL      = 5 * time.Minute
	defaultBeneficiaryTTL  = 10 * time.Minute
	defaultBankCacheTTL    = 10 * time.Minute
	defaultProviderTimeout = 15 * time.Second
	defaultMinTransfer     = 100
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	DatabaseURL string
	RedisURL    string

	RubiesBaseURL string
	RubiesAPIKey  string

	ShutdownPeriod  time.Duration
	SessionTTL      time.Duration
	BeneficiaryTTL  time.Duration
	BankCacheTTL    time.Duration
	ProviderTimeout time.Duration

	// MinTransferAmount is the smallest transfer accepted, in whole naira.
	MinTransferAmount int64
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		AppEnv:            getEnv("APP_ENV", defaultAppEnv),
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		RubiesBaseURL:     os.Getenv("RUBIES_BASE_URL"),
		RubiesAPIKey:      os.Getenv("RUBIES_SECRET_KEY"),
		ShutdownPeriod:    defaultShutdownDelay,
		SessionTTL:        defaultSessionTTL,
		BeneficiaryTTL:    defaultBeneficiaryTTL,
		BankCacheTTL:      defaultBankCacheTTL,
		ProviderTimeout:   defaultProviderTimeout,
		MinTransferAmount: defaultMinTransfer,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", cfg.SessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.BeneficiaryTTL, err = durationEnv("BENEFICIARY_TTL", cfg.BeneficiaryTTL); err != nil {
		return Config{}, err
	}
	if cfg.BankCacheTTL, err = durationEnv("BANK_CACHE_TTL", cfg.BankCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.ProviderTimeout, err = durationEnv("PROVIDER_TIMEOUT", cfg.ProviderTimeout); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("MIN_TRANSFER_AMOUNT"); v != "" {
		amount, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MIN_TRANSFER_AMOUNT: %w", err)
		}
		cfg.MinTransferAmount = amount
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}

	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}

	if cfg.RubiesBaseURL == "" {
		return Config{}, fmt.Errorf("RUBIES_BASE_URL must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// durationEnv reads <key> as a Go duration or <key>_SECONDS as an integer,
// preferring the seconds form when both are present.
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", key, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}
