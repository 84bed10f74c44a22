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

const (
	defaultAppName       = "Cuentas Service"
	defaultAppEnv        = "development"
	defaultPort          = "8002"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second

	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	Debug          bool
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration

	// Operation limits.
	MaxDepositAmount     decimal.Decimal
	MinBalance           decimal.Decimal
	DailyDepositLimit    decimal.Decimal
	DailyWithdrawalLimit decimal.Decimal
	MovementsLimit       int
	MovementsMaxLimit    int
}

// Load reads configuration values from the environment (and an optional
// .env file) and populates a Config instance.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		Debug:          getEnv("DEBUG", "false") == "true",
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,

		MaxDepositAmount:     decimal.NewFromInt(1_000_000),
		MinBalance:           decimal.Zero,
		DailyDepositLimit:    decimal.NewFromInt(50_000),
		DailyWithdrawalLimit: decimal.NewFromInt(20_000),
		MovementsLimit:       50,
		MovementsMaxLimit:    200,
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	var err error
	if cfg.MaxDepositAmount, err = decimalEnv("MAX_DEPOSIT_AMOUNT", cfg.MaxDepositAmount); err != nil {
		return Config{}, err
	}
	if cfg.MinBalance, err = decimalEnv("MIN_BALANCE", cfg.MinBalance); err != nil {
		return Config{}, err
	}
	if cfg.DailyDepositLimit, err = decimalEnv("DAILY_DEPOSIT_LIMIT", cfg.DailyDepositLimit); err != nil {
		return Config{}, err
	}
	if cfg.DailyWithdrawalLimit, err = decimalEnv("DAILY_WITHDRAWAL_LIMIT", cfg.DailyWithdrawalLimit); err != nil {
		return Config{}, err
	}
	if cfg.MovementsLimit, err = intEnv("MOVEMENTS_DEFAULT_LIMIT", cfg.MovementsLimit); err != nil {
		return Config{}, err
	}
	if cfg.MovementsMaxLimit, err = intEnv("MOVEMENTS_MAX_LIMIT", cfg.MovementsMaxLimit); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" && !cfg.IsDev() {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
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

// IsDev reports whether the service runs in a development environment,
// where Postgres and Redis may be absent and in-memory fallbacks apply.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func decimalEnv(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
