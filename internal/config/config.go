package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/rodrigolyusei/mynextflight/internal/pkg/validate"
)

const dotEnvFile = ".env"

// Config holds runtime configuration for both Lambdas. Secrets are not part
// of it; they are read from SSM under ParamPrefix.
type Config struct {
	TableName      string `validate:"required"`
	ParamPrefix    string `validate:"required"`
	AWSEndpointURL string `validate:"omitempty,url"` // empty in prod, LocalStack URL in dev

	Currency string `validate:"required"`
	Language string `validate:"required"`

	ScanConcurrency     int           `validate:"min=1,max=16"`
	OracleRatePerSecond float64       `validate:"gte=0"`
	HTTPTimeout         time.Duration `validate:"gt=0"`

	TelegramWebhookSecret string
	LogLevel              slog.Level
}

// Load reads .env when present, then the process environment. Variables
// already set in the environment win over .env.
func Load() (*Config, error) {
	return load(dotEnvFile)
}

func load(envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load %s: %w", envFile, err)
	}

	var errs []error
	cfg := &Config{
		TableName:             getEnv("TABLE_NAME", ""),
		ParamPrefix:           strings.TrimRight(getEnv("PARAM_PREFIX", ""), "/"),
		AWSEndpointURL:        getEnv("AWS_ENDPOINT_URL", ""),
		Currency:              strings.ToUpper(getEnv("CURRENCY", "BRL")),
		Language:              getEnv("LANGUAGE", "pt"),
		ScanConcurrency:       getEnvInt("SCAN_CONCURRENCY", 1, &errs),
		OracleRatePerSecond:   getEnvFloat("ORACLE_RATE_PER_SECOND", 0, &errs),
		HTTPTimeout:           time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 10, &errs)) * time.Second,
		TelegramWebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// TelegramTokenParam is the SSM parameter holding {"token": "<bot token>"}.
func (c *Config) TelegramTokenParam() string {
	return c.ParamPrefix + "/telegram-token"
}

// SerpAPIKeyParam is the SSM parameter holding {"token": "<api key>"}.
func (c *Config) SerpAPIKeyParam() string {
	return c.ParamPrefix + "/serpapi-key"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64, errs *[]error) float64 {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a number", key, v))
		return fallback
	}
	return f
}
