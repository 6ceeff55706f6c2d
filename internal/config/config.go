package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIBaseURL       string        `yaml:"api_base_url"`
	StorageBackend   string        `yaml:"storage_backend"`
	StoragePath      string        `yaml:"storage_path"`
	RedisAddr        string        `yaml:"redis_addr"`
	HTTPPort         string        `yaml:"http_port"`
	JWTSecret        string        `yaml:"jwt_secret"`
	DatabaseURL      string        `yaml:"database_url"`
	FallbackMode     string        `yaml:"fallback_mode"`
	RetryAttempts    int           `yaml:"retry_attempts"`
	BreakerThreshold int           `yaml:"breaker_threshold"`
	BreakerTimeout   time.Duration `yaml:"breaker_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	DelayScale       float64       `yaml:"delay_scale"`
	BcryptCost       int           `yaml:"bcrypt_cost"`
}

func defaults() *Config {
	return &Config{
		APIBaseURL:       "http://localhost:5000/api",
		StorageBackend:   "file",
		StoragePath:      ".egadget/state.json",
		HTTPPort:         "5000",
		JWTSecret:        "egadget-dev-secret",
		FallbackMode:     "any",
		RetryAttempts:    1,
		BreakerThreshold: 3,
		BreakerTimeout:   10 * time.Second,
		RequestTimeout:   5 * time.Second,
		DelayScale:       1,
		BcryptCost:       10,
	}
}

// NewConfig builds the configuration from defaults, the optional YAML file
// named by STOREFRONT_CONFIG and the environment, in that order of precedence.
func NewConfig() (*Config, error) {
	loadDotEnv()

	cfg := defaults()
	if path := os.Getenv("STOREFRONT_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.APIBaseURL = getEnv("STOREFRONT_API_URL", cfg.APIBaseURL)
	cfg.StorageBackend = getEnv("STOREFRONT_STORAGE", cfg.StorageBackend)
	cfg.StoragePath = getEnv("STOREFRONT_STORAGE_PATH", cfg.StoragePath)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.FallbackMode = getEnv("STOREFRONT_FALLBACK", cfg.FallbackMode)

	var err error
	if cfg.RetryAttempts, err = getEnvInt("API_RETRY_ATTEMPTS", cfg.RetryAttempts); err != nil {
		return nil, err
	}
	if cfg.BreakerThreshold, err = getEnvInt("BREAKER_THRESHOLD", cfg.BreakerThreshold); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getEnvInt("BCRYPT_COST", cfg.BcryptCost); err != nil {
		return nil, err
	}
	if cfg.BreakerTimeout, err = getEnvDuration("BREAKER_TIMEOUT", cfg.BreakerTimeout); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getEnvDuration("API_TIMEOUT", cfg.RequestTimeout); err != nil {
		return nil, err
	}
	if cfg.DelayScale, err = getEnvFloat("STOREFRONT_DELAY_SCALE", cfg.DelayScale); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case "file", "memory", "redis":
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.StorageBackend == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("storage backend redis requires REDIS_ADDR")
	}
	switch c.FallbackMode {
	case "any", "unavailable":
	default:
		return fmt.Errorf("unknown fallback mode %q", c.FallbackMode)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got %d", c.RetryAttempts)
	}
	if c.DelayScale < 0 {
		return fmt.Errorf("delay scale must not be negative")
	}
	return nil
}

// loadDotEnv reads .env.local when APP_ENV is "local".
func loadDotEnv() {
	if os.Getenv("APP_ENV") != "local" {
		return
	}
	if err := godotenv.Load(".env.local"); err != nil {
		slog.Warn("No .env.local loaded, relying on process environment", "error", err)
		return
	}
	slog.Info("Loaded .env.local")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
