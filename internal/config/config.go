package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is read once at startup and handed to constructors explicitly.
// JSON keys and environment variable names are the same.
type Config struct {
	DatabaseURL        string        `json:"DB_URL"`
	DBMaxConns         int32         `json:"DB_MAX_CONNS"`
	DBMinConns         int32         `json:"DB_MIN_CONNS"`
	Host               string        `json:"API_HOST"`
	Port               int           `json:"API_PORT"`
	TokenLifetimeHours int           `json:"API_TOKEN_HOURS_LIFETIME"`
	TokenBytes         int           `json:"API_TOKEN_BYTES"`
	BcryptCost         int           `json:"BCRYPT_COST"`
	RequestTimeoutRaw  string        `json:"REQUEST_TIMEOUT"`
	RequestTimeout     time.Duration `json:"-"`
	CORSOrigins        []string      `json:"CORS_ORIGINS"`
	RateLimitRPM       int           `json:"RATE_LIMIT_RPM"`
	AuthRateLimitRPM   int           `json:"AUTH_RATE_LIMIT_RPM"`
	RedisAddr          string        `json:"REDIS_ADDR"`
}

func defaults() *Config {
	return &Config{
		Host:               "0.0.0.0",
		Port:               8000,
		TokenLifetimeHours: 1,
		TokenBytes:         32,
		RequestTimeout:     30 * time.Second,
		CORSOrigins:        []string{"*"},
		RateLimitRPM:       100,
		AuthRateLimitRPM:   10,
	}
}

// Load reads the JSON file at path and then applies overrides from the
// environment (including a .env file, if present).
func Load(path string) (*Config, error) {
	cfg := defaults()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	cfg.applyEnv()

	if cfg.RequestTimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.RequestTimeoutRaw)
		if err != nil {
			return nil, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.DatabaseURL = getEnv("DB_URL", c.DatabaseURL)
	c.DBMaxConns = int32(getInt("DB_MAX_CONNS", int(c.DBMaxConns)))
	c.DBMinConns = int32(getInt("DB_MIN_CONNS", int(c.DBMinConns)))
	c.Host = getEnv("API_HOST", c.Host)
	c.Port = getInt("API_PORT", c.Port)
	c.TokenLifetimeHours = getInt("API_TOKEN_HOURS_LIFETIME", c.TokenLifetimeHours)
	c.TokenBytes = getInt("API_TOKEN_BYTES", c.TokenBytes)
	c.BcryptCost = getInt("BCRYPT_COST", c.BcryptCost)
	c.RequestTimeoutRaw = getEnv("REQUEST_TIMEOUT", c.RequestTimeoutRaw)
	if origins := splitCSV(os.Getenv("CORS_ORIGINS")); len(origins) > 0 {
		c.CORSOrigins = origins
	}
	c.RateLimitRPM = getInt("RATE_LIMIT_RPM", c.RateLimitRPM)
	c.AuthRateLimitRPM = getInt("AUTH_RATE_LIMIT_RPM", c.AuthRateLimitRPM)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DB_URL is required")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("API_PORT must be between 1 and 65535")
	}

	if c.TokenLifetimeHours <= 0 {
		return fmt.Errorf("API_TOKEN_HOURS_LIFETIME must be positive")
	}

	if c.TokenBytes <= 0 {
		return fmt.Errorf("API_TOKEN_BYTES must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	return nil
}

func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
