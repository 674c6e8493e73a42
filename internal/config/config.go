package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries all runtime settings resolved from the environment.
// The tax rate lives here and nowhere else.
type Config struct {
	Port        string
	DatabaseURL string
	TaxRate     float64
	DBTimeout   time.Duration
}

const (
	DefaultTaxRate   = 0.10
	DefaultDBTimeout = 5 * time.Second
)

// Load reads the environment, applying defaults for anything unset.
func Load() *Config {
	cfg := &Config{
		Port:        getenv("PORT", "3000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		TaxRate:     DefaultTaxRate,
		DBTimeout:   DefaultDBTimeout,
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Jakarta",
			os.Getenv("DB_HOST"),
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"),
			getenv("DB_PORT", "5432"),
		)
	}

	if v := os.Getenv("TAX_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil && rate >= 0 {
			cfg.TaxRate = rate
		}
	}

	if v := os.Getenv("DB_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.DBTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
