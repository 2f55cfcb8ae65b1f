package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Config holds the process-wide configuration, sourced from the environment.
type Config struct {
	Port     string `validate:"required"`
	Timezone string

	DBType string `validate:"required,oneof=sqlite postgres postgresql mysql"`
	DBHost string
	DBPort string
	DBName string `validate:"required"`
	DBUser string
	DBPass string

	LogLevel string `validate:"oneof=debug info warn error"`
	LokiURL  string

	// DemoMode clamps every monitor interval to at least 20 seconds.
	DemoMode bool

	// MinIntervalSeconds / MaxIntervalSeconds bound accepted monitor intervals.
	MinIntervalSeconds int `validate:"gte=1"`
	MaxIntervalSeconds int `validate:"gtfield=MinIntervalSeconds"`
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getenv("PORT", "8034"),
		Timezone:           getenv("TZ", "UTC"),
		DBType:             getenv("DB_TYPE", "sqlite"),
		DBHost:             getenv("DB_HOST", ""),
		DBPort:             getenv("DB_PORT", ""),
		DBName:             getenv("DB_NAME", "vigilo.db"),
		DBUser:             getenv("DB_USER", ""),
		DBPass:             getenv("DB_PASS", ""),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		LokiURL:            getenv("LOKI_URL", ""),
		DemoMode:           getenvBool("DEMO_MODE"),
		MinIntervalSeconds: getenvInt("MIN_INTERVAL_SECONDS", 20),
		MaxIntervalSeconds: getenvInt("MAX_INTERVAL_SECONDS", 86400),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
