package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the service reads from the environment.
// Values are read once at startup and treated as read-only afterwards.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Datastore client budget, passed through to the store layer
	StoreRetries int
	StoreTimeout time.Duration

	// Currency allow-list for volume and amount records
	Currencies      []string
	DefaultCurrency string

	// UTC offset applied when stamping volume record dates
	UTCOffset time.Duration

	Port string
}

// Load reads configuration from the environment with sane defaults.
func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "deskdata"),
		DBPassword: getEnv("DB_PASSWORD", "deskdata123"),
		DBName:     getEnv("DB_NAME", "deskdata_db"),

		StoreRetries: getEnvInt("STORE_RETRIES", 3),
		StoreTimeout: time.Duration(getEnvInt("STORE_TIMEOUT_MS", 3000)) * time.Millisecond,

		Currencies:      getEnvList("CURRENCY_SYMBOLS", "PHP,USD,EUR,GBP,JPY,AUD"),
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "PHP"),

		UTCOffset: time.Duration(getEnvInt("UTC_OFFSET_HOURS", 8)) * time.Hour,

		Port: getEnv("PORT", "8080"),
	}
}

// Helper function to get environment variable with default
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}
