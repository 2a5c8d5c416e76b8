package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the incident dashboard service
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port string

	// Auth
	AuthServiceURL     string
	InternalAdminToken string

	// Reporter API keys and ingest limits
	ReporterKeyEnv             string
	ReporterRegisterMaxPerHour int
	SubmitMaxBatchItems        int
	SubmitMaxBodyBytes         int64

	// Counties covered by the dashboard
	Counties []string

	// Dashboard read defaults
	SnapshotLimit   int
	TrendWindowDays int

	// Broadcast configuration
	BroadcastInterval time.Duration

	// RabbitMQ event publishing (disabled when the URL is empty)
	RabbitMQURL      string
	RabbitMQExchange string

	// Logging
	LogLevel string
}

// defaultCounties is the North Rift coverage area. Override with the
// COUNTIES env var (comma-separated) to widen or narrow it.
const defaultCounties = "Turkana,West Pokot,Baringo,Samburu,Elgeyo Marakwet,Laikipia,Isiolo,Marsabit"

// Load creates a new Config from environment variables
func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "incident_dashboard"),
		DBPassword: getEnv("DB_PASSWORD", "secret_dashboard"),
		DBName:     getEnv("DB_NAME", "incidents"),

		Port: getEnv("PORT", "8080"),

		AuthServiceURL:     getEnv("AUTH_SERVICE_URL", "http://auth-service:8080"),
		InternalAdminToken: getEnv("INTERNAL_ADMIN_TOKEN", ""),

		ReporterKeyEnv:             getEnv("REPORTER_KEY_ENV", "test"),
		ReporterRegisterMaxPerHour: getIntEnv("REPORTER_REGISTER_MAX_PER_HOUR", 5),
		SubmitMaxBatchItems:        getIntEnv("SUBMIT_MAX_BATCH_ITEMS", 100),
		SubmitMaxBodyBytes:         getInt64Env("SUBMIT_MAX_BODY_BYTES", 2<<20),

		Counties: splitList(getEnv("COUNTIES", defaultCounties)),

		SnapshotLimit:   getIntEnv("SNAPSHOT_LIMIT", 500),
		TrendWindowDays: getIntEnv("TREND_WINDOW_DAYS", 7),

		BroadcastInterval: getDurationEnv("BROADCAST_INTERVAL", time.Second),

		RabbitMQURL:      getEnv("AMQP_URL", ""),
		RabbitMQExchange: getEnv("AMQP_EXCHANGE", "incident-events"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an environment variable as integer with a fallback default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64Env gets an environment variable as int64 with a fallback default value
func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv gets an environment variable as duration with a fallback default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// splitList parses a comma-separated list, dropping empty entries
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
