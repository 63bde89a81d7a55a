// Package config loads server configuration from environment variables
// and optional YAML deployment profiles.
package config

import "os"

// Config holds server configuration.
type Config struct {
	Port        string
	LogLevel    string
	DBDriver    string // "sqlite" | "postgres" | "memory"
	DatabaseURL string // DSN for postgres, file path for sqlite
	RedisAddr   string // empty disables the Redis rate limiter
	JWTSecret   string
	Owner       string
	ProfilePath string
	OTLP        string // OTLP gRPC endpoint, empty disables telemetry
}

// Load loads configuration from environment variables.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" && driver == "sqlite" {
		dbURL = "greenledger.db"
	}

	owner := os.Getenv("LEDGER_OWNER")
	if owner == "" {
		owner = "owner"
	}

	return &Config{
		Port:        port,
		LogLevel:    logLevel,
		DBDriver:    driver,
		DatabaseURL: dbURL,
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Owner:       owner,
		ProfilePath: os.Getenv("PROFILE_PATH"),
		OTLP:        os.Getenv("OTLP_ENDPOINT"),
	}
}
