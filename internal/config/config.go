package config

import (
	"os"
	"strconv"
	"time"

	"auction-engine/utils"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config holds the process settings read from the environment
type Config struct {
	Port            string
	StoreDriver     string
	DBDSN           string
	SweepInterval   time.Duration
	SweepLeaseTTL   time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RabbitMQURL     string
	JWTSecret       string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// Load reads an optional .env file and then the environment
func Load() Config {
	if err := godotenv.Load(); err != nil {
		utils.Debug("No .env file loaded", map[string]any{"error": err.Error()})
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only
func FromEnv() Config {
	cfg := Config{
		Port:            GetEnv("PORT", "8080"),
		StoreDriver:     GetEnv("STORE_DRIVER", DriverMemory),
		DBDSN:           GetEnv("DB_DSN", "file:auction.db"),
		SweepInterval:   GetDurationEnv("SWEEP_INTERVAL", 60*time.Second),
		SweepLeaseTTL:   GetDurationEnv("SWEEP_LEASE_TTL", 55*time.Second),
		RedisAddr:       GetEnv("REDIS_ADDR", ""),
		RedisPassword:   GetEnv("REDIS_PASSWORD", ""),
		RedisDB:         GetIntEnv("REDIS_DB", 0),
		RabbitMQURL:     GetEnv("RABBITMQ_URL", ""),
		JWTSecret:       GetEnv("JWT_SECRET", ""),
		LogLevel:        GetEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: GetDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
	if cfg.StoreDriver != DriverMemory && cfg.StoreDriver != DriverSQLite {
		utils.Warn("Unknown STORE_DRIVER, using memory", map[string]any{"store_driver": cfg.StoreDriver})
		cfg.StoreDriver = DriverMemory
	}
	return cfg
}

// GetEnv retrieves an environment variable;
// return default variable when missing.
func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetIntEnv parses an integer variable, falling back to def
func GetIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
		utils.Warn("Invalid integer in environment, using default", map[string]any{"key": key, "value": v})
	}
	return def
}

// GetDurationEnv parses a positive duration such as "60s", falling back to def
func GetDurationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
		utils.Warn("Invalid duration in environment, using default", map[string]any{"key": key, "value": v})
	}
	return def
}
