package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/orderkaro/orderkaro-backend/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// Config holds application configuration values
type Config struct {
	Environment   string // "development" or "production"
	ServerPort    string
	JWTSecret     string
	JWTExpiration time.Duration

	StoreDbDir  string
	StoreDbFile string

	// Optional Redis-backed query cache. Empty means in-memory.
	RedisAddr string
	CacheTTL  time.Duration

	// Connection monitor tuning. Shorter ping interval in development so
	// problems surface quickly while iterating; longer in production to keep
	// the noise down.
	PingInterval              time.Duration
	ErrorNotificationInterval time.Duration
}

// LoadConfig loads configuration from environment variables.
// It uses a .env file for local development if present (ignores it for production).
func LoadConfig() (*Config, error) {
	customLog.Println("Loading configuration from environment variables...")

	// Attempt to load .env file if in development environment (skip in production)
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			customLog.Warnf("Warning: Error loading .env file: %v", err)
		}
	}

	env := getEnv("APP_ENV", "development")
	port := getEnv("SERVER_PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "") // No sensible default for secret!
	jwtExpHoursStr := getEnv("JWT_EXPIRATION_HOURS", "24")
	dbDir := getEnv("DATABASE_DIRECTORY", "data")
	dbFile := getEnv("DATABASE_DIRECTORY_FILE", "orderkaro.db")
	redisAddr := os.Getenv("REDIS_ADDR")
	cacheTTLStr := getEnv("CACHE_TTL_SECONDS", "60")

	// Critical: Ensure JWT Secret is set
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable must be set")
	}
	if jwtSecret == "!!replace_this_with_a_real_secret_key!!" {
		customLog.Warnln("WARNING: JWT_SECRET is set to the default placeholder!")
	}

	// Parse JWT Expiration (hours)
	jwtExpHours, err := strconv.Atoi(jwtExpHoursStr)
	if err != nil || jwtExpHours <= 0 {
		customLog.Warnf("Invalid JWT_EXPIRATION_HOURS '%s'. Using default 24h. Error: %v", jwtExpHoursStr, err)
		jwtExpHours = 24
	}

	cacheTTLSecs, err := strconv.Atoi(cacheTTLStr)
	if err != nil || cacheTTLSecs <= 0 {
		customLog.Warnf("Invalid CACHE_TTL_SECONDS '%s'. Using default 60s. Error: %v", cacheTTLStr, err)
		cacheTTLSecs = 60
	}

	pingInterval := 30 * time.Second
	if env == "production" {
		pingInterval = 2 * time.Minute
	}

	cfg := &Config{
		Environment:               env,
		ServerPort:                port,
		JWTSecret:                 jwtSecret,
		JWTExpiration:             time.Hour * time.Duration(jwtExpHours),
		StoreDbDir:                dbDir,
		StoreDbFile:               dbFile,
		RedisAddr:                 redisAddr,
		CacheTTL:                  time.Duration(cacheTTLSecs) * time.Second,
		PingInterval:              pingInterval,
		ErrorNotificationInterval: 5 * time.Minute,
	}

	customLog.Printf("Configuration loaded successfully. Env: %s, Port: %s, JWT Exp: %v", cfg.Environment, cfg.ServerPort, cfg.JWTExpiration)
	return cfg, nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
