package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	DatabasePath       string
	LogLevel           string
	UserAgent          string
	RateLimitPerSecond float64
	MaxRetries         int
	HTTPTimeout        time.Duration
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	userAgent := getEnv("SEC_USER_AGENT", "")
	if userAgent == "" {
		// EDGAR rejects requests without a descriptive User-Agent, so there is
		// no sensible default to fall back to.
		log.Fatalf("FATAL: SEC_USER_AGENT is required for SEC EDGAR requests (e.g. \"Sample Company admin@example.com\"), but it's not set in environment or .env file.")
	}

	rateLimit := getEnvAsFloat("SEC_RATE_LIMIT_PER_SECOND", 5.0)
	if rateLimit <= 0 {
		log.Printf("WARNING: Invalid SEC_RATE_LIMIT_PER_SECOND %.2f. Using default 5.0.", rateLimit)
		rateLimit = 5.0
	}

	maxRetries := getEnvAsInt("SEC_MAX_RETRIES", 3)
	if maxRetries < 1 {
		log.Printf("WARNING: Invalid SEC_MAX_RETRIES %d. Using default 3.", maxRetries)
		maxRetries = 3
	}

	Cfg = &AppConfig{
		DatabasePath:       getEnv("DATABASE_PATH", "./secinsider.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		UserAgent:          userAgent,
		RateLimitPerSecond: rateLimit,
		MaxRetries:         maxRetries,
		HTTPTimeout:        getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
	}

	log.Printf("Configuration loaded: LogLevel=%s, DBPath=%s, RateLimit=%.2f/s, MaxRetries=%d",
		Cfg.LogLevel, Cfg.DatabasePath, Cfg.RateLimitPerSecond, Cfg.MaxRetries)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %.2f", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
