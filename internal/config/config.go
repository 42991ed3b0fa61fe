package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Gemini AI
	GeminiAPIKey      string
	GeminiModel       string
	GeminiUploadBase  string
	UploadPollEvery   time.Duration
	UploadPollRetries int

	// Download
	DownloadTimeout time.Duration
	MaxVideoBytes   int64

	// Import workers
	ImportWorkers int

	// Cache
	AnalysisCacheTTL time.Duration

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		GeminiAPIKey:      mustGetEnv("GEMINI_API_KEY"),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiUploadBase:  getEnvOrDefault("GEMINI_UPLOAD_BASE", "https://generativelanguage.googleapis.com"),
		UploadPollEvery:   time.Duration(getEnvAsIntOrDefault("UPLOAD_POLL_SECONDS", 3)) * time.Second,
		UploadPollRetries: getEnvAsIntOrDefault("UPLOAD_POLL_MAX_ATTEMPTS", 20),

		DownloadTimeout: time.Duration(getEnvAsIntOrDefault("DOWNLOAD_TIMEOUT_SECONDS", 60)) * time.Second,
		MaxVideoBytes:   int64(getEnvAsIntOrDefault("MAX_VIDEO_MB", 100)) * 1024 * 1024,

		ImportWorkers: getEnvAsIntOrDefault("IMPORT_WORKERS", 3),

		AnalysisCacheTTL: time.Duration(getEnvAsIntOrDefault("ANALYSIS_CACHE_HOURS", 24)) * time.Hour,

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
