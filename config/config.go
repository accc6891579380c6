package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	ExportDir      string
	PageSize       int
	MaxPages       int
	DelaySeconds   float64
	RequestTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	BrowserWarmup bool
	ChromeBin     string

	LogLevel string
	LogFile  string

	HousekeepingConfig string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "leboncoin"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ExportDir:      getEnv("LBC_EXPORT_DIR", "data"),
		PageSize:       getEnvInt("LBC_PAGE_SIZE", 35),
		MaxPages:       getEnvInt("LBC_MAX_PAGES", 5),
		DelaySeconds:   getEnvFloat("LBC_DELAY", 3.0),
		RequestTimeout: getEnvDuration("LBC_TIMEOUT", 30*time.Second),
		MaxRetries:     getEnvInt("LBC_MAX_RETRIES", 3),
		RetryDelay:     getEnvDuration("LBC_RETRY_DELAY", 2*time.Second),

		BrowserWarmup: getEnvBool("LBC_BROWSER_WARMUP", false),
		ChromeBin:     getEnv("CHROME_BIN", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", "logs/scraper.log"),

		HousekeepingConfig: getEnv("HOUSEKEEPING_CONFIG", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
