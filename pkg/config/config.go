package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: empty URL disables persistence)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Price data sources
	Sources SourcesConfig

	// Analysis pipeline
	Analysis AnalysisConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// SourcesConfig holds history source configuration
type SourcesConfig struct {
	YahooBaseURL      string
	PolygonAPIKey     string
	PolygonRatePerMin int // free tier: 5 req/min
	ScraperBaseURL    string
	HTTPRatePerSec    int
	HTTPTimeout       time.Duration
}

// AnalysisConfig holds ranking pipeline configuration
type AnalysisConfig struct {
	HistoryPeriod   string
	HistoryInterval string
	HistoryCacheTTL time.Duration
	ResultCacheTTL  time.Duration

	Workers        int
	BatchSize      int
	MinProbability float64
	Limit          int

	TickerSuffix    string // BSE: ".BO"
	StrategyFile    string
	RefreshSchedule string // cron spec with seconds, empty = disabled
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Sources: SourcesConfig{
			YahooBaseURL:      getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			PolygonAPIKey:     getEnv("POLYGON_API_KEY", ""),
			PolygonRatePerMin: getEnvAsInt("POLYGON_RATE_PER_MIN", 5),
			ScraperBaseURL:    getEnv("SCRAPER_BASE_URL", "https://in.investing.com"),
			HTTPRatePerSec:    getEnvAsInt("HTTP_RATE_PER_SEC", 4),
			HTTPTimeout:       getEnvAsDuration("HTTP_TIMEOUT", "10s"),
		},

		Analysis: AnalysisConfig{
			HistoryPeriod:   getEnv("HISTORY_PERIOD", "3mo"),
			HistoryInterval: getEnv("HISTORY_INTERVAL", "1d"),
			HistoryCacheTTL: getEnvAsDuration("HISTORY_CACHE_TTL", "5m"),
			ResultCacheTTL:  getEnvAsDuration("RESULT_CACHE_TTL", "15m"),
			Workers:         getEnvAsInt("RANK_WORKERS", 5),
			BatchSize:       getEnvAsInt("RANK_BATCH_SIZE", 20),
			MinProbability:  getEnvAsFloat("RANK_MIN_PROBABILITY", 40),
			Limit:           getEnvAsInt("RANK_LIMIT", 10),
			TickerSuffix:    getEnv("TICKER_SUFFIX", ".BO"),
			StrategyFile:    getEnv("STRATEGY_FILE", ""),
			RefreshSchedule: getEnv("RANK_REFRESH_SCHEDULE", ""),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Analysis.Workers <= 0 {
		return fmt.Errorf("RANK_WORKERS must be > 0")
	}
	if c.Analysis.BatchSize <= 0 {
		return fmt.Errorf("RANK_BATCH_SIZE must be > 0")
	}
	if c.Analysis.Limit <= 0 {
		return fmt.Errorf("RANK_LIMIT must be > 0")
	}
	if c.Analysis.MinProbability < 0 || c.Analysis.MinProbability > 100 {
		return fmt.Errorf("RANK_MIN_PROBABILITY must be within [0, 100]")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
