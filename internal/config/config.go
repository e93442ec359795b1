package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Data sources the API can load the trip dataset from
const (
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
	SourceFiles    = "files"
)

// Config holds all configuration for the traffic API
type Config struct {
	AppEnv   string
	LogLevel slog.Level
	Port     string

	// Dataset source
	DataSource   string
	SQLitePath   string
	DatabaseURL  string
	StationsPath string
	TripsPath    string
	Location     *time.Location
	LocationName string
	LoadTimeout  time.Duration

	// HTTP
	CORSOrigins       []string
	ResponseCacheSize int
	StaticDir         string
}

// LoadEnvFiles loads .env then .env.local (which overrides for local development).
// Missing files are fine; real environment variables still apply.
func LoadEnvFiles(dir string) {
	_ = godotenv.Load(dir + "/.env")
	_ = godotenv.Overload(dir + "/.env.local")
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "dev"),
		Port:   getEnv("PORT", "8081"),

		DataSource:   getEnv("DATA_SOURCE", SourceSQLite),
		SQLitePath:   getEnv("SQLITE_DATABASE", "../../data/bluebikes.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		StationsPath: getEnv("STATIONS_PATH", "assets/bluebike-stations.json"),
		TripsPath:    getEnv("TRIPS_PATH", "assets/bluebike-trips.csv"),
		LocationName: getEnv("TIMEZONE", "Local"),
		LoadTimeout:  time.Duration(getEnvInt("LOAD_TIMEOUT_SECONDS", 60)) * time.Second,

		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		ResponseCacheSize: getEnvInt("RESPONSE_CACHE_SIZE", 1441),
		StaticDir:         getEnv("STATIC_DIR", ""),
	}

	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	level, err := ParseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	switch cfg.DataSource {
	case SourceSQLite, SourceFiles:
	case SourcePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=%s", SourcePostgres)
		}
	default:
		return nil, fmt.Errorf("invalid DATA_SOURCE %q (allowed: sqlite, postgres, files)", cfg.DataSource)
	}

	loc, err := time.LoadLocation(cfg.LocationName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.LocationName, err)
	}
	cfg.Location = loc

	return cfg, nil
}

// ParseLogLevel maps a LOG_LEVEL value to a slog level
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
