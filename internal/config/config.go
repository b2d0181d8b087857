// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL of the admin UI, allowed by CORS.
	BaseURL string

	// TrustedProxies are the CIDRs whose X-Forwarded-For headers are
	// believed when resolving the client IP.
	TrustedProxies []string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// MigrationsPath is the directory holding the SQL migration files.
	MigrationsPath string

	// Query bounds place listing page sizes.
	Query QueryConfig

	// Bulk limits the bulk mutation endpoint.
	Bulk BulkConfig

	// Tagging holds AI tag rules, stats caching and re-tag scheduling.
	Tagging TaggingConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so
// container orchestrators can manage each independently.
// If DATABASE_URL is set, it takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "placekit").
	User string

	// Password is the MariaDB password (default: "placekit").
	Password string

	// Name is the database name (default: "placekit").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	// UPDATEs report matched rows so a no-op write is not mistaken for a
	// missing row.
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows users to set DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// QueryConfig bounds the page size of place listings.
type QueryConfig struct {
	// DefaultLimit is the page size used when the request omits one.
	DefaultLimit int

	// MaxLimit is the largest page size a request may ask for.
	MaxLimit int
}

// BulkConfig limits the bulk mutation endpoint.
type BulkConfig struct {
	// MaxIDs caps the number of place IDs in one bulk request.
	MaxIDs int

	// RatePerSecond and Burst configure the per-IP token bucket in front of
	// the endpoint.
	RatePerSecond float64
	Burst         int
}

// TaggingConfig holds AI tagging settings.
type TaggingConfig struct {
	// RulesPath points at a JSON rules file that replaces the built-in rule
	// table. Empty uses the built-in table.
	RulesPath string

	// StatsCacheTTL is how long place statistics stay cached in Redis.
	StatsCacheTTL time.Duration

	// RetagEnabled turns on the scheduled re-tag job.
	RetagEnabled bool

	// RetagSchedule is a standard 5-field cron expression.
	RetagSchedule string

	// RetagBatchSize is the number of places enriched per run.
	RetagBatchSize int
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if a value is present but unusable.
func Load() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnvInt("PORT", 8080),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel:       getEnv("LOG_LEVEL", "debug"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES", defaultTrustedProxies),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "placekit"),
			Password:        getEnv("DB_PASSWORD", "placekit"),
			Name:            getEnv("DB_NAME", "placekit"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Query: QueryConfig{
			DefaultLimit: getEnvInt("QUERY_DEFAULT_LIMIT", 20),
			MaxLimit:     getEnvInt("QUERY_MAX_LIMIT", 100),
		},

		Bulk: BulkConfig{
			MaxIDs:        getEnvInt("BULK_MAX_IDS", 500),
			RatePerSecond: getEnvFloat("BULK_RATE_PER_SEC", 2),
			Burst:         getEnvInt("BULK_BURST", 5),
		},

		Tagging: TaggingConfig{
			RulesPath:      getEnv("TAG_RULES_PATH", ""),
			StatsCacheTTL:  getEnvDuration("STATS_CACHE_TTL", 5*time.Minute),
			RetagEnabled:   getEnvBool("RETAG_ENABLED", true),
			RetagSchedule:  getEnv("RETAG_SCHEDULE", "*/15 * * * *"),
			RetagBatchSize: getEnvInt("RETAG_BATCH_SIZE", 50),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultTrustedProxies covers loopback and the private ranges container
// networks use.
var defaultTrustedProxies = []string{ //nolint:gochecknoglobals // default value
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"fd00::/8",
}

// validate rejects settings that would break request handling at runtime.
func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.Query.DefaultLimit < 1 {
		return fmt.Errorf("QUERY_DEFAULT_LIMIT must be positive, got %d", c.Query.DefaultLimit)
	}
	if c.Query.MaxLimit < c.Query.DefaultLimit {
		return fmt.Errorf("QUERY_MAX_LIMIT (%d) must not be below QUERY_DEFAULT_LIMIT (%d)",
			c.Query.MaxLimit, c.Query.DefaultLimit)
	}
	if c.Bulk.MaxIDs < 1 {
		return fmt.Errorf("BULK_MAX_IDS must be positive, got %d", c.Bulk.MaxIDs)
	}
	if c.Bulk.RatePerSecond <= 0 || c.Bulk.Burst < 1 {
		return fmt.Errorf("BULK_RATE_PER_SEC and BULK_BURST must be positive")
	}
	if c.Tagging.RetagBatchSize < 1 {
		return fmt.Errorf("RETAG_BATCH_SIZE must be positive, got %d", c.Tagging.RetagBatchSize)
	}
	if c.Tagging.RetagEnabled {
		if _, err := cron.ParseStandard(c.Tagging.RetagSchedule); err != nil {
			return fmt.Errorf("RETAG_SCHEDULE %q is not a valid cron expression: %w", c.Tagging.RetagSchedule, err)
		}
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// SlogLevel maps LogLevel to a slog level. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvFloat reads a float env var or returns the default.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvBool reads a boolean env var ("true", "1", "false", ...) or returns
// the default.
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var or returns the default. Blank
// entries are dropped.
func getEnvList(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvDuration reads a duration env var (e.g., "720h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
