package common

import (
	"os"
	"strconv"
	"time"

	"docparse/constants"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Parsing ParsingConfig
	Learn   LearnConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// StoreConfig selects and configures the template store backend.
type StoreConfig struct {
	// Backend is one of "memory", "sqlite", "postgres".
	Backend string
	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string
	// DSN is the connection string for the postgres backend.
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ParsingConfig holds extraction thresholds.
type ParsingConfig struct {
	// MinMatchQuality is the lowest match-quality score accepted when tying
	// a confirmed value back to an OCR fragment.
	MinMatchQuality float64
	// OutlierDistance is the normalized center distance beyond which a new
	// observation is rejected instead of merged.
	OutlierDistance float64
	// BasePadding and PaddingScale control how far around a learned region
	// the positional search reaches; lower region confidence widens it.
	BasePadding  float64
	PaddingScale float64
	// DatePastYears / DateFutureDays bound plausible document dates.
	DatePastYears  int
	DateFutureDays int
	// OwnerRegistrationID / OwnerTaxID identify the document owner so the
	// recognizer never reports the owner as the counterparty.
	OwnerRegistrationID string
	OwnerTaxID          string
}

// LearnConfig holds the async learn queue configuration.
type LearnConfig struct {
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Backend:         getEnv("STORE_BACKEND", string(constants.BackendSQLite)),
			SQLitePath:      getEnv("SQLITE_PATH", "./templates.db"),
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Parsing: ParsingConfig{
			MinMatchQuality:     getEnvAsFloat64("MIN_MATCH_QUALITY", 0.5),
			OutlierDistance:     getEnvAsFloat64("OUTLIER_DISTANCE", 0.15),
			BasePadding:         getEnvAsFloat64("REGION_BASE_PADDING", 0.01),
			PaddingScale:        getEnvAsFloat64("REGION_PADDING_SCALE", 0.05),
			DatePastYears:       getEnvAsInt("DATE_PAST_YEARS", 10),
			DateFutureDays:      getEnvAsInt("DATE_FUTURE_DAYS", 62),
			OwnerRegistrationID: getEnv("OWNER_REGISTRATION_ID", ""),
			OwnerTaxID:          getEnv("OWNER_TAX_ID", ""),
		},
		Learn: LearnConfig{
			Workers:        getEnvAsInt("LEARN_WORKERS", 4),
			QueueSize:      getEnvAsInt("LEARN_QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("LEARN_TIMEOUT", 30*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch constants.StoreBackend(c.Store.Backend) {
	case constants.BackendMemory:
	case constants.BackendSQLite:
		if c.Store.SQLitePath == "" {
			return NewAppError("CONFIG_ERROR", "SQLITE_PATH is required for the sqlite backend", ErrInvalidInput)
		}
	case constants.BackendPostgres:
		if c.Store.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required for the postgres backend", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "STORE_BACKEND must be memory, sqlite or postgres", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Parsing.MinMatchQuality < 0 || c.Parsing.MinMatchQuality > 1 {
		return NewAppError("CONFIG_ERROR", "MIN_MATCH_QUALITY must be in [0,1]", ErrInvalidInput)
	}
	if c.Parsing.OutlierDistance <= 0 {
		return NewAppError("CONFIG_ERROR", "OUTLIER_DISTANCE must be positive", ErrInvalidInput)
	}
	return nil
}
