package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port               string
	CORSAllowedOrigins []string
	RateLimitRPM       int
	ShutdownTimeout    time.Duration

	// gRPC health endpoint; empty disables it
	GRPCAddr string

	// Backend selection: memory, sqlite, postgres or sheets
	DataBackend  string
	SQLiteDBPath string
	DatabaseURL  string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	GoogleSheetsRefresh      time.Duration

	// Query engine
	StoreTimeout time.Duration
	CacheTTL     time.Duration
	CacheSize    int

	// AMQP import bus; empty URL means imports write directly
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Import sources
	SeedURL         string
	SeedFile        string
	ImportBatchSize int

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "3000"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPM:       getEnvInt("RATE_LIMIT_RPM", 120),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		GRPCAddr: getEnv("GRPC_ADDR", ""),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/sales.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleSheetsRefresh:      getEnvDuration("GOOGLE_SHEETS_REFRESH", 5*time.Minute),

		StoreTimeout: getEnvDuration("STORE_TIMEOUT", 7*time.Second),
		CacheTTL:     getEnvDuration("CACHE_TTL", 30*time.Second),
		CacheSize:    getEnvInt("CACHE_SIZE", 64),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "salesdash"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "import_transactions"),

		SeedURL:         getEnv("SEED_URL", ""),
		SeedFile:        getEnv("SEED_FILE", ""),
		ImportBatchSize: getEnvInt("IMPORT_BATCH_SIZE", 100),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite", "postgres", "sheets"}
	isValidBackend := false
	for _, b := range validBackends {
		if c.DataBackend == b {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid DATABASE_URL: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid DATABASE_URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SeedURL != "" {
		if u, err := url.Parse(c.SeedURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid SEED_URL '%s': must be an http(s) URL", c.SeedURL))
		}
	}

	if c.StoreTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid store timeout %v: must be at least 100ms", c.StoreTimeout))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.RateLimitRPM < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}
	if c.ImportBatchSize < 1 || c.ImportBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid import batch size %d: must be between 1 and 1000", c.ImportBatchSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// SQLBackend reports whether the backend accepts imports.
func (c *Config) SQLBackend() bool {
	return c.DataBackend == "sqlite" || c.DataBackend == "postgres"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
