// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported values for FEED_STORE_DRIVER.
const (
	StoreDriverFirebase = "firebase"
	StoreDriverGORM     = "gorm"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Family access gate
	FamilyCode string `mapstructure:"FAMILY_CODE"`

	// Feed Configuration
	FeedStoreDriver       string        `mapstructure:"FEED_STORE_DRIVER"`
	FeedRecordLimit       int           `mapstructure:"FEED_RECORD_LIMIT"`
	FeedPollInterval      time.Duration `mapstructure:"FEED_POLL_INTERVAL_SECONDS"`
	FeedRetentionSchedule string        `mapstructure:"FEED_RETENTION_JOB_SCHEDULE"`
	FeedRetentionKeep     int           `mapstructure:"FEED_RETENTION_KEEP"`

	// Firebase Configuration (FEED_STORE_DRIVER=firebase)
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseDatabaseURL           string `mapstructure:"FIREBASE_DATABASE_URL"`

	// Database Configuration (FEED_STORE_DRIVER=gorm)
	DBDriver          string        `mapstructure:"DB_DRIVER"` // "postgres" or "sqlite"
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBSQLitePath      string        `mapstructure:"DB_SQLITE_PATH"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	// Set default values
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("FAMILY_CODE", "")

	v.SetDefault("FEED_STORE_DRIVER", StoreDriverFirebase)
	v.SetDefault("FEED_RECORD_LIMIT", 50)
	v.SetDefault("FEED_POLL_INTERVAL_SECONDS", 2)
	v.SetDefault("FEED_RETENTION_JOB_SCHEDULE", "@hourly")
	v.SetDefault("FEED_RETENTION_KEEP", 50)

	// Firebase
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_DATABASE_URL", "")

	// Database (only consulted when FEED_STORE_DRIVER=gorm)
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "famnotify_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_SQLITE_PATH", "famnotify.db")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.FeedPollInterval = time.Duration(v.GetInt("FEED_POLL_INTERVAL_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute

	// Basic validation for critical configs
	if strings.TrimSpace(cfg.FamilyCode) == "" {
		return nil, fmt.Errorf("FATAL: FAMILY_CODE is not set. The family dashboard routes cannot be gated without it")
	}
	if cfg.FeedRecordLimit <= 0 {
		return nil, fmt.Errorf("FATAL: FEED_RECORD_LIMIT must be positive, got %d", cfg.FeedRecordLimit)
	}
	if cfg.FeedPollInterval <= 0 {
		return nil, fmt.Errorf("FATAL: FEED_POLL_INTERVAL_SECONDS must be positive")
	}

	switch cfg.FeedStoreDriver {
	case StoreDriverFirebase:
		if strings.TrimSpace(cfg.FirebaseServiceAccountKeyPath) == "" {
			return nil, fmt.Errorf("FATAL: FIREBASE_SERVICE_ACCOUNT_KEY_PATH is not set. This is required for Firebase Admin SDK initialization")
		}
		if _, err := os.Stat(cfg.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("FATAL: Firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", cfg.FirebaseServiceAccountKeyPath)
		}
		if strings.TrimSpace(cfg.FirebaseDatabaseURL) == "" {
			return nil, fmt.Errorf("FATAL: FIREBASE_DATABASE_URL is not set. The Realtime Database URL is required for the firebase feed store")
		}
	case StoreDriverGORM:
		if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
			return nil, fmt.Errorf("FATAL: unsupported DB_DRIVER %q (expected postgres or sqlite)", cfg.DBDriver)
		}
	default:
		return nil, fmt.Errorf("FATAL: unsupported FEED_STORE_DRIVER %q (expected %s or %s)", cfg.FeedStoreDriver, StoreDriverFirebase, StoreDriverGORM)
	}

	return &cfg, nil
}
