// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir          string // Base directory for the runs database (always absolute)
	Port             int
	LogLevel         string
	DevMode          bool
	SimWorkers       int // Worker goroutines per simulation request (0 = NumCPU)
	MaxPathCount     int // Hard cap on paths per request
	MaxSteps         int // Hard cap on steps per grid
	RunRetentionDays int // Stored runs older than this are purged by the cleanup job
	Backup           *BackupConfig
}

// BackupConfig holds settings for off-site backups of the runs database.
// Backups are only enabled when an endpoint and credentials are configured.
type BackupConfig struct {
	Enabled         bool
	Endpoint        string // S3-compatible endpoint URL
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Keep            int // Number of archives to retain remotely
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("PATHSIM_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		Port:             getEnvAsInt("PATHSIM_PORT", 8010),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		SimWorkers:       getEnvAsInt("PATHSIM_WORKERS", 0),
		MaxPathCount:     getEnvAsInt("PATHSIM_MAX_PATHS", 10000),
		MaxSteps:         getEnvAsInt("PATHSIM_MAX_STEPS", 100000),
		RunRetentionDays: getEnvAsInt("PATHSIM_RUN_RETENTION_DAYS", 30),
		Backup:           loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.MaxPathCount < 1 {
		return fmt.Errorf("PATHSIM_MAX_PATHS must be >= 1, got %d", c.MaxPathCount)
	}
	if c.MaxSteps < 1 {
		return fmt.Errorf("PATHSIM_MAX_STEPS must be >= 1, got %d", c.MaxSteps)
	}
	// 0 disables the retention job entirely.
	if c.RunRetentionDays < 0 {
		return fmt.Errorf("PATHSIM_RUN_RETENTION_DAYS must be >= 0, got %d", c.RunRetentionDays)
	}
	return nil
}

// loadBackupConfig loads backup settings; backups stay disabled unless the
// endpoint, credentials and bucket are all present.
func loadBackupConfig() *BackupConfig {
	cfg := &BackupConfig{
		Endpoint:        getEnv("PATHSIM_BACKUP_ENDPOINT", ""),
		AccessKeyID:     getEnv("PATHSIM_BACKUP_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("PATHSIM_BACKUP_SECRET_ACCESS_KEY", ""),
		Bucket:          getEnv("PATHSIM_BACKUP_BUCKET", ""),
		Keep:            getEnvAsInt("PATHSIM_BACKUP_KEEP", 14),
	}
	cfg.Enabled = cfg.Endpoint != "" &&
		cfg.AccessKeyID != "" &&
		cfg.SecretAccessKey != "" &&
		cfg.Bucket != ""
	return cfg
}

// Helper functions
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
