package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"molintel/domain/compound"
	"molintel/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Data      DataConfig
	Dashboard DashboardConfig
	Server    ServerConfig
	Profiling ProfilingConfig
	LogLevel  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string // postgres | sqlite3
	URL    string
	Table  string
}

// DataConfig selects a spreadsheet/CSV file as the compound source instead
// of the database
type DataConfig struct {
	File  string
	Sheet string
	// Watch invalidates the cache when the file changes
	Watch bool
}

// DashboardConfig holds load/refresh behaviour
type DashboardConfig struct {
	SortByMW        bool
	CacheTTL        time.Duration
	RefreshInterval time.Duration
	Caption         string // markdown
	Title           string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// ProfilingConfig holds the admin/pprof listener settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// UsesFile reports whether compounds come from DATA_FILE
func (c *Config) UsesFile() bool {
	return c.Data.File != ""
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database:  *loadDatabaseConfig(),
		Data:      *loadDataConfig(),
		Dashboard: *loadDashboardConfig(),
		Server:    *loadServerConfig(),
		Profiling: *loadProfilingConfig(),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Driver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", "sqlite3")),
		URL:    os.Getenv("DATABASE_URL"),
		Table:  getEnvOrDefault("COMPOUNDS_TABLE", compound.DefaultTable),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		File:  getEnvOrDefault("DATA_FILE", ""),
		Sheet: getEnvOrDefault("DATA_SHEET", ""),
		Watch: getEnvBoolOrDefault("WATCH_DATA_FILE", true),
	}
}

func loadDashboardConfig() *DashboardConfig {
	return &DashboardConfig{
		SortByMW:        getEnvBoolOrDefault("SORT_BY_MW", true),
		CacheTTL:        getEnvDurationOrDefault("CACHE_TTL", 30*time.Second),
		RefreshInterval: getEnvDurationOrDefault("REFRESH_INTERVAL", 60*time.Second),
		Caption:         getEnvOrDefault("DASHBOARD_CAPTION", "Advanced Cheminformatics Solutions"),
		Title:           getEnvOrDefault("DASHBOARD_TITLE", "Molecular Intelligence Pro"),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

// table names are interpolated into SQL, so only identifier characters pass
func validTableName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9' && i > 0:
		case r == '.' && i > 0:
		default:
			return false
		}
	}
	return true
}

func validateConfig(config *Config) error {
	if !config.UsesFile() {
		if config.Database.URL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required when DATA_FILE is not set")
		}
		switch config.Database.Driver {
		case "postgres", "sqlite3":
		default:
			return errors.ConfigInvalid("DATABASE_DRIVER must be postgres or sqlite3")
		}
		if !validTableName(config.Database.Table) {
			return errors.ConfigInvalid("COMPOUNDS_TABLE must be a plain SQL identifier")
		}
	}
	if config.Dashboard.CacheTTL < 0 {
		return errors.ConfigInvalid("CACHE_TTL must not be negative")
	}
	if config.Dashboard.RefreshInterval <= 0 {
		return errors.ConfigInvalid("REFRESH_INTERVAL must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
