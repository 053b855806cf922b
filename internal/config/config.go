package config

import (
	"os"
	"runtime"
	"strconv"

	"neurosync/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Analysis AnalysisConfig
}

// DatabaseConfig holds database connection settings. URL may be empty, in
// which case the application falls back to the in-memory repository.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// AnalysisConfig holds estimator defaults
type AnalysisConfig struct {
	Workers       int   // parallel channel pairs
	BootstrapReps int   // default bootstrap repetitions (0 disables intervals)
	Seed          int64 // default run seed
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("NEUROSYNC_PORT", "8080"),
		},
		Analysis: AnalysisConfig{
			Workers:       getEnvIntOrDefault("PLV_WORKERS", runtime.NumCPU()),
			BootstrapReps: getEnvIntOrDefault("BOOTSTRAP_REPS", 0),
			Seed:          int64(getEnvIntOrDefault("RUN_SEED", 1)),
		},
	}

	if err := validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validate(c *Config) error {
	if c.Server.Port == "" {
		return errors.ConfigInvalid("NEUROSYNC_PORT cannot be empty")
	}
	if c.Analysis.Workers < 1 {
		return errors.ConfigInvalid("PLV_WORKERS must be at least 1")
	}
	if c.Analysis.BootstrapReps < 0 {
		return errors.ConfigInvalid("BOOTSTRAP_REPS must be non-negative")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
