// Package common provides shared utilities for the supply engine.
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the supply engine.
type Config struct {
	Environment string           `toml:"environment"`
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Generator   GeneratorConfig  `toml:"generator"`
	JobManager  JobManagerConfig `toml:"job_manager"`
	Telemetry   TelemetryConfig  `toml:"telemetry"`
	Auth        AuthConfig       `toml:"auth"`
	Logging     LoggingConfig    `toml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the SurrealDB connection configuration for the Store.
type StorageConfig struct {
	Address   string `toml:"address"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
}

// GeneratorConfig configures the Generator Adapter's backing text-generation service.
type GeneratorConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	Timeout   string `toml:"timeout"`    // per-call deadline, default "30s"
	RateLimit int    `toml:"rate_limit"` // calls per second
}

// GetTimeout parses and returns the per-call deadline, defaulting to 30s.
func (c *GeneratorConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// JobManagerConfig configures the bounded worker pool and job GC.
type JobManagerConfig struct {
	Enabled         bool   `toml:"enabled"`
	MaxConcurrent   int    `toml:"max_concurrent"`   // worker pool width W, default 3
	CleanupInterval string `toml:"cleanup_interval"` // how often the GC loop runs, default "5m"
	MaxJobAge       string `toml:"max_job_age"`      // terminal-job TTL, default "1h"
}

// GetCleanupInterval parses and returns the GC loop period, defaulting to 5 minutes.
func (c *JobManagerConfig) GetCleanupInterval() time.Duration {
	d, err := time.ParseDuration(c.CleanupInterval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// GetMaxJobAge parses and returns the terminal-job TTL, defaulting to 1 hour.
func (c *JobManagerConfig) GetMaxJobAge() time.Duration {
	d, err := time.ParseDuration(c.MaxJobAge)
	if err != nil {
		return 1 * time.Hour
	}
	return d
}

// TelemetryConfig holds the alert threshold overrides.
type TelemetryConfig struct {
	MaxActiveJobs         int     `toml:"max_active_jobs"`
	MinSuccessRate        float64 `toml:"min_success_rate"`
	MinCompletionsForRate int     `toml:"min_completions_for_rate"`
	MaxDuplicateRatio     float64 `toml:"max_duplicate_ratio"`
	MaxConcurrentStreams  int     `toml:"max_concurrent_streams"`
}

// AuthConfig holds bearer-token verification configuration. Token issuance
// is out of scope; this config only supports verifying tokens minted
// elsewhere.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string   `toml:"level"`
	Format  string   `toml:"format"`
	Outputs []string `toml:"outputs"`
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Address:   "ws://127.0.0.1:8000/rpc",
			Username:  "root",
			Password:  "root",
			Namespace: "trivia",
			Database:  "trivia",
		},
		Generator: GeneratorConfig{
			Model:     "gemini-3-flash-preview",
			Timeout:   "30s",
			RateLimit: 2,
		},
		JobManager: JobManagerConfig{
			Enabled:         true,
			MaxConcurrent:   3,
			CleanupInterval: "5m",
			MaxJobAge:       "1h",
		},
		Telemetry: TelemetryConfig{
			MaxActiveJobs:         15,
			MinSuccessRate:        0.80,
			MinCompletionsForRate: 5,
			MaxDuplicateRatio:     0.50,
			MaxConcurrentStreams:  100,
		},
		Auth: AuthConfig{
			JWTSecret: "dev-jwt-secret-change-in-production",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "json",
			Outputs: []string{"console"},
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies TRIVIA_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TRIVIA_ENV"); env != "" {
		config.Environment = env
	}
	if host := os.Getenv("TRIVIA_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("TRIVIA_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if level := os.Getenv("TRIVIA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if addr := os.Getenv("TRIVIA_STORAGE_ADDRESS"); addr != "" {
		config.Storage.Address = addr
	}
	if v := os.Getenv("TRIVIA_STORAGE_NAMESPACE"); v != "" {
		config.Storage.Namespace = v
	}
	if v := os.Getenv("TRIVIA_STORAGE_DATABASE"); v != "" {
		config.Storage.Database = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Generator.APIKey = v
	}
	if v := os.Getenv("TRIVIA_GENERATOR_API_KEY"); v != "" {
		config.Generator.APIKey = v
	}
	if v := os.Getenv("TRIVIA_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("TRIVIA_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.JobManager.MaxConcurrent = n
		}
	}
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
