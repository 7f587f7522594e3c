package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
	Admin       AdminConfig    `toml:"admin"`
	Upstream    UpstreamConfig `toml:"upstream"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// AdminConfig gates the credential administration endpoints. The shared
// secret is separate from end-user alias-creation auth.
type AdminConfig struct {
	Token string `toml:"token"` // Value expected in the X-Admin-Token header
}

// UpstreamConfig tunes outbound calls to iCloud. The protocol endpoints and
// identification parameters are fixed; only transport-level knobs live here.
type UpstreamConfig struct {
	UserAgent string `toml:"user_agent"` // Browser-style user agent sent upstream
	Timeout   string `toml:"timeout"`    // HTTP client timeout as duration string (default: "30s")
}

// NewDefaultConfig creates a configuration with default values.
// Protocol constants are hardcoded in the icloud package for
// interoperability; only deployment-facing settings are exposed here.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Admin: AdminConfig{
			Token: "", // Must be provided via config or HMEBRIDGE_ADMIN_TOKEN
		},
		Upstream: UpstreamConfig{
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36",
			Timeout:   "30s",
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files. Later files
// override earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("HMEBRIDGE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("HMEBRIDGE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("HMEBRIDGE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("HMEBRIDGE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("HMEBRIDGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("HMEBRIDGE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	// Admin token (secret - prefer env over config file in production)
	if token := os.Getenv("HMEBRIDGE_ADMIN_TOKEN"); token != "" {
		config.Admin.Token = token
	}

	// Upstream configuration
	if userAgent := os.Getenv("HMEBRIDGE_UPSTREAM_USER_AGENT"); userAgent != "" {
		config.Upstream.UserAgent = userAgent
	}
	if timeout := os.Getenv("HMEBRIDGE_UPSTREAM_TIMEOUT"); timeout != "" {
		config.Upstream.Timeout = timeout
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
