// Package config loads and holds the Zep MCP server configuration.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/localrivet/configurator"
)

// Global configuration instance
var (
	// Global is the global configuration instance
	Global *Config
	// initOnce ensures initialization happens only once
	initOnce sync.Once
)

// InitGlobal initializes the global configuration
func InitGlobal(configPath string) (*Config, error) {
	var err error
	initOnce.Do(func() {
		Global, err = LoadConfigWithPath(configPath)
	})
	return Global, err
}

// Config represents the Zep MCP server configuration
type Config struct {
	// Zep contains settings for the remote Zep memory service.
	Zep struct {
		// APIKey is the credential for the Zep cloud API. It is the
		// one required configuration value; startup fails without it.
		APIKey string `json:"api_key" env:"API_KEY"`

		// BaseURL is the root of the Zep API.
		BaseURL string `json:"base_url" env:"BASE_URL" validate:"required"`

		// UserID is the service identity all memories are stored
		// under. Graph enumeration and search are scoped to it.
		UserID string `json:"user_id" env:"USER_ID" validate:"required"`
	} `json:"zep"`

	// Logging contains logging-related configuration.
	Logging struct {
		// Level is the minimum log level to display ("debug", "info", "warn", "error").
		Level string `json:"level" env:"LOG_LEVEL" validate:"required"`

		// Format is the log format to use ("text", "json").
		Format string `json:"format" env:"LOG_FORMAT"`
	} `json:"logging"`

	// Internal state (not saved to config file)
	configPath     string       `json:"-"`
	mutex          sync.RWMutex `json:"-"`
	lastModifiedAt time.Time    `json:"-"`
}

// Default configuration values
const (
	DefaultConfigFilename = ".zepmcpconfig"
	DefaultBaseURL        = "https://api.getzep.com"
	DefaultUserID         = "default_user"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"

	// EnvPrefix is the prefix for environment overrides, so the
	// credential is read from ZEP_API_KEY.
	EnvPrefix = "ZEP"
)

// NewConfig creates a new Config instance with default values
func NewConfig() *Config {
	config := &Config{}
	config.Zep.BaseURL = DefaultBaseURL
	config.Zep.UserID = DefaultUserID
	config.Logging.Level = DefaultLogLevel
	config.Logging.Format = DefaultLogFormat
	return config
}

// LoadConfig loads the configuration from the default path
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath(DefaultConfigFilename)
}

// LoadConfigWithPath loads the configuration from a specific path.
// Missing files are not an error: defaults plus environment overrides
// still apply, since most deployments configure the server entirely
// through ZEP_* variables in the MCP client's server definition.
func LoadConfigWithPath(configPath string) (*Config, error) {
	// Stderr only: stdout carries the MCP stdio framing.
	stdLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Create default configuration
	cfg := NewConfig()

	// Try to find config file if path is default
	if configPath == DefaultConfigFilename {
		foundPath, err := configurator.FindConfigFile(configPath)
		if err == nil {
			configPath = foundPath
			stdLogger.Debug("Found config file at " + foundPath)
		}
	}

	providers := []configurator.Provider{
		configurator.NewDefaultProvider(),
	}

	if _, err := os.Stat(configPath); err == nil {
		stdLogger.Info("Loading configuration", "path", configPath)
		providers = append(providers, configurator.NewFileProvider(configPath))
	} else {
		stdLogger.Debug("Config file not found, relying on defaults and environment", "path", configPath)
	}

	providers = append(providers, configurator.NewEnvProvider(EnvPrefix))

	config := configurator.New(stdLogger).
		WithValidator(configurator.NewDefaultValidator())
	for _, p := range providers {
		config = config.WithProvider(p)
	}

	ctx := context.Background()
	if err := config.Load(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Store the config path for future operations
	cfg.configPath = configPath
	cfg.lastModifiedAt = time.Now()

	return cfg, nil
}

// SaveToFile saves the configuration to the specified file
func (c *Config) SaveToFile(path string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Create directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := configurator.SaveToFile(c, path, configurator.FormatJSON); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	// Update internal state
	c.configPath = path
	c.lastModifiedAt = time.Now()

	return nil
}

// Save saves the configuration to the last used file path
func (c *Config) Save() error {
	if c.configPath == "" {
		c.configPath = DefaultConfigFilename
	}
	return c.SaveToFile(c.configPath)
}

// GetConfigPath returns the path of the currently loaded configuration file
func (c *Config) GetConfigPath() string {
	return c.configPath
}
