// ABOUTME: Configuration loading and parsing for bizpilot
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete bizpilot configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Remote   RemoteConfig   `yaml:"remote"`
	Content  ContentConfig  `yaml:"content"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig holds the local mirror database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RemoteConfig holds the remote document store configuration.
// Leaving base_url empty runs the app in offline mode.
type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// ContentConfig holds the generative content API configuration
type ContentConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	APIKey      string        `yaml:"api_key"`
	JSONTimeout time.Duration `yaml:"-"`
	TextTimeout time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	JSONTimeoutRaw string `yaml:"json_timeout"`
	TextTimeoutRaw string `yaml:"text_timeout"`
}

// AnalysisConfig holds analysis orchestration configuration
type AnalysisConfig struct {
	FallbackTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	FallbackTimeoutRaw string `yaml:"fallback_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Remote sync requires a token alongside the base URL
	if c.Remote.BaseURL != "" && c.Remote.Token == "" {
		return fmt.Errorf("remote.token is required when remote.base_url is set")
	}

	if c.Content.APIKey == "" {
		return fmt.Errorf("content.api_key is required")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Remote.TimeoutRaw != "" {
		cfg.Remote.Timeout, err = time.ParseDuration(cfg.Remote.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing remote timeout %q: %w", cfg.Remote.TimeoutRaw, err)
		}
	}

	if cfg.Content.JSONTimeoutRaw != "" {
		cfg.Content.JSONTimeout, err = time.ParseDuration(cfg.Content.JSONTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing json_timeout %q: %w", cfg.Content.JSONTimeoutRaw, err)
		}
	}

	if cfg.Content.TextTimeoutRaw != "" {
		cfg.Content.TextTimeout, err = time.ParseDuration(cfg.Content.TextTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing text_timeout %q: %w", cfg.Content.TextTimeoutRaw, err)
		}
	}

	if cfg.Analysis.FallbackTimeoutRaw != "" {
		cfg.Analysis.FallbackTimeout, err = time.ParseDuration(cfg.Analysis.FallbackTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing fallback_timeout %q: %w", cfg.Analysis.FallbackTimeoutRaw, err)
		}
	}

	return nil
}
