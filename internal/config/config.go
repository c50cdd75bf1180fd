// Package config loads templatize configuration from YAML and merges it
// with command-line flags.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/harrison/templatize/internal/logger"
)

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records runs and committed changes in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the history database path; empty means $TEMPLATIZE_HOME/history.db
	DBPath string `yaml:"db_path"`
}

// Config represents templatize configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// ExcludeDirs lists directory names never descended into
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// IncludeHidden descends into dot-directories that are not excluded
	IncludeHidden bool `yaml:"include_hidden"`

	// MaxFileSize skips content processing for larger files
	MaxFileSize ByteSize `yaml:"max_file_size"`

	// Workers is the content planning worker pool size (1 = sequential)
	Workers int `yaml:"workers"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultExcludeDirs are pruned from every walk unless the config overrides them.
var DefaultExcludeDirs = []string{".git", ".hg", ".svn", "node_modules", "target", ".venv", "__pycache__"}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	exclude := make([]string, len(DefaultExcludeDirs))
	copy(exclude, DefaultExcludeDirs)

	return &Config{
		LogLevel:      "info",
		ExcludeDirs:   exclude,
		IncludeHidden: false,
		MaxFileSize:   10 * MiB,
		Workers:       1,
		History: HistoryConfig{
			Enabled: true,
			DBPath:  "",
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Pointers distinguish "absent" from an explicit zero value.
	type yamlHistory struct {
		Enabled *bool   `yaml:"enabled"`
		DBPath  *string `yaml:"db_path"`
	}
	type yamlConfig struct {
		LogLevel      string      `yaml:"log_level"`
		ExcludeDirs   []string    `yaml:"exclude_dirs"`
		IncludeHidden *bool       `yaml:"include_hidden"`
		MaxFileSize   *ByteSize   `yaml:"max_file_size"`
		Workers       int         `yaml:"workers"`
		History       yamlHistory `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.ExcludeDirs != nil {
		cfg.ExcludeDirs = yamlCfg.ExcludeDirs
	}
	if yamlCfg.IncludeHidden != nil {
		cfg.IncludeHidden = *yamlCfg.IncludeHidden
	}
	if yamlCfg.MaxFileSize != nil {
		cfg.MaxFileSize = *yamlCfg.MaxFileSize
	}
	if yamlCfg.Workers != 0 {
		cfg.Workers = yamlCfg.Workers
	}
	if yamlCfg.History.Enabled != nil {
		cfg.History.Enabled = *yamlCfg.History.Enabled
	}
	if yamlCfg.History.DBPath != nil {
		cfg.History.DBPath = *yamlCfg.History.DBPath
	}

	return cfg, nil
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(logLevel *string, workers *int, includeHidden *bool, noHistory *bool) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if workers != nil {
		c.Workers = *workers
	}
	if includeHidden != nil {
		c.IncludeHidden = *includeHidden
	}
	if noHistory != nil && *noHistory {
		c.History.Enabled = false
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if !logger.IsValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be > 0, got %d", c.MaxFileSize)
	}
	for _, dir := range c.ExcludeDirs {
		if dir == "" {
			return fmt.Errorf("exclude_dirs cannot contain an empty name")
		}
	}
	return nil
}
