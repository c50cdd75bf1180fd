package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the templatize home directory.
const HomeEnv = "TEMPLATIZE_HOME"

// GetHome returns the templatize home directory
// Priority order:
//  1. TEMPLATIZE_HOME environment variable (if set)
//  2. ~/.templatize
//
// The directory is created if it doesn't exist
func GetHome() (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get user home directory: %w", err)
		}
		home = filepath.Join(userHome, ".templatize")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create templatize home directory: %w", err)
	}
	return home, nil
}

// DefaultConfigPath returns $TEMPLATIZE_HOME/config.yaml
func DefaultConfigPath() (string, error) {
	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "config.yaml"), nil
}

// GetLockDir returns the directory holding per-target run locks
func GetLockDir() (string, error) {
	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "locks"), nil
}

// HistoryDBPath returns the configured history database path, defaulting
// to $TEMPLATIZE_HOME/history.db
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}
	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "history.db"), nil
}
