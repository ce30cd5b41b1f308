// Package config loads the application configuration. Fields are pointers
// so a partial JSON file only overrides what it names; the Get* accessors
// supply the defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AppConfig is the root configuration of the reading-report binary.
type AppConfig struct {
	// DBPath is the sqlite database file for persisted runs.
	DBPath *string `json:"db_path,omitempty"`
	// Listen is the HTTP listen address in serve mode.
	Listen *string `json:"listen,omitempty"`
	// MigrationsDir is where the golang-migrate SQL files live.
	MigrationsDir *string `json:"migrations_dir,omitempty"`
	// TrialLabel is assumed for AOI inventories without a trial column.
	TrialLabel *string `json:"trial_label,omitempty"`
	// DataDirs are extra directories the API may read input tables from.
	// The temp and working directories are always allowed.
	DataDirs []string `json:"data_dirs,omitempty"`
}

// EmptyConfig returns an AppConfig with all fields unset, which resolves to
// the defaults through the Get* accessors.
func EmptyConfig() *AppConfig {
	return &AppConfig{}
}

// Load reads an AppConfig from a JSON file. Omitted fields keep their
// defaults, so partial configs are safe.
func Load(path string) (*AppConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c *AppConfig) Validate() error {
	if c.Listen != nil && *c.Listen == "" {
		return fmt.Errorf("listen address must not be empty when set")
	}
	if c.MigrationsDir != nil {
		if info, err := os.Stat(*c.MigrationsDir); err != nil || !info.IsDir() {
			return fmt.Errorf("migrations_dir %q is not a directory", *c.MigrationsDir)
		}
	}
	for _, dir := range c.DataDirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return fmt.Errorf("data dir %q is not a directory", dir)
		}
	}
	return nil
}

// GetDBPath returns the db_path value or the default.
func (c *AppConfig) GetDBPath() string {
	if c.DBPath == nil {
		return "reading.db"
	}
	return *c.DBPath
}

// GetListen returns the listen value or the default.
func (c *AppConfig) GetListen() string {
	if c.Listen == nil {
		return ":8080"
	}
	return *c.Listen
}

// GetMigrationsDir returns the migrations_dir value or the default.
func (c *AppConfig) GetMigrationsDir() string {
	if c.MigrationsDir == nil {
		return "migrations"
	}
	return *c.MigrationsDir
}

// GetTrialLabel returns the trial_label value or the default.
func (c *AppConfig) GetTrialLabel() string {
	if c.TrialLabel == nil {
		return "trial_1"
	}
	return *c.TrialLabel
}
