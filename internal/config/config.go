package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Record formats accepted by vault.record_format.
const (
	RecordFormatSalted = "salted"
	RecordFormatLegacy = "legacy"
)

// Config holds all application configuration.
type Config struct {
	// Storage paths
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Vault record settings
	Vault VaultConfig `json:"vault" mapstructure:"vault"`

	// User directory
	Users UsersConfig `json:"users" mapstructure:"users"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log"`
}

// StorageConfig for local file paths.
type StorageConfig struct {
	DataDir       string `json:"data_dir" mapstructure:"data_dir"`               // Base directory for all data
	NotesDir      string `json:"notes_dir,omitempty" mapstructure:"notes_dir"`   // Per-user record directories (default: <data_dir>/notes)
	MaxRecordSize int64  `json:"max_record_size" mapstructure:"max_record_size"` // Max record size in bytes
}

// VaultConfig for record encoding.
type VaultConfig struct {
	RecordFormat string `json:"record_format" mapstructure:"record_format"` // salted, legacy
}

// UsersConfig for the user directory.
type UsersConfig struct {
	Database         string `json:"database,omitempty" mapstructure:"database"`         // SQLite path (default: <data_dir>/users.db)
	MinPasswordScore int    `json:"min_password_score" mapstructure:"min_password_score"` // zxcvbn score 0-4
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // text, json
	File   string `json:"file" mapstructure:"file"`     // Log file path (empty = stderr)
	Color  bool   `json:"color" mapstructure:"color"`   // Enable colored output
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir:       "data",
			MaxRecordSize: 16 * 1024 * 1024, // 16MB
		},
		Vault: VaultConfig{
			RecordFormat: RecordFormatSalted,
		},
		Users: UsersConfig{
			MinPasswordScore: 0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "",
			Color:  true,
		},
	}
}

// NotesPath returns the directory holding per-user record directories.
func (c *Config) NotesPath() string {
	if c.Storage.NotesDir != "" {
		return c.Storage.NotesDir
	}
	return filepath.Join(c.Storage.DataDir, "notes")
}

// DatabasePath returns the user directory database path.
func (c *Config) DatabasePath() string {
	if c.Users.Database != "" {
		return c.Users.Database
	}
	return filepath.Join(c.Storage.DataDir, "users.db")
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}

	if c.Storage.MaxRecordSize <= 0 {
		return errors.New("storage.max_record_size must be positive")
	}

	switch c.Vault.RecordFormat {
	case RecordFormatSalted, RecordFormatLegacy:
	default:
		return fmt.Errorf("invalid vault.record_format: %s", c.Vault.RecordFormat)
	}

	if c.Users.MinPasswordScore < 0 || c.Users.MinPasswordScore > 4 {
		return fmt.Errorf("users.min_password_score must be between 0 and 4: %d", c.Users.MinPasswordScore)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDir,
		c.NotesPath(),
		filepath.Dir(c.DatabasePath()),
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
