// Package config loads and validates the egress pipeline configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/verdigris-botanica/egress/internal/types"
)

// Config is the root configuration for the egress pipeline.
type Config struct {
	Transmission TransmissionConfig `mapstructure:"transmission" yaml:"transmission"`
	Audit        AuditConfig        `mapstructure:"audit" yaml:"audit"`
	Security     SecurityConfig     `mapstructure:"security" yaml:"security"`
	Logging      LoggingConfig      `mapstructure:"logging" yaml:"logging"`
	Tracing      TracingConfig      `mapstructure:"tracing" yaml:"tracing"`
}

// TransmissionConfig describes the outbound side of the pipeline. The
// destination is an opaque endpoint label used for audit records; this
// core never dials it.
type TransmissionConfig struct {
	Destination   string `mapstructure:"destination" yaml:"destination"`
	ParallelLimit int    `mapstructure:"parallel_limit" yaml:"parallel_limit"`
}

// AuditConfig describes where the audit trail lives and how long it
// must be retained. RetentionDays <= 0 means retain indefinitely: the
// core never deletes on its own and an unset horizon must not become a
// license to drop records.
type AuditConfig struct {
	LogDir        string `mapstructure:"log_dir" yaml:"log_dir"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
}

// SecurityConfig locates the externally provisioned key handle.
type SecurityConfig struct {
	KeyFile string `mapstructure:"key_file" yaml:"key_file"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// TracingConfig contains tracing configuration.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultHomeDir returns the default egress home directory.
func DefaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".egress"
	}
	return filepath.Join(home, ".egress")
}

// Default returns the default configuration rooted at homeDir.
func Default(homeDir string) *Config {
	return &Config{
		Transmission: TransmissionConfig{
			Destination:   "cisa-tribal-data-intake",
			ParallelLimit: 4,
		},
		Audit: AuditConfig{
			LogDir:        filepath.Join(homeDir, "logs"),
			RetentionDays: 0, // retain indefinitely
		},
		Security: SecurityConfig{
			KeyFile: filepath.Join(homeDir, "keys", "transmission.key"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			Enabled: false,
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run
// with. Invalid retention values are normalized to indefinite rather
// than rejected, since mis-set retention must never cause deletion.
func (c *Config) Validate() error {
	if c.Transmission.Destination == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"transmission.destination cannot be empty")
	}
	if c.Audit.LogDir == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"audit.log_dir cannot be empty")
	}
	if c.Security.KeyFile == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"security.key_file cannot be empty")
	}

	if c.Transmission.ParallelLimit <= 0 {
		c.Transmission.ParallelLimit = 4
	}
	if c.Audit.RetentionDays < 0 {
		c.Audit.RetentionDays = 0
	}

	return nil
}
