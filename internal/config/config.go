// Package config handles driveguard configuration: a small TOML file with
// a four-layer override chain (defaults -> config file -> environment
// variables -> CLI flags) and platform-aware default paths.
package config

import (
	"fmt"
	"time"
)

// Config holds every tunable of the daemon. All fields have defaults; a
// config file is optional.
type Config struct {
	// Interval is the poll cadence of the monitor loop and, at the same
	// time, the width of the changed-files query window.
	Interval string `toml:"interval"`

	// ProbeOnStart controls whether the default-visibility probe runs once
	// before the monitor loop starts.
	ProbeOnStart bool `toml:"probe_on_start"`

	// CredentialsFile is the Google OAuth client-secret JSON downloaded
	// from the Cloud Console.
	CredentialsFile string `toml:"credentials_file"`

	// TokenFile is the persisted OAuth token store.
	TokenFile string `toml:"token_file"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	LogFile   string `toml:"log_file"`

	// AuditEnabled controls the local SQLite ledger of revocation events.
	AuditEnabled bool   `toml:"audit_enabled"`
	AuditDB      string `toml:"audit_db"`
}

// IntervalDuration returns the parsed poll interval. Validate guarantees
// the field parses, so errors here indicate a Config that skipped Validate.
func (c *Config) IntervalDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 0, fmt.Errorf("parsing interval %q: %w", c.Interval, err)
	}

	return d, nil
}

// Valid log levels and formats.
var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"auto": true, "text": true, "json": true}
)

// Validate checks a Config for values that would fail later in surprising
// places. Called on every load so bad values fail at startup, not mid-cycle.
func Validate(cfg *Config) error {
	d, err := time.ParseDuration(cfg.Interval)
	if err != nil {
		return fmt.Errorf("interval %q is not a duration: %w", cfg.Interval, err)
	}

	if d <= 0 {
		return fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}

	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", cfg.LogLevel)
	}

	if !validLogFormats[cfg.LogFormat] {
		return fmt.Errorf("log_format %q is not one of auto, text, json", cfg.LogFormat)
	}

	if cfg.CredentialsFile == "" {
		return fmt.Errorf("credentials_file must not be empty")
	}

	if cfg.TokenFile == "" {
		return fmt.Errorf("token_file must not be empty")
	}

	if cfg.AuditEnabled && cfg.AuditDB == "" {
		return fmt.Errorf("audit_db must not be empty when audit_enabled is true")
	}

	return nil
}
