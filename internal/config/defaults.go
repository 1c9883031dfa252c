package config

import "path/filepath"

// Default values for configuration options — layer 0 of the override chain.
// Chosen so the daemon runs usefully with no config file at all.
const (
	defaultInterval  = "60s"
	defaultLogLevel  = "info"
	defaultLogFormat = "auto"
)

// DefaultConfig returns a Config populated with all default values. It is
// both the starting point for TOML decoding (unset fields keep defaults)
// and the fallback when no config file exists.
func DefaultConfig() *Config {
	configDir := DefaultConfigDir()
	dataDir := DefaultDataDir()

	return &Config{
		Interval:        defaultInterval,
		ProbeOnStart:    true,
		CredentialsFile: filepath.Join(configDir, "credentials.json"),
		TokenFile:       filepath.Join(dataDir, "token.json"),
		LogLevel:        defaultLogLevel,
		LogFormat:       defaultLogFormat,
		LogFile:         filepath.Join(dataDir, appName+".log"),
		AuditEnabled:    true,
		AuditDB:         filepath.Join(dataDir, "audit.db"),
	}
}
