package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig      = "DRIVEGUARD_CONFIG"
	EnvTokenFile   = "DRIVEGUARD_TOKEN_FILE"
	EnvCredentials = "DRIVEGUARD_CREDENTIALS_FILE"
	EnvInterval    = "DRIVEGUARD_INTERVAL"
)

// EnvOverrides holds values read from environment variables. Empty string
// means the variable was not set.
type EnvOverrides struct {
	ConfigPath      string // DRIVEGUARD_CONFIG: override config file path
	TokenFile       string // DRIVEGUARD_TOKEN_FILE: override token store path
	CredentialsFile string // DRIVEGUARD_CREDENTIALS_FILE: override client-secret path
	Interval        string // DRIVEGUARD_INTERVAL: override poll interval
}

// ReadEnvOverrides reads the environment and returns any overrides found.
// It does not modify any Config; Resolve applies the relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:      os.Getenv(EnvConfig),
		TokenFile:       os.Getenv(EnvTokenFile),
		CredentialsFile: os.Getenv(EnvCredentials),
		Interval:        os.Getenv(EnvInterval),
	}
}
