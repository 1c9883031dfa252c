package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_RegistersSubcommands(t *testing.T) {
	cmd := newRootCmd()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"login", "logout", "whoami", "watch", "probe", "history"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestLoadConfig_DefaultsWithoutConfigFile(t *testing.T) {
	prev := flagConfigPath
	flagConfigPath = filepath.Join(t.TempDir(), "nonexistent.toml")

	t.Cleanup(func() { flagConfigPath = prev })

	require.NoError(t, loadConfig(newProbeCmd()))
	assert.Equal(t, "60s", resolvedCfg.Interval)
	assert.True(t, resolvedCfg.ProbeOnStart)
}

func TestLoadConfig_WatchFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("interval = \"5m\"\n"), 0o644))

	prev := flagConfigPath
	flagConfigPath = path

	t.Cleanup(func() { flagConfigPath = prev })

	cmd := newWatchCmd()
	require.NoError(t, cmd.Flags().Set("interval", "90s"))
	require.NoError(t, cmd.Flags().Set("no-probe", "true"))

	require.NoError(t, loadConfig(cmd))
	assert.Equal(t, "90s", resolvedCfg.Interval)
	assert.False(t, resolvedCfg.ProbeOnStart)
}

func TestLoadConfig_InvalidFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("interval = \"soon\"\n"), 0o644))

	prev := flagConfigPath
	flagConfigPath = path

	t.Cleanup(func() { flagConfigPath = prev })

	err := loadConfig(newProbeCmd())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}
