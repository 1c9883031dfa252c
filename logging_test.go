package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveguard/driveguard/internal/config"
)

// withGlobals swaps the package-level config and flag state for a test and
// restores it afterwards. Tests using it must not run in parallel.
func withGlobals(t *testing.T, cfg *config.Config, verbose, quiet bool) {
	t.Helper()

	prevCfg, prevVerbose, prevQuiet := resolvedCfg, flagVerbose, flagQuiet
	resolvedCfg, flagVerbose, flagQuiet = cfg, verbose, quiet

	t.Cleanup(func() {
		resolvedCfg, flagVerbose, flagQuiet = prevCfg, prevVerbose, prevQuiet
	})
}

func TestNewLogger_TextFormat(t *testing.T) {
	buf := &bytes.Buffer{}

	logger := newLogger(buf, slog.LevelInfo, "text")
	logger.Info("hello", slog.String("key", "value"))

	out := buf.String()
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "key=value")
}

func TestNewLogger_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}

	logger := newLogger(buf, slog.LevelInfo, "json")
	logger.Info("hello")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestLogLevel_ConfigBaseline(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogLevel = "warn"
	withGlobals(t, cfg, false, false)

	assert.Equal(t, slog.LevelWarn, logLevel())
}

func TestLogLevel_VerboseOverridesConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogLevel = "error"
	withGlobals(t, cfg, true, false)

	assert.Equal(t, slog.LevelDebug, logLevel())
}

func TestLogLevel_QuietWinsOverVerbose(t *testing.T) {
	withGlobals(t, config.DefaultConfig(), true, true)

	assert.Equal(t, slog.LevelError, logLevel())
}

func TestLogFormat_ExplicitValuesPassThrough(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogFormat = "json"
	withGlobals(t, cfg, false, false)
	assert.Equal(t, "json", logFormat())

	cfg.LogFormat = "text"
	assert.Equal(t, "text", logFormat())
}

func TestLogFormat_AutoResolvesToJSONWithoutTerminal(t *testing.T) {
	// Test binaries run with stderr redirected, so auto picks JSON.
	cfg := config.DefaultConfig()
	cfg.LogFormat = "auto"
	withGlobals(t, cfg, false, false)

	assert.Equal(t, "json", logFormat())
}

func TestOpenLogFile_CreatesDirectoryAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "driveguard.log")

	f, err := openLogFile(path)
	require.NoError(t, err)

	_, err = f.WriteString("first\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = openLogFile(path)
	require.NoError(t, err)

	_, err = f.WriteString("second\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
