package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
)

// logFilePermissions keeps the log private to the owner, matching the
// credential store. File names and emails end up in log lines.
const logFilePermissions = 0o600

const logDirPermissions = 0o700

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Config-file log level provides the baseline; --verbose and
// --quiet override it because CLI flags always win. When a log file is
// configured, output is teed to stderr and the file.
func buildLogger() *slog.Logger {
	out := io.Writer(os.Stderr)

	if resolvedCfg != nil && resolvedCfg.LogFile != "" {
		f, err := openLogFile(resolvedCfg.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: cannot open log file: %v\n", err)
		} else {
			out = io.MultiWriter(os.Stderr, f)
		}
	}

	return newLogger(out, logLevel(), logFormat())
}

// newLogger assembles the handler. Split out from buildLogger so tests can
// target a buffer.
func newLogger(out io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}

	return slog.New(slog.NewTextHandler(out, opts))
}

// logLevel resolves the effective log level from config and CLI flags.
func logLevel() slog.Level {
	level := slog.LevelInfo

	if resolvedCfg != nil {
		switch resolvedCfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	// CLI flags override config.
	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return level
}

// logFormat resolves "auto" to text on a terminal and JSON otherwise, so
// interactive runs stay readable while daemon logs stay machine-parseable.
func logFormat() string {
	format := "auto"
	if resolvedCfg != nil && resolvedCfg.LogFormat != "" {
		format = resolvedCfg.LogFormat
	}

	if format != "auto" {
		return format
	}

	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return "text"
	}

	return "json"
}

// openLogFile opens the log file for appending, creating parent directories
// as needed.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), logDirPermissions); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	return f, nil
}
