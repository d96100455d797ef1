// Package log provides JSON-lines structured logging for teamseek.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config configures the structured logger.
type Config struct {
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer

	// Level is the minimum log level (default: LevelInfo)
	Level slog.Level

	// Debug enables debug level logging (overrides Level)
	Debug bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: os.Stderr,
		Level:  slog.LevelInfo,
	}
}

// New creates a JSON-lines logger. Lines look like:
//
//	{"ts":"2026-01-15T10:30:00Z","level":"INFO","msg":"search finished","phase":"results"}
//
// Log levels:
//   - debug: session transitions and discarded stale results (TEAMSEEK_DEBUG=1)
//   - info: startup, index imports
//   - warn: non-fatal issues (failed history writes)
//   - error: failures that end a command
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	level := cfg.Level
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Key = "ts"
			}
			return a
		},
	}

	return slog.New(slog.NewJSONHandler(output, opts))
}

// ParseLevel parses a config level name. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log: unknown level %q", s)
	}
}

// OpenFile opens path for appending, creating parent directories as needed.
// The TUI logs here so the terminal stays clean.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("log: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("log: open %s: %w", path, err)
	}
	return f, nil
}

// StartupInfo holds information to log when a session starts.
type StartupInfo struct {
	Version      string
	ConfigPath   string
	DatabasePath string
	TeamID       string
	PID          int
}

// LogStartup logs session startup information.
func LogStartup(logger *slog.Logger, info StartupInfo) {
	logger.Info("teamseek started",
		"version", info.Version,
		"config_path", info.ConfigPath,
		"database_path", info.DatabasePath,
		"team_id", info.TeamID,
		"pid", info.PID,
	)
}

// LogIndexImported logs a completed fixture import.
func LogIndexImported(logger *slog.Logger, path string, teams, posts, files int) {
	logger.Info("index imported",
		"path", path,
		"teams", teams,
		"posts", posts,
		"files", files,
	)
}

// LogSQLiteError logs SQLite errors.
func LogSQLiteError(logger *slog.Logger, operation string, err error) {
	logger.Error("sqlite error", "operation", operation, "error", err)
}
