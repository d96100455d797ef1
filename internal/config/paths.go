// Package config provides configuration management for teamseek.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "teamseek"

// Paths locates teamseek's files on disk.
type Paths struct {
	// ConfigDir holds config.yaml (~/.config/teamseek).
	ConfigDir string

	// DataDir holds the search index and logs (~/.local/share/teamseek).
	DataDir string
}

// DefaultPaths follows the XDG base directory layout. On Windows the config
// lives under %APPDATA% and the data under %LOCALAPPDATA%.
func DefaultPaths() *Paths {
	home := homeDir()
	if runtime.GOOS == "windows" {
		return &Paths{
			ConfigDir: baseDir("APPDATA", home, "AppData", "Roaming"),
			DataDir:   baseDir("LOCALAPPDATA", home, "AppData", "Local"),
		}
	}
	return &Paths{
		ConfigDir: baseDir("XDG_CONFIG_HOME", home, ".config"),
		DataDir:   baseDir("XDG_DATA_HOME", home, ".local", "share"),
	}
}

// baseDir returns $env/teamseek, or home/fallback.../teamseek when env is
// unset.
func baseDir(env, home string, fallback ...string) string {
	root := os.Getenv(env)
	if root == "" {
		root = filepath.Join(append([]string{home}, fallback...)...)
	}
	return filepath.Join(root, appName)
}

// ConfigFile returns the path to the main configuration file.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// DatabaseFile returns the path to the local search index.
func (p *Paths) DatabaseFile() string {
	return filepath.Join(p.DataDir, "index.db")
}

// LogDir returns the path to the log directory.
func (p *Paths) LogDir() string {
	return filepath.Join(p.DataDir, "logs")
}

// LogFile returns the path to the interactive screen's log file.
func (p *Paths) LogFile() string {
	return filepath.Join(p.LogDir(), appName+".log")
}

// EnsureDirectories creates the config, data, and log directories.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ConfigDir, p.DataDir, p.LogDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	if runtime.GOOS == "windows" {
		return os.Getenv("USERPROFILE")
	}
	return os.Getenv("HOME")
}
