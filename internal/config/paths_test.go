package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	paths := DefaultPaths()

	if paths.ConfigDir == "" {
		t.Error("ConfigDir is empty")
	}
	if paths.DataDir == "" {
		t.Error("DataDir is empty")
	}

	if !filepath.IsAbs(paths.ConfigDir) {
		t.Errorf("ConfigDir should be absolute: %s", paths.ConfigDir)
	}
	if !filepath.IsAbs(paths.DataDir) {
		t.Errorf("DataDir should be absolute: %s", paths.DataDir)
	}
}

func TestDefaultPaths_XDG(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG test not applicable on Windows")
	}

	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	t.Setenv("XDG_DATA_HOME", "/custom/data")

	paths := DefaultPaths()

	if paths.ConfigDir != "/custom/config/teamseek" {
		t.Errorf("ConfigDir should respect XDG_CONFIG_HOME: %s", paths.ConfigDir)
	}
	if paths.DataDir != "/custom/data/teamseek" {
		t.Errorf("DataDir should respect XDG_DATA_HOME: %s", paths.DataDir)
	}
}

func TestPaths_Files(t *testing.T) {
	paths := DefaultPaths()

	if f := paths.ConfigFile(); !strings.HasSuffix(f, filepath.Join("teamseek", "config.yaml")) {
		t.Errorf("ConfigFile should end with teamseek/config.yaml: %s", f)
	}
	if f := paths.DatabaseFile(); !strings.HasSuffix(f, "index.db") {
		t.Errorf("DatabaseFile should end with index.db: %s", f)
	}
	if d := paths.LogDir(); !strings.HasSuffix(d, "logs") {
		t.Errorf("LogDir should end with logs: %s", d)
	}
	if f := paths.LogFile(); !strings.HasSuffix(f, "teamseek.log") {
		t.Errorf("LogFile should end with teamseek.log: %s", f)
	}
}

func TestPaths_EnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	paths := &Paths{
		ConfigDir: filepath.Join(tmpDir, "config", "teamseek"),
		DataDir:   filepath.Join(tmpDir, "data", "teamseek"),
	}

	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{paths.ConfigDir, paths.DataDir, paths.LogDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("Directory should exist: %s", dir)
		} else if !info.IsDir() {
			t.Errorf("Should be a directory: %s", dir)
		}
	}
}

func TestDefaultPaths_XDGUnset(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG test not applicable on Windows")
	}

	t.Setenv("HOME", "/home/tester")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")

	paths := DefaultPaths()
	if paths.ConfigDir != "/home/tester/.config/teamseek" {
		t.Errorf("ConfigDir = %s", paths.ConfigDir)
	}
	if paths.DatabaseFile() != "/home/tester/.local/share/teamseek/index.db" {
		t.Errorf("DatabaseFile = %s", paths.DatabaseFile())
	}
}

func TestHomeDir(t *testing.T) {
	home := homeDir()

	if home == "" {
		t.Error("homeDir returned empty string")
	}
	if !filepath.IsAbs(home) {
		t.Errorf("homeDir should return absolute path: %s", home)
	}
}
