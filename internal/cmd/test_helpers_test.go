package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/runger/teamseek/internal/config"
	"github.com/runger/teamseek/internal/storage"
)

const testWorkspace = `
teams:
  - id: eng
    name: engineering
    display_name: Engineering
    channels:
      - id: c-release
        name: release
        posts:
          - id: p1
            author: alice
            message: "Release notes\nfor v1.2"
            create_at: 2024-03-01T10:00:00Z
            files:
              - id: f1
                name: release-notes.pdf
                size: 2048
          - id: p2
            author: bob
            message: Who has the release checklist?
            create_at: 2024-03-02T10:00:00Z
            files:
              - id: f2
                name: release-plan.xlsx
                size: 4096
  - id: ops
    name: operations
    channels:
      - id: c-oncall
        name: oncall
        posts:
          - id: p3
            author: carol
            message: Rollback finished
            create_at: 2024-03-03T10:00:00Z
`

type cmdGlobals struct {
	team          string
	searchJSON    bool
	searchFilter  string
	historyLimit  int
	historyRemove string
	colorMode     string
}

// withCmdGlobals resets flag variables to their defaults and restores them
// when the test ends.
func withCmdGlobals(t *testing.T) {
	t.Helper()
	old := cmdGlobals{
		team:          teamFlag,
		searchJSON:    searchJSON,
		searchFilter:  searchFilter,
		historyLimit:  historyLimit,
		historyRemove: historyRemove,
		colorMode:     colorMode,
	}
	teamFlag = ""
	searchJSON = false
	searchFilter = "all"
	historyLimit = 20
	historyRemove = ""
	colorMode = "never"
	t.Cleanup(func() {
		teamFlag = old.team
		searchJSON = old.searchJSON
		searchFilter = old.searchFilter
		historyLimit = old.historyLimit
		historyRemove = old.historyRemove
		colorMode = old.colorMode
		applyColorMode()
	})
}

// withTestEnv points every teamseek path at a temp directory and clears
// TEAMSEEK_* overrides.
func withTestEnv(t *testing.T) *config.Paths {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	for _, k := range []string{"TEAMSEEK_TEAM", "TEAMSEEK_DB_PATH", "TEAMSEEK_DEBUG"} {
		t.Setenv(k, "")
	}
	t.Setenv("TEAMSEEK_LOG_LEVEL", "error")
	withCmdGlobals(t)
	return config.DefaultPaths()
}

// writeWorkspace writes the test workspace export and returns its path.
func writeWorkspace(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workspace.yaml")
	if err := os.WriteFile(path, []byte(testWorkspace), 0o644); err != nil {
		t.Fatalf("write workspace: %v", err)
	}
	return path
}

// withIndexedWorkspace sets up a test environment whose index already
// holds the test workspace.
func withIndexedWorkspace(t *testing.T) *config.Paths {
	t.Helper()
	paths := withTestEnv(t)

	fixture, err := storage.ParseFixture([]byte(testWorkspace))
	if err != nil {
		t.Fatalf("ParseFixture() error = %v", err)
	}
	store, err := storage.NewSQLiteStore(paths.DatabaseFile())
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()
	if _, err := store.ImportFixture(context.Background(), fixture); err != nil {
		t.Fatalf("ImportFixture() error = %v", err)
	}
	return paths
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()
	_ = w.Close()
	os.Stdout = old
	out := <-outC
	_ = r.Close()
	return out
}
