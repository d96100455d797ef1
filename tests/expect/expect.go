//go:build !windows

// Package expect drives the teamseek binary inside a pseudo-terminal.
//
// It wraps the Netflix go-expect library so the full-screen search UI can be
// exercised the way a user would: keystrokes in, rendered screen out.
package expect

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"syscall"
	"testing"
	"time"

	expect "github.com/Netflix/go-expect"
	"golang.org/x/sys/unix"
)

// Key constants for special keys (ANSI escape sequences)
const (
	KeyUp     = "\x1b[A"
	KeyDown   = "\x1b[B"
	KeyEscape = "\x1b"
	KeyEnter  = "\r"
	KeyTab    = "\t"
	KeyCtrlC  = "\x03"
	KeyCtrlD  = "\x04"
	KeyCtrlF  = "\x06"
	KeyCtrlR  = "\x12"
	KeyCtrlT  = "\x14"
)

// Env is an isolated teamseek home: config, index, and logs all live under
// a temp directory.
type Env struct {
	Binary string
	Home   string
	vars   []string
}

// NewEnv creates an isolated environment for bin.
func NewEnv(t *testing.T, bin string) *Env {
	t.Helper()
	home := t.TempDir()
	return &Env{
		Binary: bin,
		Home:   home,
		vars: []string{
			"HOME=" + home,
			"XDG_CONFIG_HOME=" + filepath.Join(home, "config"),
			"XDG_DATA_HOME=" + filepath.Join(home, "data"),
			"TEAMSEEK_TEAM=",
			"TEAMSEEK_DB_PATH=",
			"TERM=xterm-256color",
		},
	}
}

// Run runs a non-interactive teamseek command and returns its combined
// output.
func (e *Env) Run(args ...string) (string, error) {
	cmd := exec.Command(e.Binary, args...) //nolint:gosec // G204: binary is from test config
	cmd.Env = append(os.Environ(), e.vars...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Index imports a workspace export written from yaml.
func (e *Env) Index(t *testing.T, yaml string) {
	t.Helper()
	path := filepath.Join(e.Home, "workspace.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write workspace: %v", err)
	}
	if out, err := e.Run("index", path); err != nil {
		t.Fatalf("teamseek index: %v\n%s", err, out)
	}
}

// Session is a running search screen.
type Session struct {
	Console *expect.Console
	Timeout time.Duration
	cmd     *exec.Cmd
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	timeout    time.Duration
	rows, cols uint16
	showOutput bool
}

// WithTimeout sets the default timeout for expect operations.
func WithTimeout(d time.Duration) SessionOption {
	return func(c *sessionConfig) {
		c.timeout = d
	}
}

// WithSize sets the terminal size.
func WithSize(rows, cols uint16) SessionOption {
	return func(c *sessionConfig) {
		c.rows, c.cols = rows, cols
	}
}

// WithOutput echoes the screen to stdout for debugging.
func WithOutput(show bool) SessionOption {
	return func(c *sessionConfig) {
		c.showOutput = show
	}
}

// Start opens the search screen with args on a new pseudo-terminal, which
// becomes the process's controlling terminal.
func (e *Env) Start(args []string, opts ...SessionOption) (*Session, error) {
	cfg := &sessionConfig{timeout: 5 * time.Second, rows: 24, cols: 80}
	for _, opt := range opts {
		opt(cfg)
	}

	consoleOpts := []expect.ConsoleOpt{expect.WithDefaultTimeout(cfg.timeout)}
	if cfg.showOutput {
		consoleOpts = append(consoleOpts, expect.WithStdout(os.Stdout))
	}
	console, err := expect.NewConsole(consoleOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create console: %w", err)
	}

	tty := console.Tty()
	if err := unix.IoctlSetWinsize(int(tty.Fd()), unix.TIOCSWINSZ, &unix.Winsize{Row: cfg.rows, Col: cfg.cols}); err != nil {
		console.Close()
		return nil, fmt.Errorf("failed to size console: %w", err)
	}

	cmd := exec.Command(e.Binary, args...) //nolint:gosec // G204: binary is from test config
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.Env = append(os.Environ(), e.vars...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	if err := cmd.Start(); err != nil {
		console.Close()
		return nil, fmt.Errorf("failed to start teamseek: %w", err)
	}

	return &Session{Console: console, Timeout: cfg.timeout, cmd: cmd}, nil
}

// Send sends text without a newline.
func (s *Session) Send(text string) error {
	_, err := s.Console.Send(text)
	return err
}

// SendKey sends a special key (use Key* constants).
func (s *Session) SendKey(key string) error {
	_, err := s.Console.Send(key)
	return err
}

// Expect waits for an exact string match in the output.
func (s *Session) Expect(str string) (string, error) {
	return s.Console.ExpectString(str)
}

// ExpectTimeout waits for an exact string match with a specific timeout.
func (s *Session) ExpectTimeout(str string, timeout time.Duration) (string, error) {
	return s.Console.Expect(expect.String(str), expect.WithTimeout(timeout))
}

// ExpectRegex waits for a regex pattern match in the output.
func (s *Session) ExpectRegex(pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid regex: %w", err)
	}
	return s.Console.Expect(expect.Regexp(re))
}

// Wait waits for the process to exit, up to the session timeout.
func (s *Session) Wait() error {
	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(s.Timeout):
		return fmt.Errorf("teamseek did not exit within %s", s.Timeout)
	}
}

// Close stops the process and closes the terminal.
func (s *Session) Close() error {
	if s.cmd != nil && s.cmd.ProcessState == nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	return s.Console.Close()
}

// FindBinary returns $TEAMSEEK_BIN, or teamseek from PATH. Empty when
// neither exists.
func FindBinary() string {
	if bin := os.Getenv("TEAMSEEK_BIN"); bin != "" {
		if _, err := os.Stat(bin); err == nil {
			return bin
		}
	}
	if bin, err := exec.LookPath("teamseek"); err == nil {
		return bin
	}
	return ""
}

// SkipIfBinaryMissing skips the test when no teamseek binary is available
// and returns its path otherwise.
func SkipIfBinaryMissing(t testing.TB) string {
	t.Helper()
	bin := FindBinary()
	if bin == "" {
		t.Skip("teamseek binary not available (set TEAMSEEK_BIN), skipping")
	}
	return bin
}

// SkipIfShort skips the test if running in short mode.
func SkipIfShort(t testing.TB, reason string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping in short mode: " + reason)
	}
}
