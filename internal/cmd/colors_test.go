package cmd

import (
	"testing"
)

func saveColors(t *testing.T) {
	t.Helper()
	origMode := colorMode
	origRed, origGreen := colorRed, colorGreen
	t.Cleanup(func() {
		colorMode = origMode
		colorRed, colorGreen = origRed, origGreen
	})
}

func TestApplyColorMode(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		start     func()
		wantColor bool
	}{
		{"always overrides disabled", "always", disableColors, true},
		{"never overrides enabled", "never", enableColors, false},
		// stdout is a pipe under go test
		{"auto without a tty", "auto", enableColors, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saveColors(t)
			tt.start()
			colorMode = tt.mode
			applyColorMode()
			if got := colorRed != ""; got != tt.wantColor {
				t.Errorf("colors enabled = %v, want %v", got, tt.wantColor)
			}
		})
	}
}

func TestApplyColorMode_AutoHonorsNoColor(t *testing.T) {
	saveColors(t)
	t.Setenv("NO_COLOR", "1")
	enableColors()

	colorMode = "auto"
	applyColorMode()
	if colorGreen != "" {
		t.Error("auto mode should disable colors when NO_COLOR is set")
	}
}

func TestEnableDisableColors(t *testing.T) {
	saveColors(t)

	disableColors()
	if colorRed != "" || colorGreen != "" {
		t.Error("disableColors should clear all color codes")
	}

	enableColors()
	if colorRed == "" || colorGreen == "" {
		t.Error("enableColors should set color codes")
	}
}

func TestShouldDisableColors(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if !shouldDisableColors() {
		t.Error("shouldDisableColors should return true when NO_COLOR is set")
	}

	t.Setenv("NO_COLOR", "")
	t.Setenv("TERM", "dumb")
	if !shouldDisableColors() {
		t.Error("shouldDisableColors should return true when TERM=dumb")
	}
}

func TestTerminalWidth(t *testing.T) {
	if stdoutWidth() > 0 {
		t.Skip("stdout is a terminal")
	}
	tests := []struct {
		columns string
		want    int
	}{
		{"", 80},
		{"120", 120},
		{"notanumber", 80},
		{"-5", 80},
	}
	for _, tt := range tests {
		t.Setenv("COLUMNS", tt.columns)
		if got := terminalWidth(); got != tt.want {
			t.Errorf("terminalWidth() with COLUMNS=%q = %d, want %d", tt.columns, got, tt.want)
		}
	}
}

func TestCheckTERM(t *testing.T) {
	t.Setenv("TERM", "dumb")
	if err := checkTERM(); err == nil {
		t.Error("checkTERM should reject TERM=dumb")
	}
	t.Setenv("TERM", "xterm-256color")
	if err := checkTERM(); err != nil {
		t.Errorf("checkTERM() = %v", err)
	}
}
