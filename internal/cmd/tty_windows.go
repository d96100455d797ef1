//go:build windows

package cmd

import "os"

// openTTY returns nil on Windows; the program uses the console directly.
func openTTY() (*os.File, error) {
	return nil, nil
}

// stdoutWidth returns 0 on Windows; terminalWidth falls back to $COLUMNS.
func stdoutWidth() int {
	return 0
}
