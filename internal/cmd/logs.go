package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/teamseek/internal/config"
)

var (
	logsFollow bool
	logsLines  int
)

var logsCmd = &cobra.Command{
	Use:     "logs",
	Short:   "View the interactive session log",
	GroupID: groupSetup,
	Long: `View the log written by the interactive search screen.

The full-screen UI logs to a file instead of the terminal. By default the
last 50 lines are shown; --follow keeps printing new entries.

Examples:
  teamseek logs              # Show last 50 lines
  teamseek logs -f           # Follow log output
  teamseek logs --lines=100  # Show last 100 lines`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "Number of lines to show")

	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logFile := cfg.LogFilePath()

	if _, err := os.Stat(logFile); errors.Is(err, os.ErrNotExist) {
		fmt.Printf("No log file found at: %s\n", logFile)
		fmt.Println("It is created the first time the interactive screen runs.")
		return nil
	}

	if logsFollow {
		return followLogs(commandContext(cmd), logFile)
	}

	lines, err := tailLogs(logFile, logsLines)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		fmt.Println("Log file is empty.")
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}

// tailLogs returns the last n lines of filename.
func tailLogs(filename string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}
	return collectTailLines(f, stat.Size(), n)
}

// collectTailLines reads r backwards from size in fixed chunks until it
// has n complete lines or reaches the start.
func collectTailLines(r io.ReaderAt, size int64, n int) ([]string, error) {
	const chunkSize = 4096

	lines := make([]string, 0, n)
	offset := size
	partial := ""
	for len(lines) < n && offset > 0 {
		chunk, err := readChunkLines(r, &offset, chunkSize, partial)
		if err != nil {
			return nil, err
		}
		if offset > 0 && len(chunk) > 0 {
			partial, chunk = chunk[0], chunk[1:]
		} else {
			partial = ""
		}
		for i := len(chunk) - 1; i >= 0 && len(lines) < n; i-- {
			if chunk[i] == "" && len(lines) == 0 {
				continue
			}
			lines = append(lines, chunk[i])
		}
	}
	if partial != "" && len(lines) < n {
		lines = append(lines, partial)
	}

	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines, nil
}

// readChunkLines reads up to chunkSize bytes ending at *offset, moves
// *offset back, and splits the bytes plus carry into lines.
func readChunkLines(r io.ReaderAt, offset *int64, chunkSize int64, carry string) ([]string, error) {
	readSize := min(chunkSize, *offset)
	*offset -= readSize

	buf := make([]byte, readSize)
	read, err := r.ReadAt(buf, *offset)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}
	return splitLines(string(buf[:read]) + carry), nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func followLogs(ctx context.Context, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	fmt.Printf("Following %s (Ctrl+C to stop)...\n\n", filename)

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			fmt.Print(line)
		}
		if err == nil {
			continue
		}
		if err != io.EOF {
			return fmt.Errorf("error reading log: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(100 * time.Millisecond):
		}
	}
}
