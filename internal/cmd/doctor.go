package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/teamseek/internal/config"
	"github.com/runger/teamseek/internal/storage"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Short:   "Check the teamseek installation and index",
	GroupID: groupSetup,
	Long: `Run diagnostic checks on your teamseek installation.

This command checks:
- Binary installation
- Configuration validity
- The local search index and its teams
- Terminal support for the interactive screen

Examples:
  teamseek doctor`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	status  string // "ok", "warn", "error"
	message string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	applyColorMode()

	fmt.Printf("%steamseek Doctor%s\n", colorBold, colorReset)
	fmt.Println(strings.Repeat("-", 40))
	fmt.Println()

	results := []checkResult{checkBinary()}
	cfgResult, cfg := checkConfiguration(config.DefaultPaths().ConfigFile())
	results = append(results, cfgResult)
	if cfg != nil {
		results = append(results, checkIndex(commandContext(cmd), cfg.DatabasePath()))
	}
	results = append(results, checkTerminal())

	hasErrors, hasWarnings := printChecks(results)
	fmt.Println()

	if hasErrors {
		fmt.Printf("%sSome checks failed. Please fix the errors above.%s\n", colorRed, colorReset)
		return errors.New("doctor found errors")
	}
	if hasWarnings {
		fmt.Printf("%sAll critical checks passed, but there are warnings.%s\n", colorYellow, colorReset)
	} else {
		fmt.Printf("%sAll checks passed!%s\n", colorGreen, colorReset)
	}
	return nil
}

func printChecks(results []checkResult) (hasErrors, hasWarnings bool) {
	for _, r := range results {
		var icon string
		switch r.status {
		case "ok":
			icon = colorGreen + "[OK]" + colorReset
		case "warn":
			icon = colorYellow + "[WARN]" + colorReset
			hasWarnings = true
		default:
			icon = colorRed + "[ERROR]" + colorReset
			hasErrors = true
		}
		fmt.Printf("  %s %s\n", icon, r.name)
		if r.message != "" {
			fmt.Printf("       %s%s%s\n", colorDim, r.message, colorReset)
		}
	}
	return hasErrors, hasWarnings
}

func checkBinary() checkResult {
	path, err := exec.LookPath("teamseek")
	if err != nil {
		return checkResult{name: "teamseek binary", status: "warn", message: "teamseek not found in PATH"}
	}
	return checkResult{name: "teamseek binary", status: "ok", message: path}
}

// checkConfiguration loads configFile. The config is nil when it failed.
func checkConfiguration(configFile string) (checkResult, *config.Config) {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return checkResult{
			name:    "Configuration",
			status:  "error",
			message: fmt.Sprintf("Failed to load: %v", err),
		}, nil
	}
	if _, err := os.Stat(configFile); errors.Is(err, os.ErrNotExist) {
		return checkResult{name: "Configuration", status: "ok", message: "Using defaults (no config file)"}, cfg
	}
	return checkResult{name: "Configuration", status: "ok", message: configFile}, cfg
}

// checkIndex reports whether the index at dbPath exists and has teams.
// A missing index is not created.
func checkIndex(ctx context.Context, dbPath string) checkResult {
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return checkResult{
			name:    "Search index",
			status:  "warn",
			message: fmt.Sprintf("Missing: %s. Run 'teamseek index <workspace.yaml>'.", dbPath),
		}
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return checkResult{name: "Search index", status: "error", message: err.Error()}
	}
	defer store.Close()

	teams, err := store.Teams(ctx)
	if err != nil {
		return checkResult{name: "Search index", status: "error", message: err.Error()}
	}
	if len(teams) == 0 {
		return checkResult{
			name:    "Search index",
			status:  "warn",
			message: "No teams indexed. Run 'teamseek index <workspace.yaml>'.",
		}
	}

	labels := make([]string, len(teams))
	for i, t := range teams {
		labels[i] = t.Label()
	}
	return checkResult{
		name:    "Search index",
		status:  "ok",
		message: fmt.Sprintf("%d teams (%s)", len(teams), strings.Join(labels, ", ")),
	}
}

func checkTerminal() checkResult {
	if err := checkTERM(); err != nil {
		return checkResult{name: "Terminal", status: "warn", message: err.Error()}
	}
	if w := terminalWidth(); w < minTermWidth {
		return checkResult{
			name:    "Terminal",
			status:  "warn",
			message: fmt.Sprintf("%d columns; the search screen needs at least %d", w, minTermWidth),
		}
	}
	return checkResult{name: "Terminal", status: "ok", message: fmt.Sprintf("TERM=%s", os.Getenv("TERM"))}
}
