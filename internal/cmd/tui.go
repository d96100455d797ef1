package cmd

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/runger/teamseek/internal/config"
	"github.com/runger/teamseek/internal/log"
	"github.com/runger/teamseek/internal/tui"
)

// minTermWidth is the narrowest terminal the search screen supports.
const minTermWidth = 40

// runTUI opens the interactive search screen.
func runTUI(cmd *cobra.Command, args []string) error {
	if err := checkTERM(); err != nil {
		return err
	}
	tty, err := openTTY()
	if err != nil {
		return err
	}
	if tty != nil {
		defer tty.Close()
	}

	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := commandContext(cmd)
	team, err := a.resolveTeam(ctx, teamFlag)
	if err != nil {
		return err
	}

	log.LogStartup(a.logger, log.StartupInfo{
		Version:      Version,
		ConfigPath:   config.DefaultPaths().ConfigFile(),
		DatabasePath: a.cfg.DatabasePath(),
		TeamID:       team.TeamID,
		PID:          os.Getpid(),
	})

	var notifier tui.Notifier
	ctrl := a.newController(team.TeamID, notifier.Notify)
	defer ctrl.Close()

	model := tui.NewModel(ctx, ctrl, a.store).
		WithRecentLimit(a.cfg.Search.RecentLimit).
		WithLogger(a.logger)
	if term := strings.TrimSpace(strings.Join(args, " ")); term != "" {
		model = model.WithQuery(term)
	}

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if tty != nil {
		// Detect the color profile from the tty itself; stdout may be a pipe.
		lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())
		opts = append(opts, tea.WithInput(tty), tea.WithOutput(tty))
	}

	p := tea.NewProgram(model, opts...)
	notifier.Attach(p)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// checkTERM verifies that the TERM environment variable is not "dumb".
func checkTERM() error {
	if os.Getenv("TERM") == "dumb" {
		return fmt.Errorf("TERM=dumb is not supported; use 'teamseek search' instead")
	}
	return nil
}
