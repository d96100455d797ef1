package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

const (
	groupCore  = "core"
	groupSetup = "setup"
)

// teamFlag selects the team to search, by ID or name.
var teamFlag string

var rootCmd = &cobra.Command{
	Use:   "teamseek [term]",
	Short: "search your team's messages and files from the terminal",
	Long: `teamseek - search your team's messages and files from the terminal
  - one search runs over messages and files together
  - recent searches, file type filters, team switching

Run without a subcommand to open the interactive search screen.
A term given on the command line is searched right away.`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runTUI,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupCore, Title: "Search Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)
	rootCmd.PersistentFlags().StringVar(&teamFlag, "team", "", "team ID or name (default: search.default_team, then the first indexed team)")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "color output: auto, always, or never")

	rootCmd.AddCommand(versionCmd)
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
