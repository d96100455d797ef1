package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/runger/teamseek/internal/storage"
)

var (
	historyLimit  int
	historyRemove string
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "Show or edit recent searches",
	GroupID: groupCore,
	Long: `Show the recent searches of one team, newest first.

Searches are recorded when they are submitted, either on the interactive
screen or with 'teamseek search'. Switching teams or retrying a failed
search does not add an entry.

Examples:
  teamseek history                    # Recent searches in the default team
  teamseek history --team ops -n 50   # Up to 50 searches in team ops
  teamseek history --remove "budget"  # Forget one search`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of searches to show (0 for all)")
	historyCmd.Flags().StringVar(&historyRemove, "remove", "", "Forget the given search term")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	applyColorMode()

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := commandContext(cmd)
	team, err := a.resolveTeam(ctx, teamFlag)
	if err != nil {
		return err
	}

	if historyRemove != "" {
		if err := a.store.RemoveRecent(ctx, team.TeamID, historyRemove); err != nil {
			if errors.Is(err, storage.ErrRecentNotFound) {
				return fmt.Errorf("no recent search %q in %s", historyRemove, team.Label())
			}
			return err
		}
		fmt.Printf("Removed %q from %s\n", historyRemove, team.Label())
		return nil
	}

	recents, err := a.store.RecentSearches(ctx, team.TeamID, historyLimit)
	if err != nil {
		return err
	}
	if len(recents) == 0 {
		fmt.Printf("No recent searches in %s.\n", team.Label())
		return nil
	}

	for _, r := range recents {
		when := humanize.Time(time.UnixMilli(r.SearchedAtUnixMs))
		fmt.Printf("%s  %s%s%s\n", r.Term, colorDim, when, colorReset)
	}
	return nil
}
