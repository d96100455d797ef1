package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/runger/teamseek/internal/query"
	"github.com/runger/teamseek/internal/search"
	"github.com/runger/teamseek/internal/session"
	"github.com/runger/teamseek/internal/storage"
	"github.com/runger/teamseek/internal/tui"
)

var (
	searchJSON   bool
	searchFilter string
)

var searchCmd = &cobra.Command{
	Use:     "search <term>",
	Short:   "Search messages and files without the interactive screen",
	GroupID: groupCore,
	Long: `Search messages and files in one team and print the results.

The search runs exactly like the interactive screen: messages and files
are fetched together and printed once both have arrived. --filter then
narrows the files to one type.

Modifiers:
  from:<user>      only posts and files by a user
  in:<channel>     only one channel
  ext:<type>       only files with an extension
  "a phrase"       match words together

Examples:
  teamseek search release notes             # Search the default team
  teamseek search --team ops rollback        # Search another team
  teamseek search --filter documents budget  # Only document files
  teamseek search --json "from:alice"        # Output as JSON`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVarP(&searchFilter, "filter", "f", "all", "file type: all, documents, spreadsheets, presentations, code, images, audio, video")

	rootCmd.AddCommand(searchCmd)
}

type messageOutput struct {
	PostID   string `json:"post_id"`
	Channel  string `json:"channel"`
	Author   string `json:"author"`
	Message  string `json:"message"`
	CreateAt int64  `json:"create_at"`
}

type searchResponse struct {
	Term           string            `json:"term"`
	TeamID         string            `json:"team_id"`
	Filter         string            `json:"filter"`
	Messages       []messageOutput   `json:"messages"`
	Files          []search.FileInfo `json:"files"`
	FileChannelIDs []string          `json:"file_channel_ids"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	applyColorMode()

	filter, err := query.ParseFileFilter(searchFilter)
	if err != nil {
		return err
	}

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

	ctrl := a.newController(team.TeamID, nil)
	defer ctrl.Close()

	if err := ctrl.Submit(ctx, strings.Join(args, " ")); err != nil {
		return err
	}
	if ctrl.Snapshot().Phase != session.Results {
		return errors.New("nothing to search for")
	}
	if filter != query.All {
		if err := ctrl.ChangeFilter(ctx, filter); err != nil {
			return err
		}
	}

	snap := ctrl.Snapshot()
	posts, err := a.store.PostsByID(ctx, snap.Results.PostIDs)
	if err != nil {
		return err
	}

	if searchJSON {
		return writeSearchJSON(snap, posts)
	}
	printSearch(snap, team, posts)
	return nil
}

func writeSearchJSON(snap session.Snapshot, posts []storage.Post) error {
	msgs := make([]messageOutput, len(posts))
	for i, p := range posts {
		msgs[i] = messageOutput{
			PostID:   p.PostID,
			Channel:  p.ChannelName,
			Author:   p.Author,
			Message:  p.Message,
			CreateAt: p.CreateAtUnixMs,
		}
	}

	resp := searchResponse{
		Term:           snap.Query.Term,
		TeamID:         snap.TeamID,
		Filter:         snap.Query.Filter.String(),
		Messages:       msgs,
		Files:          snap.Results.Files,
		FileChannelIDs: snap.Results.FileChannelIDs,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}

func printSearch(snap session.Snapshot, team storage.Team, posts []storage.Post) {
	width := terminalWidth()

	fmt.Printf("%sMessages%s (%d) in %s\n", colorBold, colorReset, len(posts), team.Label())
	if len(posts) == 0 {
		fmt.Printf("  %sNo messages match.%s\n", colorDim, colorReset)
	}
	for _, p := range posts {
		when := time.UnixMilli(p.CreateAtUnixMs).UTC().Format("2006-01-02 15:04")
		prefix := fmt.Sprintf("  #%s  %s  %s  ", p.ChannelName, when, p.Author)
		fmt.Printf("%s%s%s%s\n", colorCyan, prefix, colorReset, tui.EndTruncate(tui.Flatten(p.Message), width-len(prefix)))
	}

	fmt.Println()
	fmt.Printf("%sFiles%s (%d, %s)\n", colorBold, colorReset, len(snap.Results.Files), snap.Query.Filter.Label())
	if len(snap.Results.Files) == 0 {
		fmt.Printf("  %sNo files match.%s\n", colorDim, colorReset)
	}
	for _, f := range snap.Results.Files {
		meta := fmt.Sprintf("  %s  %s", humanize.Bytes(uint64(max(f.Size, 0))), f.Author)
		fmt.Printf("  %s%s%s%s\n", colorGreen, tui.MiddleTruncate(tui.Flatten(f.Name), width-len(meta)-2), colorReset, meta)
	}
}
