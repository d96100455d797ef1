package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runger/teamseek/internal/log"
	"github.com/runger/teamseek/internal/storage"
)

var indexCmd = &cobra.Command{
	Use:     "index <workspace.yaml>",
	Short:   "Import teams, channels, posts, and files into the local index",
	GroupID: groupSetup,
	Long: `Import a workspace export into the local search index.

The file lists teams, their channels, and the posts and file attachments
in each channel. Rows are matched by ID, so importing the same file again
updates it in place.

Example workspace.yaml:
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
              message: Release notes for v1.2
              create_at: 2024-03-01T10:00:00Z
              files:
                - name: release-notes.pdf
                  size: 2048`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	applyColorMode()
	path := args[0]

	fixture, err := storage.LoadFixture(path)
	if err != nil {
		return err
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.store.ImportFixture(commandContext(cmd), fixture)
	if err != nil {
		log.LogSQLiteError(a.logger, "import", err)
		return err
	}
	log.LogIndexImported(a.logger, path, stats.Teams, stats.Posts, stats.Files)

	fmt.Printf("%sImported%s %d teams, %d channels, %d posts, %d files\n",
		colorGreen, colorReset, stats.Teams, stats.Channels, stats.Posts, stats.Files)
	fmt.Printf("Index: %s\n", a.cfg.DatabasePath())
	return nil
}
