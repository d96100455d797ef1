package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/runger/teamseek/internal/config"
	"github.com/runger/teamseek/internal/header"
	"github.com/runger/teamseek/internal/log"
	"github.com/runger/teamseek/internal/session"
	"github.com/runger/teamseek/internal/storage"
)

var errNoTeams = errors.New("no teams indexed yet; run 'teamseek index <workspace.yaml>' first")

// app bundles what every search command needs: configuration, the local
// index, and a logger.
type app struct {
	cfg     *config.Config
	store   *storage.SQLiteStore
	logger  *slog.Logger
	logFile *os.File
}

// openApp loads the configuration and opens the index. With logToFile the
// logger writes to the configured log file instead of stderr, which keeps
// full-screen output clean.
func openApp(logToFile bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	a := &app{cfg: cfg}

	var out io.Writer = os.Stderr
	if logToFile {
		f, err := log.OpenFile(cfg.LogFilePath())
		if err != nil {
			return nil, err
		}
		a.logFile = f
		out = f
	}
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		a.close()
		return nil, err
	}
	a.logger = log.New(&log.Config{Output: out, Level: level})

	store, err := storage.NewSQLiteStore(cfg.DatabasePath(),
		storage.WithResultLimit(cfg.Search.ResultLimit),
		storage.WithDeletedChannels(cfg.Search.IncludeDeletedChannels),
		storage.WithLogger(a.logger),
	)
	if err != nil {
		log.LogSQLiteError(a.logger, "open index", err)
		a.close()
		return nil, err
	}
	a.store = store
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// resolveTeam picks the team to search: want, then search.default_team,
// then the first indexed team. Teams match by ID or, case-insensitively,
// by name.
func (a *app) resolveTeam(ctx context.Context, want string) (storage.Team, error) {
	teams, err := a.store.Teams(ctx)
	if err != nil {
		return storage.Team{}, err
	}
	if len(teams) == 0 {
		return storage.Team{}, errNoTeams
	}
	if want == "" {
		want = a.cfg.Search.DefaultTeam
	}
	if want == "" {
		return teams[0], nil
	}
	for _, t := range teams {
		if t.TeamID == want || strings.EqualFold(t.Name, want) {
			return t, nil
		}
	}
	return storage.Team{}, fmt.Errorf("unknown team %q", want)
}

// newController creates a search session over the index for teamID.
func (a *app) newController(teamID string, onChange func()) *session.Controller {
	return session.NewController(session.Options{
		Messages: a.store,
		Files:    a.store,
		History:  a.store,
		Header: header.New(header.Params{
			NaturalHeight: a.cfg.Header.NaturalHeight,
			CompactHeight: a.cfg.Header.CompactHeight,
		}),
		TeamID:   teamID,
		Logger:   a.logger,
		OnChange: onChange,
	})
}
