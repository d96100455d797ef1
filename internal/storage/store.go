// Package storage provides the SQLite-backed local search index for teamseek.
// It serves message and file searches and keeps the per-team recent-search
// log written by the search session.
package storage

import (
	"context"

	"github.com/runger/teamseek/internal/search"
)

// Store defines the interface for all storage operations.
type Store interface {
	// Search backends
	search.MessageFetcher
	search.FileFetcher

	// Recent searches
	search.HistorySink
	RecentSearches(ctx context.Context, teamID string, limit int) ([]RecentSearch, error)
	RemoveRecent(ctx context.Context, teamID, term string) error

	// Workspace
	Teams(ctx context.Context) ([]Team, error)
	Channels(ctx context.Context, teamID string) ([]Channel, error)
	PostsByID(ctx context.Context, ids []string) ([]Post, error)

	// Import
	ImportFixture(ctx context.Context, f *Fixture) (ImportStats, error)

	// Lifecycle
	Close() error
}

// Team is a workspace team.
type Team struct {
	TeamID      string
	Name        string
	DisplayName string
}

// Label returns the display name, falling back to the team name.
func (t Team) Label() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Name
}

// Channel is a channel within a team. DeletedAtUnixMs is zero for live
// channels.
type Channel struct {
	ChannelID       string
	TeamID          string
	Name            string
	DisplayName     string
	DeletedAtUnixMs int64
}

// Post is a message in a channel.
type Post struct {
	PostID         string
	ChannelID      string
	ChannelName    string
	Author         string
	Message        string
	CreateAtUnixMs int64
}

// RecentSearch is one entry in a team's recent-search log.
type RecentSearch struct {
	ID               string
	TeamID           string
	Term             string
	SearchedAtUnixMs int64
}

// ImportStats counts rows written by an import.
type ImportStats struct {
	Teams    int
	Channels int
	Posts    int
	Files    int
}
