package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Fixture is a workspace snapshot loaded into the local index. Entries
// without an ID get a generated one.
type Fixture struct {
	Teams []FixtureTeam `yaml:"teams"`
}

// FixtureTeam is a team and its channels.
type FixtureTeam struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	DisplayName string           `yaml:"display_name"`
	Channels    []FixtureChannel `yaml:"channels"`
}

// FixtureChannel is a channel and its posts.
type FixtureChannel struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	DisplayName string        `yaml:"display_name"`
	DeletedAt   time.Time     `yaml:"deleted_at"`
	Posts       []FixturePost `yaml:"posts"`
}

// FixturePost is a message and its attachments.
type FixturePost struct {
	ID       string        `yaml:"id"`
	Author   string        `yaml:"author"`
	Message  string        `yaml:"message"`
	CreateAt time.Time     `yaml:"create_at"`
	Files    []FixtureFile `yaml:"files"`
}

// FixtureFile is a file attached to a post.
type FixtureFile struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Size     int64  `yaml:"size"`
	MimeType string `yaml:"mime_type"`
}

// LoadFixture reads a YAML fixture from path.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("storage: parse fixture: %w", err)
	}
	return &f, nil
}

// ImportFixture upserts every team, channel, post, and file in f in a single
// transaction.
func (s *SQLiteStore) ImportFixture(ctx context.Context, f *Fixture) (ImportStats, error) {
	var stats ImportStats
	if f == nil {
		return stats, errors.New("storage: fixture cannot be nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("storage: begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	for _, team := range f.Teams {
		teamID, err := importTeam(ctx, tx, team)
		if err != nil {
			return ImportStats{}, err
		}
		stats.Teams++

		for _, ch := range team.Channels {
			channelID, err := importChannel(ctx, tx, teamID, ch)
			if err != nil {
				return ImportStats{}, err
			}
			stats.Channels++

			for i, post := range ch.Posts {
				ts := unixMsOr(post.CreateAt, now+int64(i))
				postID, err := importPost(ctx, tx, channelID, post, ts)
				if err != nil {
					return ImportStats{}, err
				}
				stats.Posts++

				for _, file := range post.Files {
					if err := importFile(ctx, tx, channelID, postID, post.Author, file, ts); err != nil {
						return ImportStats{}, err
					}
					stats.Files++
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportStats{}, fmt.Errorf("storage: commit import: %w", err)
	}
	return stats, nil
}

func importTeam(ctx context.Context, tx *sql.Tx, t FixtureTeam) (string, error) {
	if t.Name == "" {
		return "", errors.New("storage: team name is required")
	}
	id := idOrNew(t.ID)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO teams (team_id, name, display_name) VALUES (?, ?, ?)
		ON CONFLICT (team_id) DO UPDATE SET
			name = excluded.name,
			display_name = excluded.display_name
	`, id, t.Name, t.DisplayName)
	if err != nil {
		return "", fmt.Errorf("storage: import team %s: %w", t.Name, err)
	}
	return id, nil
}

func importChannel(ctx context.Context, tx *sql.Tx, teamID string, c FixtureChannel) (string, error) {
	if c.Name == "" {
		return "", errors.New("storage: channel name is required")
	}
	id := idOrNew(c.ID)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO channels (channel_id, team_id, name, display_name, deleted_at_unix_ms)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (channel_id) DO UPDATE SET
			team_id = excluded.team_id,
			name = excluded.name,
			display_name = excluded.display_name,
			deleted_at_unix_ms = excluded.deleted_at_unix_ms
	`, id, teamID, c.Name, c.DisplayName, unixMsOr(c.DeletedAt, 0))
	if err != nil {
		return "", fmt.Errorf("storage: import channel %s: %w", c.Name, err)
	}
	return id, nil
}

func importPost(ctx context.Context, tx *sql.Tx, channelID string, p FixturePost, ts int64) (string, error) {
	id := idOrNew(p.ID)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO posts (post_id, channel_id, author, message, message_norm, create_at_unix_ms)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (post_id) DO UPDATE SET
			channel_id = excluded.channel_id,
			author = excluded.author,
			message = excluded.message,
			message_norm = excluded.message_norm,
			create_at_unix_ms = excluded.create_at_unix_ms
	`, id, channelID, p.Author, p.Message, strings.ToLower(p.Message), ts)
	if err != nil {
		return "", fmt.Errorf("storage: import post %s: %w", id, err)
	}
	return id, nil
}

func importFile(ctx context.Context, tx *sql.Tx, channelID, postID, author string, f FixtureFile, ts int64) error {
	if f.Name == "" {
		return errors.New("storage: file name is required")
	}
	id := idOrNew(f.ID)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO files (
			file_id, post_id, channel_id, author, name, name_norm,
			extension, size, mime_type, create_at_unix_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (file_id) DO UPDATE SET
			post_id = excluded.post_id,
			channel_id = excluded.channel_id,
			author = excluded.author,
			name = excluded.name,
			name_norm = excluded.name_norm,
			extension = excluded.extension,
			size = excluded.size,
			mime_type = excluded.mime_type,
			create_at_unix_ms = excluded.create_at_unix_ms
	`, id, postID, channelID, author, f.Name, strings.ToLower(f.Name),
		FileExtension(f.Name), f.Size, f.MimeType, ts)
	if err != nil {
		return fmt.Errorf("storage: import file %s: %w", f.Name, err)
	}
	return nil
}

// FileExtension returns the lowercased extension of name without the dot.
func FileExtension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

func idOrNew(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func unixMsOr(t time.Time, fallback int64) int64 {
	if t.IsZero() {
		return fallback
	}
	return t.UnixMilli()
}
