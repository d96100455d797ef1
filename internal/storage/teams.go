package storage

import (
	"context"
	"fmt"
)

// Teams returns all indexed teams ordered by name.
func (s *SQLiteStore) Teams(ctx context.Context) ([]Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT team_id, name, display_name FROM teams ORDER BY name, team_id
	`)
	if err != nil {
		return nil, fmt.Errorf("storage: query teams: %w", err)
	}
	defer rows.Close()

	teams := []Team{}
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.TeamID, &t.Name, &t.DisplayName); err != nil {
			return nil, fmt.Errorf("storage: scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate teams: %w", err)
	}
	return teams, nil
}

// Channels returns the team's channels, archived ones included, ordered by
// name.
func (s *SQLiteStore) Channels(ctx context.Context, teamID string) ([]Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_id, team_id, name, display_name, deleted_at_unix_ms
		FROM channels
		WHERE team_id = ?
		ORDER BY name, channel_id
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("storage: query channels: %w", err)
	}
	defer rows.Close()

	channels := []Channel{}
	for rows.Next() {
		var c Channel
		if err := rows.Scan(&c.ChannelID, &c.TeamID, &c.Name, &c.DisplayName, &c.DeletedAtUnixMs); err != nil {
			return nil, fmt.Errorf("storage: scan channel: %w", err)
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate channels: %w", err)
	}
	return channels, nil
}
