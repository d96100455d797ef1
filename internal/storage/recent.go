package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrRecentNotFound is returned when removing a term that is not in the log.
var ErrRecentNotFound = errors.New("recent search not found")

// recentRetention is how many recent searches are kept per team.
const recentRetention = 50

// AppendRecent records term as the team's most recent search. Repeating a
// term moves it to the front instead of adding a duplicate.
func (s *SQLiteStore) AppendRecent(ctx context.Context, teamID, term string) error {
	term = strings.TrimSpace(term)
	if teamID == "" {
		return errors.New("storage: team_id is required")
	}
	if term == "" {
		return errors.New("storage: term is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Timestamps are strictly increasing per team so ordering is stable even
	// when two searches land in the same millisecond.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO recent_searches (id, team_id, term, searched_at_unix_ms)
		VALUES (?, ?, ?, MAX(?, COALESCE(
			(SELECT MAX(searched_at_unix_ms) FROM recent_searches WHERE team_id = ?), 0) + 1))
		ON CONFLICT (team_id, term) DO UPDATE SET
			searched_at_unix_ms = excluded.searched_at_unix_ms
	`, uuid.NewString(), teamID, term, time.Now().UnixMilli(), teamID)
	if err != nil {
		return fmt.Errorf("storage: append recent search: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM recent_searches
		WHERE team_id = ? AND id NOT IN (
			SELECT id FROM recent_searches WHERE team_id = ?
			ORDER BY searched_at_unix_ms DESC LIMIT ?
		)
	`, teamID, teamID, recentRetention)
	if err != nil {
		return fmt.Errorf("storage: prune recent searches: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit recent search: %w", err)
	}
	return nil
}

// RecentSearches returns up to limit of the team's recent searches, newest
// first. A limit <= 0 returns all retained entries.
func (s *SQLiteStore) RecentSearches(ctx context.Context, teamID string, limit int) ([]RecentSearch, error) {
	if limit <= 0 {
		limit = recentRetention
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, team_id, term, searched_at_unix_ms
		FROM recent_searches
		WHERE team_id = ?
		ORDER BY searched_at_unix_ms DESC
		LIMIT ?
	`, teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: query recent searches: %w", err)
	}
	defer rows.Close()

	recents := []RecentSearch{}
	for rows.Next() {
		var r RecentSearch
		if err := rows.Scan(&r.ID, &r.TeamID, &r.Term, &r.SearchedAtUnixMs); err != nil {
			return nil, fmt.Errorf("storage: scan recent search: %w", err)
		}
		recents = append(recents, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate recent searches: %w", err)
	}
	return recents, nil
}

// RemoveRecent deletes term from the team's log.
func (s *SQLiteStore) RemoveRecent(ctx context.Context, teamID, term string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM recent_searches WHERE team_id = ? AND term = ?
	`, teamID, strings.TrimSpace(term))
	if err != nil {
		return fmt.Errorf("storage: remove recent search: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRecentNotFound
	}
	return nil
}
