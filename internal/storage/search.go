package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/runger/teamseek/internal/query"
	"github.com/runger/teamseek/internal/search"
)

// FetchMessages returns IDs of posts in teamID matching q, newest first.
// ext: modifiers do not apply to posts.
func (s *SQLiteStore) FetchMessages(ctx context.Context, teamID string, q query.Effective) (search.MessageResult, error) {
	if teamID == "" {
		return search.MessageResult{}, errors.New("storage: team_id is required")
	}
	m := parseMatcher(q)
	if len(m.words) == 0 && len(m.channels) == 0 && len(m.authors) == 0 {
		return search.MessageResult{Order: []string{}}, nil
	}

	where := []string{"c.team_id = ?"}
	args := []any{teamID}
	if !s.includeDeleted {
		where = append(where, "c.deleted_at_unix_ms = 0")
	}
	where, args = m.clause("p.message_norm", "", "p.author", where, args)

	stmt := `
		SELECT p.post_id
		FROM posts p
		JOIN channels c ON c.channel_id = p.channel_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY p.create_at_unix_ms DESC, p.post_id
		LIMIT ?`
	args = append(args, s.resultLimit)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return search.MessageResult{}, fmt.Errorf("storage: query posts: %w", err)
	}
	defer rows.Close()

	order := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return search.MessageResult{}, fmt.Errorf("storage: scan post: %w", err)
		}
		order = append(order, id)
	}
	if err := rows.Err(); err != nil {
		return search.MessageResult{}, fmt.Errorf("storage: iterate posts: %w", err)
	}
	return search.MessageResult{Order: order}, nil
}

// FetchFiles returns files in teamID matching q, newest first, along with
// the distinct channels they were posted in, in order of first appearance.
func (s *SQLiteStore) FetchFiles(ctx context.Context, teamID string, q query.Effective) (search.FileResult, error) {
	if teamID == "" {
		return search.FileResult{}, errors.New("storage: team_id is required")
	}
	empty := search.FileResult{Files: []search.FileInfo{}, ChannelIDs: []string{}}
	m := parseMatcher(q)
	if m.empty() {
		return empty, nil
	}

	where := []string{"c.team_id = ?"}
	args := []any{teamID}
	if !s.includeDeleted {
		where = append(where, "c.deleted_at_unix_ms = 0")
	}
	where, args = m.clause("f.name_norm", "f.extension", "f.author", where, args)

	stmt := `
		SELECT f.file_id, COALESCE(f.post_id, ''), f.channel_id, f.name, f.extension,
		       f.size, f.mime_type, f.author, f.create_at_unix_ms
		FROM files f
		JOIN channels c ON c.channel_id = f.channel_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY f.create_at_unix_ms DESC, f.file_id
		LIMIT ?`
	args = append(args, s.resultLimit)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return search.FileResult{}, fmt.Errorf("storage: query files: %w", err)
	}
	defer rows.Close()

	res := empty
	seen := make(map[string]bool)
	for rows.Next() {
		var f search.FileInfo
		err := rows.Scan(
			&f.ID,
			&f.PostID,
			&f.ChannelID,
			&f.Name,
			&f.Extension,
			&f.Size,
			&f.MimeType,
			&f.Author,
			&f.CreateAtUTC,
		)
		if err != nil {
			return search.FileResult{}, fmt.Errorf("storage: scan file: %w", err)
		}
		res.Files = append(res.Files, f)
		if !seen[f.ChannelID] {
			seen[f.ChannelID] = true
			res.ChannelIDs = append(res.ChannelIDs, f.ChannelID)
		}
	}
	if err := rows.Err(); err != nil {
		return search.FileResult{}, fmt.Errorf("storage: iterate files: %w", err)
	}
	return res, nil
}

// PostsByID returns the posts with the given IDs, in the order given.
// Unknown IDs are skipped.
func (s *SQLiteStore) PostsByID(ctx context.Context, ids []string) ([]Post, error) {
	if len(ids) == 0 {
		return []Post{}, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.post_id, p.channel_id, c.name, p.author, p.message, p.create_at_unix_ms
		FROM posts p
		JOIN channels c ON c.channel_id = p.channel_id
		WHERE p.post_id IN (`+placeholders(len(ids))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: query posts by id: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]Post, len(ids))
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.PostID, &p.ChannelID, &p.ChannelName, &p.Author, &p.Message, &p.CreateAtUnixMs); err != nil {
			return nil, fmt.Errorf("storage: scan post: %w", err)
		}
		byID[p.PostID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate posts: %w", err)
	}

	posts := make([]Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			posts = append(posts, p)
		}
	}
	return posts, nil
}
