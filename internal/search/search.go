// Package search defines the data types and collaborator interfaces shared by
// the session controller and the backends that serve it.
package search

import (
	"context"

	"github.com/runger/teamseek/internal/query"
)

// FileInfo describes a file attachment matched by a search.
type FileInfo struct {
	ID          string `json:"id"`
	PostID      string `json:"post_id,omitempty"`
	ChannelID   string `json:"channel_id"`
	Name        string `json:"name"`
	Extension   string `json:"extension"`
	Size        int64  `json:"size"`
	MimeType    string `json:"mime_type,omitempty"`
	Author      string `json:"author,omitempty"`
	CreateAtUTC int64  `json:"create_at"`
}

// MessageResult is the response of a message fetch. Order is the
// relevance order of matching post IDs as returned by the backend.
type MessageResult struct {
	Order []string
}

// FileResult is the response of a file fetch. ChannelIDs lists the
// channels the files were posted in and is used only for display.
type FileResult struct {
	Files      []FileInfo
	ChannelIDs []string
}

// ResultSet is one authoritative set of search results.
type ResultSet struct {
	PostIDs        []string   `json:"post_ids"`
	Files          []FileInfo `json:"files"`
	FileChannelIDs []string   `json:"file_channel_ids"`
}

// EmptyResultSet returns a result set whose sequences are empty but non-nil.
func EmptyResultSet() ResultSet {
	return ResultSet{
		PostIDs:        []string{},
		Files:          []FileInfo{},
		FileChannelIDs: []string{},
	}
}

// MessageFetcher fetches post IDs matching an effective query.
type MessageFetcher interface {
	FetchMessages(ctx context.Context, teamID string, q query.Effective) (MessageResult, error)
}

// FileFetcher fetches files matching an effective query.
type FileFetcher interface {
	FetchFiles(ctx context.Context, teamID string, q query.Effective) (FileResult, error)
}

// HistorySink records submitted searches per team.
type HistorySink interface {
	AppendRecent(ctx context.Context, teamID, term string) error
}

// NormalizeStrings returns s, or an empty non-nil slice when s is nil.
func NormalizeStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// NormalizeFiles returns f, or an empty non-nil slice when f is nil.
func NormalizeFiles(f []FileInfo) []FileInfo {
	if f == nil {
		return []FileInfo{}
	}
	return f
}
