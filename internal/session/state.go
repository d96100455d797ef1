package session

import (
	"errors"

	"github.com/runger/teamseek/internal/header"
	"github.com/runger/teamseek/internal/query"
	"github.com/runger/teamseek/internal/search"
)

// Phase is the lifecycle state of a search session.
type Phase int

const (
	Idle    Phase = iota // no search; initial view
	Loading              // fetches for Query in flight
	Results              // Results hold the answer to Query
	Failed               // a fetch for Query failed; Err holds the reason
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Results:
		return "results"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Tab selects which result sequence is emphasized.
type Tab int

const (
	Messages Tab = iota
	Files
)

func (t Tab) String() string {
	if t == Files {
		return "files"
	}
	return "messages"
}

// Snapshot is an immutable view of the session. A new Snapshot is published
// on every transition; readers never see a partially applied one.
type Snapshot struct {
	Phase Phase
	Query query.Search // zero while Idle

	Text   string // text shown in the search input
	TeamID string // active team
	Tab    Tab

	Results   search.ResultSet // meaningful while Phase == Results
	Filtering bool             // file fetch for a new filter in flight
	Err       error            // set while Phase == Failed

	Header      header.Lock
	ListPadding float64 // top padding for the result list

	Generation uint64
}

// Busy reports whether a loading indicator should be shown.
func (s Snapshot) Busy() bool {
	return s.Phase == Loading || s.Filtering
}

// Sentinel errors returned by controller operations.
var (
	ErrNotInResults = errors.New("session: operation requires results")
	ErrNotFailed    = errors.New("session: nothing to retry")
	ErrSuperseded   = errors.New("session: superseded by a newer search")
	ErrClosed       = errors.New("session: controller closed")
)
