// Package session implements the search session controller: the state
// machine that runs message and file searches, joins their results, and
// locks the results header while results are on screen.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/runger/teamseek/internal/header"
	"github.com/runger/teamseek/internal/query"
	"github.com/runger/teamseek/internal/search"
)

// Options configures a Controller.
type Options struct {
	Messages search.MessageFetcher
	Files    search.FileFetcher
	History  search.HistorySink
	Header   *header.Coordinator
	TeamID   string
	Logger   *slog.Logger

	// OnChange is called after every published transition, outside the
	// controller's lock. It must not block; read Snapshot for the state.
	OnChange func()
}

// Controller owns a search session. All methods are safe for concurrent use.
//
// Each operation that dispatches fetches bumps a generation counter and
// cancels the previous operation's context. A completing fetch is applied
// only if its generation is still current, so a slow stale response can
// never overwrite newer results.
type Controller struct {
	messages search.MessageFetcher
	files    search.FileFetcher
	history  search.HistorySink
	header   *header.Coordinator
	logger   *slog.Logger
	onChange func()

	state atomic.Pointer[Snapshot]

	mu          sync.Mutex
	gen         uint64
	cancelFetch context.CancelFunc
	closed      bool

	pending sync.WaitGroup // history writes
}

// NewController creates a controller in the Idle phase.
func NewController(opts Options) *Controller {
	hdr := opts.Header
	if hdr == nil {
		hdr = header.New(header.Params{NaturalHeight: 3, CompactHeight: 1})
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Controller{
		messages: opts.Messages,
		files:    opts.Files,
		history:  opts.History,
		header:   hdr,
		logger:   logger,
		onChange: opts.OnChange,
	}
	c.state.Store(&Snapshot{
		Phase:   Idle,
		TeamID:  opts.TeamID,
		Results: search.EmptyResultSet(),
	})
	return c
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Snapshot {
	return *c.state.Load()
}

// Header returns the header coordinator driven by this session.
func (c *Controller) Header() *header.Coordinator {
	return c.header
}

// HeaderOffset returns the header height to draw for the current state.
func (c *Controller) HeaderOffset() float64 {
	return c.header.OffsetFor(c.Snapshot().Header)
}

// Submit searches for term in the active team with no file filter. A term
// that is blank after trimming cancels the session instead.
func (c *Controller) Submit(ctx context.Context, term string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	q := query.Search{Term: term, TeamID: c.current().TeamID, Filter: query.All}
	if q.Effective().IsEmpty() {
		c.cancelLocked()
		c.mu.Unlock()
		c.notify()
		return nil
	}
	gen, fctx := c.dispatchLocked(ctx, q)
	c.recordLocked(ctx, q)
	c.mu.Unlock()
	c.notify()

	return c.await(fctx, gen, q)
}

// SelectRecent shows term in the search input and submits it.
func (c *Controller) SelectRecent(ctx context.Context, term string) error {
	c.SetText(term)
	return c.Submit(ctx, term)
}

// ChangeTeam re-runs the current search against teamID. It is only valid
// while results are shown.
func (c *Controller) ChangeTeam(ctx context.Context, teamID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	cur := c.current()
	if cur.Phase != Results {
		c.mu.Unlock()
		return ErrNotInResults
	}
	q := query.Search{Term: cur.Query.Term, TeamID: teamID, Filter: query.All}
	gen, fctx := c.dispatchLocked(ctx, q)
	c.mu.Unlock()
	c.notify()

	return c.await(fctx, gen, q)
}

// Retry re-runs a failed search, filter included.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	cur := c.current()
	if cur.Phase != Failed {
		c.mu.Unlock()
		return ErrNotFailed
	}
	q := cur.Query
	gen, fctx := c.dispatchLocked(ctx, q)
	c.mu.Unlock()
	c.notify()

	return c.await(fctx, gen, q)
}

// ChangeFilter re-fetches files for the current term under filter. Message
// results and the selected tab are left untouched. It is only valid while
// results are shown.
func (c *Controller) ChangeFilter(ctx context.Context, filter query.FileFilter) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	cur := c.current()
	if cur.Phase != Results {
		c.mu.Unlock()
		return ErrNotInResults
	}
	q := cur.Query.WithFilter(filter)
	gen, fctx := c.beginLocked(ctx)
	next := cur
	next.Query = q
	next.Filtering = true
	c.publishLocked(next)
	c.mu.Unlock()
	c.notify()

	res, err := c.files.FetchFiles(fctx, q.TeamID, q.Effective())

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("discarding stale file results", "term", q.Term, "filter", q.Filter.String(), "generation", gen)
		return ErrSuperseded
	}
	c.endLocked()
	if err != nil {
		c.failLocked(q, err)
		c.mu.Unlock()
		c.notify()
		return fmt.Errorf("session: filter %s: %w", q.Filter, err)
	}
	next = c.current()
	next.Phase = Results
	next.Filtering = false
	next.Results = search.ResultSet{
		PostIDs:        next.Results.PostIDs,
		Files:          search.NormalizeFiles(res.Files),
		FileChannelIDs: search.NormalizeStrings(res.ChannelIDs),
	}
	c.publishLocked(next)
	c.mu.Unlock()
	c.notify()
	return nil
}

// Cancel returns the session to Idle, clearing the query, filter, results,
// and header lock. Any in-flight fetch is abandoned.
func (c *Controller) Cancel() {
	c.mu.Lock()
	c.cancelLocked()
	c.mu.Unlock()
	c.notify()
}

// SelectTab changes the emphasized result sequence.
func (c *Controller) SelectTab(tab Tab) {
	c.mu.Lock()
	next := c.current()
	if next.Tab == tab {
		c.mu.Unlock()
		return
	}
	next.Tab = tab
	c.publishLocked(next)
	c.mu.Unlock()
	c.notify()
}

// SetText updates the text shown in the search input.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	next := c.current()
	next.Text = text
	c.publishLocked(next)
	c.mu.Unlock()
	c.notify()
}

// Close abandons in-flight fetches and waits for pending history writes.
func (c *Controller) Close() error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.gen++
		c.endLocked()
	}
	c.mu.Unlock()
	c.pending.Wait()
	return nil
}

// dispatchLocked starts a full search for q and publishes Loading.
func (c *Controller) dispatchLocked(ctx context.Context, q query.Search) (uint64, context.Context) {
	gen, fctx := c.beginLocked(ctx)
	cur := c.current()
	c.publishLocked(Snapshot{
		Phase:   Loading,
		Query:   q,
		Text:    cur.Text,
		TeamID:  q.TeamID,
		Tab:     cur.Tab,
		Results: search.EmptyResultSet(),
		Header:  cur.Header,
	})
	return gen, fctx
}

// await joins both fetches for q and applies them if gen is still current.
func (c *Controller) await(ctx context.Context, gen uint64, q query.Search) error {
	rs, err := c.fetchAll(ctx, q)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("discarding stale results", "term", q.Term, "generation", gen)
		return ErrSuperseded
	}
	c.endLocked()
	if err != nil {
		c.failLocked(q, err)
		c.mu.Unlock()
		c.notify()
		return fmt.Errorf("session: search %q: %w", q.Term, err)
	}

	c.header.SnapTo(c.header.CollapseDistance())
	lock := c.header.Engage()

	next := c.current()
	next.Phase = Results
	next.Query = q
	next.Results = rs
	next.Filtering = false
	next.Err = nil
	next.Header = lock
	next.ListPadding = lock.CollapsedHeight
	c.publishLocked(next)
	c.mu.Unlock()
	c.notify()
	return nil
}

// fetchAll runs the message and file fetches concurrently and returns once
// both have finished.
func (c *Controller) fetchAll(ctx context.Context, q query.Search) (search.ResultSet, error) {
	eff := q.Effective()
	var (
		msgs  search.MessageResult
		files search.FileResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		msgs, err = c.messages.FetchMessages(gctx, q.TeamID, eff)
		if err != nil {
			return fmt.Errorf("messages: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		files, err = c.files.FetchFiles(gctx, q.TeamID, eff)
		if err != nil {
			return fmt.Errorf("files: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return search.ResultSet{}, err
	}
	return search.ResultSet{
		PostIDs:        search.NormalizeStrings(msgs.Order),
		Files:          search.NormalizeFiles(files.Files),
		FileChannelIDs: search.NormalizeStrings(files.ChannelIDs),
	}, nil
}

// recordLocked appends q to the history sink without waiting for it.
func (c *Controller) recordLocked(ctx context.Context, q query.Search) {
	if c.history == nil {
		return
	}
	c.pending.Add(1)
	hctx := context.WithoutCancel(ctx)
	go func() {
		defer c.pending.Done()
		if err := c.history.AppendRecent(hctx, q.TeamID, q.Term); err != nil {
			c.logger.Warn("failed to record recent search", "team_id", q.TeamID, "error", err)
		}
	}()
}

// beginLocked starts a new generation, cancelling the previous one's fetches.
func (c *Controller) beginLocked(ctx context.Context) (uint64, context.Context) {
	c.endLocked()
	c.gen++
	fctx, cancel := context.WithCancel(ctx)
	c.cancelFetch = cancel
	return c.gen, fctx
}

// endLocked releases the current generation's fetch context.
func (c *Controller) endLocked() {
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
}

func (c *Controller) cancelLocked() {
	c.gen++
	c.endLocked()
	cur := c.current()
	c.publishLocked(Snapshot{
		Phase:   Idle,
		TeamID:  cur.TeamID,
		Tab:     cur.Tab,
		Results: search.EmptyResultSet(),
	})
	c.header.Release()
}

func (c *Controller) failLocked(q query.Search, err error) {
	next := c.current()
	next.Phase = Failed
	next.Query = q
	next.Filtering = false
	next.Results = search.EmptyResultSet()
	next.Err = err
	c.publishLocked(next)
}

// current returns the published snapshot. Callers hold mu.
func (c *Controller) current() Snapshot {
	return *c.state.Load()
}

func (c *Controller) publishLocked(next Snapshot) {
	next.Generation = c.gen
	c.state.Store(&next)
	c.logger.Debug("session transition",
		"phase", next.Phase.String(),
		"term", next.Query.Term,
		"team_id", next.TeamID,
		"filter", next.Query.Filter.String(),
		"generation", next.Generation,
	)
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}
