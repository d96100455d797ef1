// Package tui renders a search session in the terminal. It holds no search
// logic of its own: keys become controller operations, and every frame is
// drawn from the controller's latest snapshot.
package tui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runger/teamseek/internal/session"
	"github.com/runger/teamseek/internal/storage"
)

// defaultRecentLimit is how many recent searches the initial view lists.
const defaultRecentLimit = 5

// Workspace is the read side of the local index the screen needs beyond
// what the controller publishes.
type Workspace interface {
	RecentSearches(ctx context.Context, teamID string, limit int) ([]storage.RecentSearch, error)
	RemoveRecent(ctx context.Context, teamID, term string) error
	Teams(ctx context.Context) ([]storage.Team, error)
	PostsByID(ctx context.Context, ids []string) ([]storage.Post, error)
}

// opDoneMsg is sent when a blocking controller operation returns.
type opDoneMsg struct {
	op  string
	err error
}

type recentsLoadedMsg struct {
	teamID  string
	recents []storage.RecentSearch
	err     error
}

type teamsLoadedMsg struct {
	teams []storage.Team
	err   error
}

type postsLoadedMsg struct {
	generation uint64
	posts      []storage.Post
	err        error
}

// Model is the Bubble Tea model for the search screen.
type Model struct {
	ctx    context.Context
	ctrl   *session.Controller
	ws     Workspace
	logger *slog.Logger
	keys   keyMap

	input   textinput.Model
	spinner spinner.Model

	snap     session.Snapshot
	recents  []storage.RecentSearch
	teams    []storage.Team
	posts    []storage.Post
	postsGen uint64

	recentLimit  int
	initialQuery string

	selection int // index into the visible list; -1 when empty
	scroll    int // first visible list row

	width  int
	height int

	notice   string // last non-session error, shown in the status line
	quitting bool
}

// NewModel creates the search screen for ctrl. Operations started from the
// screen run under ctx.
func NewModel(ctx context.Context, ctrl *session.Controller, ws Workspace) Model {
	ti := textinput.New()
	ti.Placeholder = "Search messages and files"
	ti.Prompt = "> "
	ti.PromptStyle = queryStyle
	ti.CharLimit = 512
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(dimStyle))

	return Model{
		ctx:         ctx,
		ctrl:        ctrl,
		ws:          ws,
		logger:      slog.New(slog.DiscardHandler),
		keys:        defaultKeyMap(),
		input:       ti,
		spinner:     sp,
		snap:        ctrl.Snapshot(),
		recentLimit: defaultRecentLimit,
		selection:   -1,
	}
}

// WithRecentLimit sets how many recent searches the initial view lists.
func (m Model) WithRecentLimit(n int) Model {
	if n > 0 {
		m.recentLimit = n
	}
	return m
}

// WithQuery pre-fills the input and submits it on start.
func (m Model) WithQuery(q string) Model {
	m.initialQuery = q
	m.input.SetValue(q)
	return m
}

// WithLogger sets the logger for errors the screen swallows.
func (m Model) WithLogger(logger *slog.Logger) Model {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Snapshot returns the session state the screen last rendered.
func (m Model) Snapshot() session.Snapshot {
	return m.snap
}

// Quitting reports whether the user asked to leave.
func (m Model) Quitting() bool {
	return m.quitting
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.loadTeams(), m.loadRecents()}
	if m.initialQuery != "" {
		term := m.initialQuery
		cmds = append(cmds, m.run("submit", func(ctx context.Context) error {
			return m.ctrl.SelectRecent(ctx, term)
		}))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	prev := m.snap
	m.snap = m.ctrl.Snapshot()

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m, cmd = m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)
		m.clampScroll()

	case SnapshotChangedMsg:
		// Snapshot already refreshed above.

	case opDoneMsg:
		m.handleOpDone(msg)

	case recentsLoadedMsg:
		m.handleRecents(msg)

	case teamsLoadedMsg:
		if msg.err != nil {
			m.notice = "Could not load teams: " + msg.err.Error()
		} else {
			m.teams = msg.teams
		}

	case postsLoadedMsg:
		if msg.generation == m.postsGen {
			if msg.err != nil {
				m.notice = "Could not load messages: " + msg.err.Error()
			}
			m.posts = msg.posts
			m.clampSelection()
		}

	case spinner.TickMsg:
		if m.snap.Busy() {
			m.spinner, cmd = m.spinner.Update(msg)
		}

	default:
		m.input, cmd = m.input.Update(msg)
	}

	if m.quitting {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.sync(prev))
}

// sync reacts to the difference between the last rendered snapshot and the
// current one.
func (m *Model) sync(prev session.Snapshot) tea.Cmd {
	m.snap = m.ctrl.Snapshot()
	cur := m.snap

	var cmds []tea.Cmd
	if cur.Text != prev.Text && cur.Text != m.input.Value() {
		m.input.SetValue(cur.Text)
		m.input.CursorEnd()
	}
	if cur.Phase != prev.Phase || cur.Tab != prev.Tab {
		m.selection = -1
		m.scroll = 0
		if cur.Phase == session.Idle {
			m.ctrl.Header().SetScrollOffset(0)
		}
	}
	if cur.Phase == session.Idle && (prev.Phase != session.Idle || cur.TeamID != prev.TeamID) {
		cmds = append(cmds, m.loadRecents())
	}
	if cur.Phase == session.Results && !cur.Filtering && cur.Generation != m.postsGen {
		m.postsGen = cur.Generation
		m.posts = nil
		cmds = append(cmds, m.loadPosts(cur.Generation, cur.Results.PostIDs))
	}
	if cur.Busy() && !prev.Busy() {
		cmds = append(cmds, m.spinner.Tick)
	}
	m.clampSelection()
	return tea.Batch(cmds...)
}

// handleKey maps a key press to a controller operation for the current phase.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.ctrl.Cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.snap.Phase == session.Idle && m.input.Value() == "" {
			m.quitting = true
			return m, tea.Quit
		}
		m.notice = ""
		m.input.SetValue("")
		m.ctrl.Cancel()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m, m.submit()

	case key.Matches(msg, m.keys.Up):
		m.move(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.move(1)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.move(-m.listHeight())
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.move(m.listHeight())
		return m, nil

	case key.Matches(msg, m.keys.NextTab):
		if m.snap.Phase == session.Results {
			next := session.Files
			if m.snap.Tab == session.Files {
				next = session.Messages
			}
			m.ctrl.SelectTab(next)
		}
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		if m.snap.Phase != session.Results {
			return m, nil
		}
		filter := m.snap.Query.Filter.Next()
		return m, m.run("filter", func(ctx context.Context) error {
			return m.ctrl.ChangeFilter(ctx, filter)
		})

	case key.Matches(msg, m.keys.Team):
		if m.snap.Phase != session.Results {
			return m, nil
		}
		teamID, ok := m.nextTeam()
		if !ok {
			return m, nil
		}
		return m, m.run("team", func(ctx context.Context) error {
			return m.ctrl.ChangeTeam(ctx, teamID)
		})

	case key.Matches(msg, m.keys.Retry):
		if m.snap.Phase != session.Failed {
			return m, nil
		}
		return m, m.run("retry", m.ctrl.Retry)

	case key.Matches(msg, m.keys.Remove):
		return m, m.removeSelectedRecent()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.ctrl.SetText(v)
	}
	return m, cmd
}

// submit searches for the input text, or for the highlighted recent search
// when the input is empty.
func (m *Model) submit() tea.Cmd {
	term := m.input.Value()
	if m.snap.Phase == session.Idle && term == "" {
		if r, ok := m.selectedRecent(); ok {
			return m.run("recent", func(ctx context.Context) error {
				return m.ctrl.SelectRecent(ctx, r.Term)
			})
		}
	}
	return m.run("submit", func(ctx context.Context) error {
		return m.ctrl.Submit(ctx, term)
	})
}

func (m *Model) handleOpDone(msg opDoneMsg) {
	switch {
	case msg.err == nil:
		m.notice = ""
	case errors.Is(msg.err, session.ErrSuperseded), errors.Is(msg.err, context.Canceled):
	case m.snap.Phase == session.Failed:
		// Rendered from the snapshot.
	default:
		m.notice = msg.err.Error()
		m.logger.Warn("search operation failed", "op", msg.op, "error", msg.err)
	}
}

func (m *Model) handleRecents(msg recentsLoadedMsg) {
	if msg.teamID != m.snap.TeamID {
		return
	}
	if msg.err != nil {
		m.notice = "Could not load recent searches: " + msg.err.Error()
		m.recents = nil
	} else {
		m.recents = msg.recents
	}
	m.clampSelection()
}

// run wraps a blocking controller operation as a command.
func (m Model) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) loadRecents() tea.Cmd {
	ctx, ws, teamID, limit := m.ctx, m.ws, m.snap.TeamID, m.recentLimit
	return func() tea.Msg {
		recents, err := ws.RecentSearches(ctx, teamID, limit)
		return recentsLoadedMsg{teamID: teamID, recents: recents, err: err}
	}
}

func (m Model) loadTeams() tea.Cmd {
	ctx, ws := m.ctx, m.ws
	return func() tea.Msg {
		teams, err := ws.Teams(ctx)
		return teamsLoadedMsg{teams: teams, err: err}
	}
}

func (m Model) loadPosts(gen uint64, ids []string) tea.Cmd {
	ctx, ws := m.ctx, m.ws
	return func() tea.Msg {
		posts, err := ws.PostsByID(ctx, ids)
		return postsLoadedMsg{generation: gen, posts: posts, err: err}
	}
}

func (m *Model) removeSelectedRecent() tea.Cmd {
	if m.snap.Phase != session.Idle {
		return nil
	}
	r, ok := m.selectedRecent()
	if !ok {
		return nil
	}
	ctx, ws := m.ctx, m.ws
	reload := m.loadRecents()
	return func() tea.Msg {
		if err := ws.RemoveRecent(ctx, r.TeamID, r.Term); err != nil && !errors.Is(err, storage.ErrRecentNotFound) {
			return recentsLoadedMsg{teamID: r.TeamID, err: err}
		}
		return reload()
	}
}

func (m Model) selectedRecent() (storage.RecentSearch, bool) {
	if m.snap.Phase != session.Idle || m.selection < 0 || m.selection >= len(m.recents) {
		return storage.RecentSearch{}, false
	}
	return m.recents[m.selection], true
}

// nextTeam returns the team after the active one, wrapping around.
func (m Model) nextTeam() (string, bool) {
	if len(m.teams) < 2 {
		return "", false
	}
	for i, t := range m.teams {
		if t.TeamID == m.snap.TeamID {
			return m.teams[(i+1)%len(m.teams)].TeamID, true
		}
	}
	return m.teams[0].TeamID, true
}

// teamLabel returns the display name of the active team.
func (m Model) teamLabel() string {
	for _, t := range m.teams {
		if t.TeamID == m.snap.TeamID {
			return t.Label()
		}
	}
	return m.snap.TeamID
}

// listLen returns the number of rows in the list the current view shows.
func (m Model) listLen() int {
	switch m.snap.Phase {
	case session.Idle:
		return len(m.recents)
	case session.Results:
		if m.snap.Tab == session.Files {
			return len(m.snap.Results.Files)
		}
		return len(m.posts)
	default:
		return 0
	}
}

// move shifts the selection by delta rows and scrolls to keep it visible.
// The scroll position feeds the header coordinator.
func (m *Model) move(delta int) {
	n := m.listLen()
	if n == 0 {
		return
	}
	m.selection += delta
	m.clampSelection()
	m.clampScroll()
}

func (m *Model) clampSelection() {
	n := m.listLen()
	if n == 0 {
		m.selection = -1
		return
	}
	if m.selection < 0 {
		m.selection = 0
	}
	if m.selection >= n {
		m.selection = n - 1
	}
}

func (m *Model) clampScroll() {
	rows := m.listHeight()
	if m.selection >= 0 {
		if m.selection < m.scroll {
			m.scroll = m.selection
		}
		if m.selection >= m.scroll+rows {
			m.scroll = m.selection - rows + 1
		}
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
	m.ctrl.Header().SetScrollOffset(float64(m.scroll))
}

// listHeight returns the number of list rows that fit under the header,
// input line, and status line.
func (m Model) listHeight() int {
	h := m.height - int(m.ctrl.Header().Params().NaturalHeight) - 2
	if h < 1 {
		h = 10 // before the first WindowSizeMsg
	}
	return h
}
