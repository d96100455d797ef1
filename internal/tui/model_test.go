package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/teamseek/internal/header"
	"github.com/runger/teamseek/internal/query"
	"github.com/runger/teamseek/internal/search"
	"github.com/runger/teamseek/internal/session"
	"github.com/runger/teamseek/internal/storage"
)

// --- Fake workspace ---

type fakeIndex struct {
	mu sync.Mutex

	posts    map[string]storage.Post
	order    []string
	files    []search.FileInfo
	teams    []storage.Team
	recents  map[string][]storage.RecentSearch
	fetchErr error

	fileQueries []string
	teamQueries []string
	appended    []string
	removed     []string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		posts: map[string]storage.Post{
			"p1": {PostID: "p1", ChannelName: "release", Author: "alice", Message: "Release notes\nfor v1.2"},
			"p2": {PostID: "p2", ChannelName: "town-square", Author: "bob", Message: "Who has the release checklist?"},
		},
		order: []string{"p2", "p1"},
		files: []search.FileInfo{
			{ID: "f1", ChannelID: "c-release", Name: "release-notes.pdf", Extension: "pdf", Size: 2048, Author: "alice"},
		},
		teams: []storage.Team{
			{TeamID: "eng", Name: "engineering", DisplayName: "Engineering"},
			{TeamID: "ops", Name: "operations"},
		},
		recents: map[string][]storage.RecentSearch{
			"eng": {
				{ID: "r1", TeamID: "eng", Term: "deploy", SearchedAtUnixMs: time.Now().UnixMilli()},
				{ID: "r2", TeamID: "eng", Term: "incident review", SearchedAtUnixMs: time.Now().Add(-time.Hour).UnixMilli()},
			},
		},
	}
}

func (f *fakeIndex) FetchMessages(_ context.Context, teamID string, _ query.Effective) (search.MessageResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teamQueries = append(f.teamQueries, teamID)
	if f.fetchErr != nil {
		return search.MessageResult{}, f.fetchErr
	}
	return search.MessageResult{Order: f.order}, nil
}

func (f *fakeIndex) FetchFiles(_ context.Context, _ string, q query.Effective) (search.FileResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fileQueries = append(f.fileQueries, q.Terms)
	if f.fetchErr != nil {
		return search.FileResult{}, f.fetchErr
	}
	if strings.Contains(q.Terms, "ext:") && !strings.Contains(q.Terms, "ext:pdf") {
		return search.FileResult{}, nil
	}
	return search.FileResult{Files: f.files, ChannelIDs: []string{"c-release"}}, nil
}

func (f *fakeIndex) AppendRecent(_ context.Context, _ string, term string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, term)
	return nil
}

func (f *fakeIndex) RecentSearches(_ context.Context, teamID string, limit int) ([]storage.RecentSearch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]storage.RecentSearch(nil), f.recents[teamID]...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeIndex) RemoveRecent(_ context.Context, teamID, term string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, term)
	kept := f.recents[teamID][:0]
	for _, r := range f.recents[teamID] {
		if r.Term != term {
			kept = append(kept, r)
		}
	}
	f.recents[teamID] = kept
	return nil
}

func (f *fakeIndex) Teams(context.Context) ([]storage.Team, error) {
	return f.teams, nil
}

func (f *fakeIndex) PostsByID(_ context.Context, ids []string) ([]storage.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]storage.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.posts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeIndex) set(fn func(f *fakeIndex)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// --- Helpers ---

func newTestModel(t *testing.T, idx *fakeIndex) Model {
	t.Helper()
	ctrl := session.NewController(session.Options{
		Messages: idx,
		Files:    idx,
		History:  idx,
		Header:   header.New(header.Params{NaturalHeight: 4, CompactHeight: 1}),
		TeamID:   "eng",
	})
	t.Cleanup(func() { _ = ctrl.Close() })

	m := NewModel(context.Background(), ctrl, idx)
	m.input.Cursor.SetMode(cursor.CursorStatic)
	result, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return result.(Model)
}

// runWithin executes cmd, giving up on commands that sleep (cursor blink,
// spinner frames).
func runWithin(cmd tea.Cmd, d time.Duration) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(d):
		return nil
	}
}

// drive runs cmd and every command it leads to, feeding the screen's own
// messages back into the model until nothing is left.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200, "command loop did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := runWithin(next, 2*time.Second).(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case opDoneMsg, recentsLoadedMsg, teamsLoadedMsg, postsLoadedMsg:
			result, more := m.Update(msg)
			m = result.(Model)
			queue = append(queue, more)
		}
	}
	return m
}

func start(t *testing.T, m Model) Model {
	t.Helper()
	return drive(t, m, m.Init())
}

func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	result, cmd := m.Update(msg)
	return drive(t, result.(Model), cmd)
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	result, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return result.(Model)
}

func keyPress(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func searchFor(t *testing.T, m Model, term string) Model {
	t.Helper()
	m = typeText(t, m, term)
	return press(t, m, keyPress(tea.KeyEnter))
}

// --- Tests ---

func TestModel_InitialView(t *testing.T) {
	m := start(t, newTestModel(t, newFakeIndex()))

	assert.Equal(t, session.Idle, m.Snapshot().Phase)
	assert.Len(t, m.teams, 2)
	require.Len(t, m.recents, 2)
	assert.Equal(t, 0, m.selection)
	assert.Equal(t, 4, m.headerRows())

	view := m.View()
	assert.Contains(t, view, "Engineering")
	assert.Contains(t, view, "Recent searches")
	assert.Contains(t, view, "deploy")
	assert.Contains(t, view, "incident review")
	assert.Contains(t, view, "from:<user>")
	assert.Contains(t, view, "in:<channel>")
	assert.Contains(t, view, "ext:<type>")
}

func TestModel_TypingUpdatesSessionText(t *testing.T) {
	m := start(t, newTestModel(t, newFakeIndex()))

	m = typeText(t, m, "rel")
	assert.Equal(t, "rel", m.ctrl.Snapshot().Text)
	assert.Equal(t, session.Idle, m.ctrl.Snapshot().Phase)
}

func TestModel_SubmitShowsResults(t *testing.T) {
	idx := newFakeIndex()
	m := start(t, newTestModel(t, idx))

	m = searchFor(t, m, "release")

	snap := m.Snapshot()
	require.Equal(t, session.Results, snap.Phase)
	assert.Equal(t, "release", snap.Query.Term)
	assert.Equal(t, []string{"p2", "p1"}, snap.Results.PostIDs)
	require.Len(t, m.posts, 2)
	assert.Equal(t, 1, m.headerRows(), "results header stays compact")

	view := m.View()
	assert.Contains(t, view, "Messages 2")
	assert.Contains(t, view, "Files 1")
	assert.Contains(t, view, "Who has the release checklist?")
	assert.Contains(t, view, "Release notes for v1.2")
}

func TestModel_TabSwitchesToFiles(t *testing.T) {
	m := start(t, newTestModel(t, newFakeIndex()))
	m = searchFor(t, m, "release")

	m = press(t, m, keyPress(tea.KeyTab))
	assert.Equal(t, session.Files, m.Snapshot().Tab)
	assert.Contains(t, m.View(), "release-notes.pdf")
	assert.Contains(t, m.View(), "2.0 kB")

	m = press(t, m, keyPress(tea.KeyTab))
	assert.Equal(t, session.Messages, m.Snapshot().Tab)
}

func TestModel_FilterCyclesFileType(t *testing.T) {
	idx := newFakeIndex()
	m := start(t, newTestModel(t, idx))
	m = searchFor(t, m, "release")

	m = press(t, m, keyPress(tea.KeyCtrlF))

	snap := m.Snapshot()
	require.Equal(t, session.Results, snap.Phase)
	assert.Equal(t, query.All.Next(), snap.Query.Filter)
	assert.Equal(t, []string{"p2", "p1"}, snap.Results.PostIDs, "messages carry over")

	idx.mu.Lock()
	last := idx.fileQueries[len(idx.fileQueries)-1]
	idx.mu.Unlock()
	assert.Equal(t, query.Build("release", query.All.Next()).Terms, last)
}

func TestModel_FilterIgnoredOutsideResults(t *testing.T) {
	idx := newFakeIndex()
	m := start(t, newTestModel(t, idx))

	m = press(t, m, keyPress(tea.KeyCtrlF))
	assert.Equal(t, session.Idle, m.Snapshot().Phase)
	assert.Empty(t, idx.fileQueries)
}

func TestModel_TeamCycles(t *testing.T) {
	idx := newFakeIndex()
	m := start(t, newTestModel(t, idx))
	m = searchFor(t, m, "release")

	m = press(t, m, keyPress(tea.KeyCtrlT))
	assert.Equal(t, "ops", m.Snapshot().TeamID)
	assert.Equal(t, session.Results, m.Snapshot().Phase)
	assert.Contains(t, m.View(), "operations")

	m = press(t, m, keyPress(tea.KeyCtrlT))
	assert.Equal(t, "eng", m.Snapshot().TeamID)
}

func TestModel_FailureAndRetry(t *testing.T) {
	idx := newFakeIndex()
	idx.fetchErr = errors.New("index offline")
	m := start(t, newTestModel(t, idx))

	m = searchFor(t, m, "release")
	require.Equal(t, session.Failed, m.Snapshot().Phase)
	assert.Contains(t, m.View(), "Search failed")
	assert.Contains(t, m.View(), "index offline")
	assert.Empty(t, m.notice, "session failures render from the snapshot")

	idx.set(func(f *fakeIndex) { f.fetchErr = nil })
	m = press(t, m, keyPress(tea.KeyCtrlR))
	assert.Equal(t, session.Results, m.Snapshot().Phase)
	assert.Len(t, m.posts, 2)
}

func TestModel_EscClearsResults(t *testing.T) {
	m := start(t, newTestModel(t, newFakeIndex()))
	m = searchFor(t, m, "release")
	m = press(t, m, keyPress(tea.KeyDown))

	m = press(t, m, keyPress(tea.KeyEsc))

	snap := m.Snapshot()
	assert.Equal(t, session.Idle, snap.Phase)
	assert.Empty(t, snap.Text)
	assert.Empty(t, m.input.Value())
	assert.False(t, snap.Header.Locked)
	assert.Equal(t, 4, m.headerRows(), "header expands again at the top of the list")
	assert.False(t, m.Quitting())
}

func TestModel_EscOnEmptyIdleQuits(t *testing.T) {
	m := start(t, newTestModel(t, newFakeIndex()))

	result, cmd := m.Update(keyPress(tea.KeyEsc))
	m = result.(Model)
	assert.True(t, m.Quitting())
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_CtrlCQuitsAndCancels(t *testing.T) {
	m := start(t, newTestModel(t, newFakeIndex()))
	m = searchFor(t, m, "release")

	result, cmd := m.Update(keyPress(tea.KeyCtrlC))
	m = result.(Model)
	assert.True(t, m.Quitting())
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, session.Idle, m.ctrl.Snapshot().Phase)
}

func TestModel_EnterOnEmptyInputRunsRecent(t *testing.T) {
	idx := newFakeIndex()
	m := start(t, newTestModel(t, idx))

	m = press(t, m, keyPress(tea.KeyDown))
	require.Equal(t, 1, m.selection)
	m = press(t, m, keyPress(tea.KeyEnter))

	snap := m.Snapshot()
	require.Equal(t, session.Results, snap.Phase)
	assert.Equal(t, "incident review", snap.Query.Term)
	assert.Equal(t, "incident review", snap.Text)
	assert.Equal(t, "incident review", m.input.Value())
}

func TestModel_RemoveRecent(t *testing.T) {
	idx := newFakeIndex()
	m := start(t, newTestModel(t, idx))

	m = press(t, m, keyPress(tea.KeyCtrlD))

	assert.Equal(t, []string{"deploy"}, idx.removed)
	require.Len(t, m.recents, 1)
	assert.Equal(t, "incident review", m.recents[0].Term)
	assert.NotContains(t, m.View(), "deploy")
}

func TestModel_InitialQuerySubmits(t *testing.T) {
	idx := newFakeIndex()
	m := newTestModel(t, idx).WithQuery("release")

	m = start(t, m)
	assert.Equal(t, session.Results, m.Snapshot().Phase)
	assert.Equal(t, "release", m.Snapshot().Text)
}

func TestModel_ScrollFeedsHeader(t *testing.T) {
	idx := newFakeIndex()
	m := start(t, newTestModel(t, idx))
	result, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 7})
	m = result.(Model)
	require.Equal(t, 1, m.listHeight())

	m = press(t, m, keyPress(tea.KeyDown))
	assert.Equal(t, 1, m.scroll)
	assert.Equal(t, 1.0, m.ctrl.Header().ScrollOffset())
	assert.Equal(t, 3, m.headerRows(), "unlocked header follows the scroll")
}

func TestModel_StalePostsIgnored(t *testing.T) {
	m := start(t, newTestModel(t, newFakeIndex()))
	m = searchFor(t, m, "release")

	result, _ := m.Update(postsLoadedMsg{generation: m.postsGen - 1, posts: nil})
	m = result.(Model)
	assert.Len(t, m.posts, 2)
}

func TestModel_SupersededErrorsAreQuiet(t *testing.T) {
	m := start(t, newTestModel(t, newFakeIndex()))

	result, _ := m.Update(opDoneMsg{op: "submit", err: session.ErrSuperseded})
	m = result.(Model)
	assert.Empty(t, m.notice)

	result, _ = m.Update(opDoneMsg{op: "filter", err: session.ErrNotInResults})
	m = result.(Model)
	assert.Contains(t, m.View(), "operation requires results")
}

func TestNotifier_NoProgram(t *testing.T) {
	var n Notifier
	assert.NotPanics(t, n.Notify)
}
