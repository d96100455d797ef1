package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/runger/teamseek/internal/query"
	"github.com/runger/teamseek/internal/search"
	"github.com/runger/teamseek/internal/session"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	queryStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	channelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("109"))
)

// modifierHints are listed on the initial view.
var modifierHints = []struct{ token, desc string }{
	{"from:<user>", "messages or files posted by a user"},
	{"in:<channel>", "only one channel"},
	{"ext:<type>", "files with an extension, e.g. ext:pdf"},
	{`"a phrase"`, "match words together"},
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	for _, line := range m.headerLines() {
		b.WriteString(line)
		b.WriteRune('\n')
	}
	b.WriteString(m.input.View())
	b.WriteRune('\n')
	b.WriteString(m.viewBody())
	if status := m.viewStatus(); status != "" {
		b.WriteRune('\n')
		b.WriteString(status)
	}
	return b.String()
}

// headerRows is the number of header rows to draw. It follows the header
// coordinator, using the lock from the snapshot being drawn.
func (m Model) headerRows() int {
	return int(math.Round(m.ctrl.Header().OffsetFor(m.snap.Header)))
}

// headerLines renders the collapsible header, most important line first,
// cut to the current header height.
func (m Model) headerLines() []string {
	title := titleStyle.Render("teamseek")
	if team := m.teamLabel(); team != "" {
		title += dimStyle.Render(" · " + team)
	}
	if m.snap.Busy() {
		title += " " + m.spinner.View()
	}

	second := dimStyle.Render("Search messages and files in this team")
	if m.snap.Phase == session.Results || m.snap.Phase == session.Loading {
		title += "  " + m.viewTabBar()
		second = dimStyle.Render("File type: ") + m.snap.Query.Filter.Label()
	}
	lines := []string{title, second, m.viewHelp(), ""}

	n := m.headerRows()
	if n < len(lines) {
		lines = lines[:max(n, 0)]
	}
	return lines
}

// viewTabBar renders the Messages and Files tabs with their counts.
func (m Model) viewTabBar() string {
	tabs := []struct {
		tab   session.Tab
		label string
	}{
		{session.Messages, fmt.Sprintf(" Messages %d ", len(m.snap.Results.PostIDs))},
		{session.Files, fmt.Sprintf(" Files %d ", len(m.snap.Results.Files))},
	}
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		if t.tab == m.snap.Tab {
			parts = append(parts, activeTabStyle.Render(t.label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(t.label))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) viewHelp() string {
	bindings := m.keys.help(m.snap.Phase == session.Results, m.snap.Phase == session.Failed)
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		parts = append(parts, helpText(kb))
	}
	return dimStyle.Render(strings.Join(parts, "  "))
}

func helpText(kb key.Binding) string {
	h := kb.Help()
	return h.Key + " " + h.Desc
}

// viewBody renders the phase-specific content under the input line.
func (m Model) viewBody() string {
	switch m.snap.Phase {
	case session.Idle:
		return m.viewInitial()
	case session.Loading:
		return m.spinner.View() + dimStyle.Render(fmt.Sprintf(" Searching for %q", m.snap.Query.Term))
	case session.Failed:
		msg := "Search failed"
		if m.snap.Err != nil {
			msg += ": " + m.snap.Err.Error()
		}
		return errorStyle.Render(EndTruncate(msg, m.lineWidth())) + "\n" +
			dimStyle.Render(helpText(m.keys.Retry)+"  "+helpText(m.keys.Cancel))
	case session.Results:
		if m.snap.Tab == session.Files {
			return m.viewFiles()
		}
		return m.viewMessages()
	default:
		return ""
	}
}

// viewInitial lists recent searches and the search modifiers.
func (m Model) viewInitial() string {
	var b strings.Builder
	b.WriteString(dimStyle.Render("Recent searches"))
	b.WriteRune('\n')
	if len(m.recents) == 0 {
		b.WriteString(dimStyle.Render("  No recent searches"))
		b.WriteRune('\n')
	}
	rows := make([]string, len(m.recents))
	for i, r := range m.recents {
		when := humanize.Time(time.UnixMilli(r.SearchedAtUnixMs))
		rows[i] = Flatten(r.Term) + dimStyle.Render("  "+when)
	}
	b.WriteString(m.viewList(rows))
	if len(rows) > 0 {
		b.WriteRune('\n')
	}

	b.WriteRune('\n')
	b.WriteString(dimStyle.Render("Search modifiers"))
	for _, h := range modifierHints {
		b.WriteRune('\n')
		b.WriteString(fmt.Sprintf("  %-14s", h.token))
		b.WriteString(dimStyle.Render(h.desc))
	}
	return b.String()
}

func (m Model) viewMessages() string {
	if len(m.snap.Results.PostIDs) == 0 {
		return dimStyle.Render(fmt.Sprintf("No messages match %q", m.snap.Query.Term))
	}
	rows := make([]string, len(m.posts))
	for i, p := range m.posts {
		prefix := channelStyle.Render("#"+p.ChannelName) + " " + p.Author + ": "
		width := m.lineWidth() - lipgloss.Width(prefix)
		rows[i] = prefix + EndTruncate(Flatten(p.Message), width)
	}
	return m.viewList(rows)
}

func (m Model) viewFiles() string {
	if m.snap.Filtering {
		return m.spinner.View() + dimStyle.Render(" Filtering files: "+m.snap.Query.Filter.Label())
	}
	if len(m.snap.Results.Files) == 0 {
		kind := "files"
		if m.snap.Query.Filter != query.All {
			kind = strings.ToLower(m.snap.Query.Filter.Label()) + " files"
		}
		return dimStyle.Render(fmt.Sprintf("No %s match %q", kind, m.snap.Query.Term))
	}
	rows := make([]string, len(m.snap.Results.Files))
	for i, f := range m.snap.Results.Files {
		rows[i] = m.fileRow(f)
	}
	return m.viewList(rows)
}

func (m Model) fileRow(f search.FileInfo) string {
	meta := dimStyle.Render(fmt.Sprintf("  %s · %s", humanize.Bytes(uint64(max(f.Size, 0))), f.Author))
	width := m.lineWidth() - lipgloss.Width(meta)
	return MiddleTruncate(Flatten(f.Name), width) + meta
}

// viewList renders the visible window of rows with a selection marker.
func (m Model) viewList(rows []string) string {
	var b strings.Builder
	end := min(m.scroll+m.listHeight(), len(rows))
	for i := m.scroll; i < end; i++ {
		if i == m.selection {
			b.WriteString(selectedStyle.Render("> " + rows[i]))
		} else {
			b.WriteString(normalStyle.Render("  " + rows[i]))
		}
		if i < end-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

func (m Model) viewStatus() string {
	if m.notice == "" {
		return ""
	}
	return errorStyle.Render(EndTruncate(m.notice, m.lineWidth()))
}

// lineWidth is the usable width of a list row, minus the selection marker.
func (m Model) lineWidth() int {
	if m.width <= 4 {
		return 76
	}
	return m.width - 4
}
