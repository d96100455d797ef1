package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// SnapshotChangedMsg tells the model the session published a new snapshot.
type SnapshotChangedMsg struct{}

// Notifier forwards session change callbacks to a running program.
// The controller is created before the program, so the program is
// attached afterwards.
type Notifier struct {
	mu sync.Mutex
	p  *tea.Program
}

// Attach sets the program that receives change notifications.
func (n *Notifier) Attach(p *tea.Program) {
	n.mu.Lock()
	n.p = p
	n.mu.Unlock()
}

// Notify is suitable as session.Options.OnChange. The send happens on its
// own goroutine because the controller may call it from inside Update,
// where a direct Send would block the event loop.
func (n *Notifier) Notify() {
	n.mu.Lock()
	p := n.p
	n.mu.Unlock()
	if p == nil {
		return
	}
	go p.Send(SnapshotChangedMsg{})
}
