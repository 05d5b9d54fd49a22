package tui

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// StateMsg tells the model the controller state changed.
type StateMsg struct{}

// ErrMsg carries a recoverable error for the notification line.
type ErrMsg struct{ Err error }

// Relay forwards controller callbacks into a running program. The controller
// is built before the program exists, so messages sent before Attach are dropped.
//
// Callbacks fire synchronously inside controller calls made from Update, and
// Program.Send blocks until the event loop reads, so delivery happens on a
// separate goroutine. Bursts of state changes collapse into one StateMsg.
type Relay struct {
	mu      sync.Mutex
	p       *tea.Program
	pending atomic.Bool
}

// Attach starts forwarding to p.
func (r *Relay) Attach(p *tea.Program) {
	r.mu.Lock()
	r.p = p
	r.mu.Unlock()
}

// OnChange is passed to discovery.WithOnChange.
func (r *Relay) OnChange() {
	p := r.program()
	if p == nil || !r.pending.CompareAndSwap(false, true) {
		return
	}
	go func() {
		r.pending.Store(false)
		p.Send(StateMsg{})
	}()
}

// OnError is passed to discovery.WithOnError.
func (r *Relay) OnError(err error) {
	if p := r.program(); p != nil {
		go p.Send(ErrMsg{Err: err})
	}
}

func (r *Relay) program() *tea.Program {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.p
}
