package session

import (
	"context"
	"sync"

	"github.com/idelchi/dirsize/internal/dirsize"
)

// Manager runs independent sessions concurrently.
// Sessions share no mutable state; each owns its token.
type Manager struct {
	options []Option

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a Manager applying options to every session it starts.
func NewManager(options ...Option) *Manager {
	return &Manager{
		options:  options,
		sessions: make(map[string]*Session),
	}
}

// Start begins a new session. Extra options override the manager's.
func (m *Manager) Start(ctx context.Context, root string, opts dirsize.Options, extra ...Option) *Session {
	options := append(append([]Option{}, m.options...), extra...)
	s := Start(ctx, root, opts, options...)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	go func() {
		<-s.Done()

		m.mu.Lock()
		delete(m.sessions, s.ID())
		m.mu.Unlock()
	}()

	return s
}

// Get returns the active session with id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]

	return s, ok
}

// Active returns the number of sessions that have not finished.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

// CancelAll cancels every active session.
func (m *Manager) CancelAll() {
	for _, s := range m.snapshot() {
		s.Cancel()
	}
}

// Wait blocks until every session active at call time has finished.
func (m *Manager) Wait() {
	for _, s := range m.snapshot() {
		<-s.Done()
	}
}

func (m *Manager) snapshot() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}

	return list
}
