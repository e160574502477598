package wizard

import (
	"context"
	"sync"
)

// Manager hands out at most one open session per operator. Opening a new
// wizard while one is open closes the old one first, discarding its draft,
// so two builder modals never coexist.
type Manager struct {
	mu       sync.Mutex
	store    Store
	onSaved  func(userID uint)
	sessions map[uint]*Session
}

func NewManager(store Store, onSaved func(userID uint)) *Manager {
	return &Manager{
		store:    store,
		onSaved:  onSaved,
		sessions: make(map[uint]*Session),
	}
}

// Open starts a session for the operator. widgetID 0 means create mode;
// otherwise the widget is fetched for editing. On a fetch failure no
// session is left open.
func (m *Manager) Open(ctx context.Context, userID, widgetID uint) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.sessions[userID]; ok {
		old.Close()
		delete(m.sessions, userID)
	}

	var saved func()
	if m.onSaved != nil {
		saved = func() { m.onSaved(userID) }
	}
	s := NewSession(m.store, saved)

	if widgetID == 0 {
		s.Open()
	} else if err := s.OpenWidget(ctx, widgetID); err != nil {
		return nil, err
	}

	m.sessions[userID] = s
	return s, nil
}

// Get returns the operator's open session, or nil.
func (m *Manager) Get(userID uint) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok || !s.IsOpen() {
		return nil
	}
	return s
}

// Close discards the operator's session if one is open.
func (m *Manager) Close(userID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		s.Close()
		delete(m.sessions, userID)
	}
}

// Release drops a session that closed itself (after a successful submit).
func (m *Manager) Release(userID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok && !s.IsOpen() {
		delete(m.sessions, userID)
	}
}
