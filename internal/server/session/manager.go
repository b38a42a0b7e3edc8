package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns the in-process session table. Expired sessions are dropped
// lazily on lookup.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration

	// now is a test seam.
	now func() time.Time
}

// NewManager constructs a Manager whose sessions live for ttl.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create allocates a fresh anonymous session.
func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Session{
		ID:      uuid.NewString(),
		expires: m.now().Add(m.ttl),
	}
	m.sessions[s.ID] = s
	return s
}

// Get returns the live session with the given id. Expired or unknown ids
// return false.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	if s.expired(m.now()) {
		m.Destroy(id)
		return nil, false
	}
	return s, true
}

// Destroy removes a session outright.
func (m *Manager) Destroy(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len reports the number of tracked sessions (expired ones included until
// their next lookup).
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
