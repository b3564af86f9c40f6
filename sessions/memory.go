package sessions

import (
	"context"
	"sync"
	"time"
)

// MemorySessionStore keeps sessions in a map guarded by a RWMutex.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[SessionId]Session
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[SessionId]Session),
		now:      time.Now,
	}
}

// SaveSession creates or replaces a session
func (m *MemorySessionStore) SaveSession(_ context.Context, s Session) error {
	if s.Id == "" {
		return ErrEmptySessionId
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// store a copy so callers can't mutate attributes behind our back
	m.sessions[s.Id] = s.Clone()
	return nil
}

func (m *MemorySessionStore) LoadSessionById(_ context.Context, id SessionId) (Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return Session{}, ErrSessionNotFound
	}

	if s.Expired(m.now()) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return Session{}, ErrSessionExpired
	}

	return s.Clone(), nil
}

// DeleteSessionById removes a session. Deleting an unknown id is not an error.
func (m *MemorySessionStore) DeleteSessionById(_ context.Context, id SessionId) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

func (m *MemorySessionStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	purged := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			purged++
		}
	}
	return purged, nil
}

// Len reports how many sessions are held, expired ones included.
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

var _ SessionStore = (*MemorySessionStore)(nil)
