package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ManagedSession is an editing session handed out to a remote client.
type ManagedSession struct {
	ID           string         `json:"id"`
	Editor       *EditorSession `json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	LastActiveAt time.Time      `json:"lastActiveAt"`
}

// SessionManager handles session creation, lookup, and cleanup.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*ManagedSession
	newEditor   func() *EditorSession
	maxAge      time.Duration
	idleTimeout time.Duration
	now         func() time.Time
}

// NewSessionManager creates a session manager with the given timeouts.
// newEditor builds the editing session behind each managed session.
func NewSessionManager(newEditor func() *EditorSession, maxAge, idleTimeout time.Duration) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*ManagedSession),
		newEditor:   newEditor,
		maxAge:      maxAge,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Open creates a session and loads formID into it.
func (m *SessionManager) Open(ctx context.Context, formID string) (*ManagedSession, error) {
	editor := m.newEditor()
	if err := editor.Load(ctx, formID); err != nil {
		return nil, err
	}

	now := m.now()
	s := &ManagedSession{
		ID:           uuid.New().String(),
		Editor:       editor,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Get retrieves a session by ID and marks it active. Returns nil if not found,
// expired or idle.
func (m *SessionManager) Get(id string) *ManagedSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	now := m.now()
	if m.stale(s, now) {
		delete(m.sessions, id)
		return nil
	}
	s.LastActiveAt = now
	return s
}

// Remove deletes a session.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of sessions held, stale ones included.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes all expired and idle sessions and returns how many it removed.
// Called periodically.
func (m *SessionManager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if m.stale(s, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *SessionManager) stale(s *ManagedSession, now time.Time) bool {
	return now.Sub(s.CreatedAt) > m.maxAge || now.Sub(s.LastActiveAt) > m.idleTimeout
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (m *SessionManager) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}
