package memory

import (
	"sort"
	"sync"
)

// SessionStore owns one Memory per session id. Memories are created
// lazily on first access and retained until explicit deletion.
type SessionStore struct {
	mu       sync.Mutex
	maxTurns int
	sessions map[string]*Memory
}

func NewSessionStore(maxTurns int) *SessionStore {
	return &SessionStore{
		maxTurns: maxTurns,
		sessions: make(map[string]*Memory),
	}
}

// Get returns the memory for a session id, creating it if needed.
func (s *SessionStore) Get(sessionID string) *Memory {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem, ok := s.sessions[sessionID]
	if !ok {
		mem = New(s.maxTurns)
		s.sessions[sessionID] = mem
	}
	return mem
}

// Reset clears a session's history without destroying the session.
// Unknown ids are a no-op.
func (s *SessionStore) Reset(sessionID string) {
	s.mu.Lock()
	mem, ok := s.sessions[sessionID]
	s.mu.Unlock()

	if ok {
		mem.Clear()
	}
}

// Delete removes a session entirely.
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Active returns the known session ids, sorted for stable output.
func (s *SessionStore) Active() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
