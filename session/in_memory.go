package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/qrscan/core"
)

// InMemoryStore keeps sessions in a process local map. It is safe for
// concurrent access.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[core.Handle]core.ScanSession
}

var _ core.SessionStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[core.Handle]core.ScanSession)}
}

// Put registers s under its handle. A handle can only be registered once.
func (s *InMemoryStore) Put(sess core.ScanSession) error {
	if sess == nil {
		return fmt.Errorf("put: nil session")
	}
	h := sess.Handle()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[h]; exists {
		return fmt.Errorf("put %s: handle already registered", h)
	}
	s.sessions[h] = sess
	return nil
}

// Get returns the session or core.ErrSessionNotFound.
func (s *InMemoryStore) Get(h core.Handle) (core.ScanSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[h]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes the session or returns core.ErrSessionNotFound.
func (s *InMemoryStore) Delete(h core.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[h]; !ok {
		return core.ErrSessionNotFound
	}
	delete(s.sessions, h)
	return nil
}

// List returns a snapshot ordered by handle.
func (s *InMemoryStore) List() []core.ScanSession {
	s.mu.RLock()
	out := make([]core.ScanSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Handle() < out[j].Handle() })
	return out
}

// Len returns the number of registered sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
