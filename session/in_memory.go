// Package session provides SessionStore implementations backing the runner's
// shared state and event history.
package session

import (
	"sync"

	"github.com/agentweave/agentweave/core"
)

// InMemoryStore is a volatile SessionStore keeping sessions in a process
// local map. It is safe for concurrent use and suited to tests and ephemeral
// demo servers. Returned sessions are clones so callers cannot mutate store
// internals.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*core.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// Get returns a clone of an existing session, creating it lazily if absent.
func (s *InMemoryStore) Get(sessionID string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOrCreateLocked(sessionID).Clone(), nil
}

// Create creates (or resets) the session with the given id.
func (s *InMemoryStore) Create(sessionID string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := core.NewSession(sessionID)
	s.sessions[sessionID] = sess

	return sess.Clone(), nil
}

// AppendEvent adds an event to the session, creating the session if needed.
func (s *InMemoryStore) AppendEvent(sessionID string, ev core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getOrCreateLocked(sessionID).AddEvent(ev)

	return nil
}

// ApplyDelta merges a key/value delta into the session state.
func (s *InMemoryStore) ApplyDelta(sessionID string, delta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getOrCreateLocked(sessionID).ApplyStateDelta(delta)

	return nil
}

func (s *InMemoryStore) getOrCreateLocked(sessionID string) *core.Session {
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = core.NewSession(sessionID)
		s.sessions[sessionID] = sess
	}

	return sess
}
