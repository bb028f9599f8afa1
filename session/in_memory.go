package session

import (
	"sync"
	"time"

	"github.com/hupe1980/agentpilot/core"
)

// InMemoryStore is a volatile Store implementation keeping session records in
// a process-local map. Safe for concurrent access; best suited for tests and
// ephemeral demo servers. Every returned record is a clone so callers never
// share mutable state with the store.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
	keys     *keyLock
	opts     Options
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*core.Session),
		keys:     newKeyLock(),
		opts:     applyOptions(optFns),
	}
}

// Get returns a clone of the stored session or a not-found error.
func (s *InMemoryStore) Get(sessionID string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, core.NewSessionNotFound(sessionID)
	}
	return sess.Clone(), nil
}

// Create allocates a session with a fresh unique id.
func (s *InMemoryStore) Create() (*core.Session, error) {
	sess := core.NewSession(core.NewSessionID())
	s.mu.Lock()
	s.sessions[sess.ID] = sess.Clone()
	s.mu.Unlock()
	return sess, nil
}

// Update stores a clone of the snapshot, bounding its run history.
func (s *InMemoryStore) Update(sess *core.Session) error {
	unlock := s.keys.Lock(sess.ID)
	defer unlock()

	sess.UpdatedAt = time.Now().UTC()
	sess.BoundHistory(s.opts.HistoryLimit)

	s.mu.Lock()
	s.sessions[sess.ID] = sess.Clone()
	s.mu.Unlock()
	return nil
}
