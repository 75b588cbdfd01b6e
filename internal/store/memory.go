package store

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/finadigital/wifipass/internal/domain/errors"
	"github.com/finadigital/wifipass/internal/domain/session"
	"github.com/google/uuid"
)

// SessionStore keeps live checkout sessions in memory. All session state is
// transient by design; nothing here survives a restart, and expired entries
// are swept on an interval.
type SessionStore struct {
	ttl   time.Duration
	sweep time.Duration

	mu       sync.RWMutex
	sessions map[uuid.UUID]*entry

	// onEvict lets the retrieval engine drop lineages of expired sessions.
	onEvict func(uuid.UUID)
}

type entry struct {
	session  *session.Session
	deadline time.Time
}

func NewSessionStore(ttl, sweepInterval time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		sweep:    sweepInterval,
		sessions: make(map[uuid.UUID]*entry),
	}
}

// OnEvict registers a hook invoked with the id of every expired session.
func (s *SessionStore) OnEvict(fn func(uuid.UUID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = fn
}

// Put stores the session and refreshes its deadline.
func (s *SessionStore) Put(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = &entry{session: sess, deadline: time.Now().Add(s.ttl)}
}

// Get returns the session with the given id.
func (s *SessionStore) Get(id uuid.UUID) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok || time.Now().After(e.deadline) {
		return nil, domainErrors.ErrSessionNotFound
	}
	return e.session, nil
}

// Touch refreshes the session deadline without replacing it.
func (s *SessionStore) Touch(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[id]; ok {
		e.deadline = time.Now().Add(s.ttl)
	}
}

// Delete removes the session.
func (s *SessionStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports the number of stored sessions, expired included.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Run sweeps expired sessions until the context is done.
func (s *SessionStore) Run(ctx context.Context) {
	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *SessionStore) evictExpired() {
	now := time.Now()

	s.mu.Lock()
	var evicted []uuid.UUID
	for id, e := range s.sessions {
		if now.After(e.deadline) {
			delete(s.sessions, id)
			evicted = append(evicted, id)
		}
	}
	onEvict := s.onEvict
	s.mu.Unlock()

	if onEvict != nil {
		for _, id := range evicted {
			onEvict(id)
		}
	}
}
