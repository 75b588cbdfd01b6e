package store

import (
	"sync"
	"testing"
	"time"

	domainErrors "github.com/finadigital/wifipass/internal/domain/errors"
	"github.com/finadigital/wifipass/internal/domain/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_PutGet(t *testing.T) {
	s := NewSessionStore(time.Minute, time.Minute)

	sess := session.New()
	s.Put(sess)

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
}

func TestSessionStore_GetUnknown(t *testing.T) {
	s := NewSessionStore(time.Minute, time.Minute)
	_, err := s.Get(uuid.New())
	assert.ErrorIs(t, err, domainErrors.ErrSessionNotFound)
}

func TestSessionStore_ExpiredSessionIsGone(t *testing.T) {
	s := NewSessionStore(10*time.Millisecond, time.Minute)

	sess := session.New()
	s.Put(sess)

	time.Sleep(30 * time.Millisecond)
	_, err := s.Get(sess.ID)
	assert.ErrorIs(t, err, domainErrors.ErrSessionNotFound)
}

func TestSessionStore_SweepInvokesEvictHook(t *testing.T) {
	s := NewSessionStore(5*time.Millisecond, time.Minute)

	var mu sync.Mutex
	var evicted []uuid.UUID
	s.OnEvict(func(id uuid.UUID) {
		mu.Lock()
		evicted = append(evicted, id)
		mu.Unlock()
	})

	sess := session.New()
	s.Put(sess)
	time.Sleep(20 * time.Millisecond)
	s.evictExpired()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, evicted, 1)
	assert.Equal(t, sess.ID, evicted[0])
	assert.Equal(t, 0, s.Len())
}

func TestSessionStore_TouchExtendsDeadline(t *testing.T) {
	s := NewSessionStore(40*time.Millisecond, time.Minute)

	sess := session.New()
	s.Put(sess)

	time.Sleep(25 * time.Millisecond)
	s.Touch(sess.ID)
	time.Sleep(25 * time.Millisecond)

	_, err := s.Get(sess.ID)
	assert.NoError(t, err)
}

func TestSessionStore_Delete(t *testing.T) {
	s := NewSessionStore(time.Minute, time.Minute)

	sess := session.New()
	s.Put(sess)
	s.Delete(sess.ID)

	_, err := s.Get(sess.ID)
	assert.ErrorIs(t, err, domainErrors.ErrSessionNotFound)
}
