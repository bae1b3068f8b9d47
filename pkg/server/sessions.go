package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions is the registry of live browser sessions.
type Sessions struct {
	deps *deps
	ttl  time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
	done     chan struct{}
}

func newSessions(d *deps, ttl, cleanupInterval time.Duration) *Sessions {
	s := &Sessions{
		deps:     d,
		ttl:      ttl,
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}
	go s.cleanupLoop(cleanupInterval)
	return s
}

// Get returns the session with id, if it is live.
func (s *Sessions) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Resolve returns the request's session, creating one and setting the
// cookie when the request has none or its session was evicted.
func (s *Sessions) Resolve(w http.ResponseWriter, r *http.Request, secure bool) *Session {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if sess, ok := s.Get(c.Value); ok {
			sess.Touch()
			return sess
		}
	}

	sess := s.create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure && r.TLS != nil,
	})
	return sess
}

func (s *Sessions) create() *Session {
	sess := newSession(uuid.NewString(), s.deps)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		// Shutting down: hand out a detached session that is already closed.
		sess.Close()
		return sess
	}
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.deps.metrics.RecordSessionCreate()
	sess.logger.Debug("session created")
	return sess
}

// Count returns the number of live sessions.
func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close closes every session and stops the cleanup loop.
func (s *Sessions) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	all := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.Close()
		s.deps.metrics.RecordSessionDestroy()
	}
}

// cleanupLoop periodically evicts idle sessions.
func (s *Sessions) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictIdle(time.Now().Add(-s.ttl))
		case <-s.done:
			return
		}
	}
}

// evictIdle closes sessions idle since before cutoff and returns how many.
func (s *Sessions) evictIdle(cutoff time.Time) int {
	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.idleSince(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
		s.deps.metrics.RecordSessionDestroy()
		sess.logger.Debug("session evicted")
	}
	return len(expired)
}
