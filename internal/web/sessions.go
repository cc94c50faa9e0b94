package web

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ChurnPredictor/internal/controller"
)

const cleanupInterval = time.Minute

// ControllerFactory builds the controller for a new session, wired to its alerter
type ControllerFactory func(alerter controller.Alerter) *controller.Controller

// Session is one browser's form
type Session struct {
	ID   string
	Ctrl *controller.Controller

	mu       sync.Mutex
	alerts   []string
	lastSeen time.Time
}

// Alert queues a message to be shown on the next page load
func (s *Session) Alert(message string) {
	s.mu.Lock()
	s.alerts = append(s.alerts, message)
	s.mu.Unlock()
}

// TakeAlerts returns and clears the queued alerts
func (s *Session) TakeAlerts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.alerts
	s.alerts = nil
	return out
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// SessionStore keeps one controller per browser session and evicts idle ones
type SessionStore struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	idle        time.Duration
	factory     ControllerFactory
	stopCleanup chan struct{}
	stopOnce    sync.Once
	logger      zerolog.Logger
}

// NewSessionStore creates a store and starts its cleanup loop
func NewSessionStore(factory ControllerFactory, idle time.Duration) *SessionStore {
	s := &SessionStore{
		sessions:    make(map[string]*Session),
		idle:        idle,
		factory:     factory,
		stopCleanup: make(chan struct{}),
		logger:      log.With().Str("component", "session_store").Logger(),
	}
	go s.cleanupLoop()
	return s
}

// Get returns the session with the given id, or a fresh one when id is unknown.
// The second result reports whether the session was created.
func (s *SessionStore) Get(id string) (*Session, bool) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.touch(now)
		return sess, false
	}

	sess := &Session{ID: uuid.NewString(), lastSeen: now}
	sess.Ctrl = s.factory(sess)
	s.sessions[sess.ID] = sess
	s.logger.Debug().Str("session_id", sess.ID).Msg("Created session")
	return sess, true
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Stop ends the cleanup loop and closes every session. It is safe to call more than once.
func (s *SessionStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCleanup) })

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.Ctrl.Close()
		delete(s.sessions, id)
	}
}

func (s *SessionStore) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictIdle(time.Now())
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *SessionStore) evictIdle(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		if sess.idleSince(now) > s.idle {
			sess.Ctrl.Close()
			delete(s.sessions, id)
			s.logger.Debug().Str("session_id", id).Msg("Evicted idle session")
		}
	}
}
