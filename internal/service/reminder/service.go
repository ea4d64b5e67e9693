package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSinkRequired    = errors.New("sink is required")
	ErrSessionNotFound = errors.New("session not found")
)

// Service tracks the live chat sessions of the process. Sessions share no
// reminder state; the service only owns their lifetime.
type Service struct {
	clock   Clock
	logger  *zap.Logger
	metrics *Metrics

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(metrics *Metrics) Option {
	return func(s *Service) { s.metrics = metrics }
}

// NewService bootstraps the in-memory session registry.
func NewService(opts ...Option) *Service {
	s := &Service{
		clock:    SystemClock{},
		logger:   zap.NewNop(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a session bound to sink and greets the user through it.
func (s *Service) Open(_ context.Context, sink Sink) (*Session, error) {
	if sink == nil {
		return nil, ErrSinkRequired
	}

	session := newSession(uuid.NewString(), sink, s.clock, s.logger, s.metrics)
	if err := sink.Send(greetingText); err != nil {
		return nil, fmt.Errorf("send greeting: %w", err)
	}

	s.mu.Lock()
	s.sessions[session.id] = session
	s.mu.Unlock()

	s.metrics.sessionOpened()
	s.logger.Info("session opened", zap.String("sessionID", session.id))
	return session, nil
}

// Get retrieves a live session by identifier.
func (s *Service) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Close tears the session down and cancels all of its reminders.
func (s *Service) Close(sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	session.Close()
	s.metrics.sessionClosed()
	s.logger.Info("session closed", zap.String("sessionID", sessionID))
	return nil
}

// ActiveSessions reports how many sessions are open.
func (s *Service) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Shutdown closes every open session.
func (s *Service) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
		s.metrics.sessionClosed()
	}
	if len(sessions) > 0 {
		s.logger.Info("closed remaining sessions", zap.Int("count", len(sessions)))
	}
}
