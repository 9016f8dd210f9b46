package memory

import (
	"context"
	"sync"

	"live-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore with
// the same conditional-write semantics as the redis one. Writes emit the
// new record image on an optional feed channel, mirroring the store
// change feed.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	feed     chan domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domain.Session)}
}

// Feed returns a channel that receives the new image after each write.
// Lazily created; images are dropped when nobody drains the channel.
func (s *SessionStore) Feed() <-chan domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.feed == nil {
		s.feed = make(chan domain.Session, 32)
	}
	return s.feed
}

func (s *SessionStore) Create(_ context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return domain.ErrPreconditionFailed
	}
	s.sessions[sess.ID] = sess.Clone()
	s.emitLocked(sess)
	return nil
}

func (s *SessionStore) Get(_ context.Context, quizID string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[quizID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *SessionStore) AppendPlayer(_ context.Context, quizID string, player domain.Player) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[quizID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	sess.Players = append(sess.Players, player)
	s.sessions[quizID] = sess
	s.emitLocked(sess)
	return sess.Clone(), nil
}

func (s *SessionStore) UpdatePlayer(_ context.Context, quizID, playerID string, mutate func(*domain.Player) error) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[quizID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	idx := sess.PlayerIndex(playerID)
	if idx < 0 {
		return domain.Session{}, domain.ErrPlayerNotFound
	}
	next := sess.Clone()
	if err := mutate(&next.Players[idx]); err != nil {
		return domain.Session{}, err
	}
	s.sessions[quizID] = next
	s.emitLocked(next)
	return next.Clone(), nil
}

func (s *SessionStore) UpdateIfStage(_ context.Context, quizID string, expect domain.Stage, mutate func(*domain.Session)) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[quizID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if sess.Stage != expect {
		return domain.Session{}, domain.ErrPreconditionFailed
	}
	next := sess.Clone()
	mutate(&next)
	s.sessions[quizID] = next
	s.emitLocked(next)
	return next.Clone(), nil
}

func (s *SessionStore) emitLocked(sess domain.Session) {
	if s.feed == nil {
		return
	}
	select {
	case s.feed <- sess.Clone():
	default:
	}
}
