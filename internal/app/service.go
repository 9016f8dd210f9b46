package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"live-quiz-service/internal/auth"
	"live-quiz-service/internal/domain"
)

// SessionStore persists quiz status records. Every write is conditional:
// a guard that no longer holds yields domain.ErrPreconditionFailed and
// leaves the record untouched. Mutating operations return the new record
// image so callers can fan it out without a re-read.
type SessionStore interface {
	// Create writes the status record iff none exists for the quiz id.
	Create(ctx context.Context, sess domain.Session) error
	Get(ctx context.Context, quizID string) (domain.Session, error)
	// AppendPlayer appends to the players sequence iff the session exists.
	AppendPlayer(ctx context.Context, quizID string, player domain.Player) (domain.Session, error)
	// UpdatePlayer applies mutate to the addressed player. Mutate may
	// return domain.ErrPreconditionFailed to abort without writing.
	UpdatePlayer(ctx context.Context, quizID, playerID string, mutate func(*domain.Player) error) (domain.Session, error)
	// UpdateIfStage applies mutate iff the session's stage still equals
	// expect. This is the sole guard that makes advance idempotent.
	UpdateIfStage(ctx context.Context, quizID string, expect domain.Stage, mutate func(*domain.Session)) (domain.Session, error)
}

// Directory tracks which live connection belongs to which identity and
// which sessions or host keys it participates in.
type Directory interface {
	Bind(ctx context.Context, connectionID, userID string) error
	JoinSession(ctx context.Context, connectionID, quizID string) error
	HostSession(ctx context.Context, connectionID, key string) error
	Get(ctx context.Context, connectionID string) (domain.DirectoryEntry, bool, error)
	Delete(ctx context.Context, connectionID string) error
}

// HostRegistry maps an authoring key to the set of connections currently
// hosting that quiz. A quiz may be hosted from several tabs at once.
type HostRegistry interface {
	Add(ctx context.Context, key, connectionID string) error
	Remove(ctx context.Context, key, connectionID string) error
	Connections(ctx context.Context, key string) ([]string, error)
}

// ContentRepository loads authored quiz content (from cache or backing store).
type ContentRepository interface {
	GetContent(ctx context.Context, quizID string) (domain.QuizContent, error)
}

// TokenService binds player identities to bearer tokens.
type TokenService interface {
	Issue(playerID string) (string, error)
	Verify(token string) (string, error)
}

// UserMessage acknowledges a join or restore with the player's identity
// and auth token.
type UserMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
	Auth string `json:"auth"`
}

// PeersMessage lists the other players as currently visible.
type PeersMessage struct {
	Type  string       `json:"type"`
	Peers []PlayerInfo `json:"peers"`
}

const defaultPlayerName = "Unnamed Player"

// SessionService contains the session engine use cases. It holds no
// session state of its own: every operation re-reads the status record
// and writes through the store's conditional primitives.
type SessionService struct {
	store     SessionStore
	directory Directory
	hosts     HostRegistry
	content   ContentRepository
	tokens    TokenService
	pusher    Pusher
	fanout    *Dispatcher
	now       func() time.Time
	log       *slog.Logger
}

func NewSessionService(
	store SessionStore,
	directory Directory,
	hosts HostRegistry,
	content ContentRepository,
	tokens TokenService,
	pusher Pusher,
	fanout *Dispatcher,
	log *slog.Logger,
) *SessionService {
	return &SessionService{
		store:     store,
		directory: directory,
		hosts:     hosts,
		content:   content,
		tokens:    tokens,
		pusher:    pusher,
		fanout:    fanout,
		now:       time.Now,
		log:       log,
	}
}

// CreateSession seeds the status record for an authored quiz: stage
// pending, no players, fresh authoring key. Put-if-absent; when a record
// already exists it is returned unchanged.
func (s *SessionService) CreateSession(ctx context.Context, quizID string) (domain.Session, error) {
	content, err := s.content.GetContent(ctx, quizID)
	if err != nil {
		return domain.Session{}, err
	}
	sess := domain.Session{
		ID:          quizID,
		Key:         auth.NewID(8),
		Title:       content.Title,
		Stage:       domain.Pending,
		QuestionIDs: content.QuestionIDs(),
		Players:     []domain.Player{},
	}
	err = s.store.Create(ctx, sess)
	if errors.Is(err, domain.ErrPreconditionFailed) {
		return s.store.Get(ctx, quizID)
	}
	if err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// Join mints a new player and appends it to the session, binds the
// connection and issues the player's auth token. Joining a nonexistent
// session creates nothing and returns the store's error.
func (s *SessionService) Join(ctx context.Context, connectionID, quizID string) (domain.Player, error) {
	player := domain.Player{
		ID:           auth.NewID(16),
		Name:         defaultPlayerName,
		ConnectionID: connectionID,
		Answers:      []string{},
		Scores:       []int{},
	}
	token, err := s.tokens.Issue(player.ID)
	if err != nil {
		return domain.Player{}, err
	}
	player.AuthToken = token

	sess, err := s.store.AppendPlayer(ctx, quizID, player)
	if err != nil {
		return domain.Player{}, err
	}
	s.bindPlayer(ctx, connectionID, player.ID, quizID)
	s.dispatch(ctx, sess)
	return player, nil
}

// Restore reattaches a returning player identified by token. When the
// player still exists its connection id is overwritten (only if it
// changed); when it vanished the presented identity is reused for a
// fresh join, so a token never silently maps to two different players.
func (s *SessionService) Restore(ctx context.Context, connectionID, quizID, token string) (domain.Player, error) {
	playerID, err := s.tokens.Verify(token)
	if err != nil {
		return domain.Player{}, err
	}

	sess, err := s.store.Get(ctx, quizID)
	if err != nil {
		return domain.Player{}, err
	}

	idx := sess.PlayerIndex(playerID)
	if idx < 0 {
		player := domain.Player{
			ID:           playerID,
			Name:         defaultPlayerName,
			ConnectionID: connectionID,
			AuthToken:    token,
			Answers:      []string{},
			Scores:       []int{},
		}
		sess, err = s.store.AppendPlayer(ctx, quizID, player)
		if err != nil {
			return domain.Player{}, err
		}
		s.bindPlayer(ctx, connectionID, playerID, quizID)
		s.dispatch(ctx, sess)
		return player, nil
	}

	if sess.Players[idx].ConnectionID != connectionID {
		sess, err = s.store.UpdatePlayer(ctx, quizID, playerID, func(p *domain.Player) error {
			p.ConnectionID = connectionID
			return nil
		})
		if err != nil {
			return domain.Player{}, err
		}
	}
	s.bindPlayer(ctx, connectionID, playerID, quizID)
	s.dispatch(ctx, sess)

	player := sess.Players[sess.PlayerIndex(playerID)]
	player.AuthToken = token
	return player, nil
}

// Host registers the connection as a host of the quiz and immediately
// pushes the host view once, so hosting works even where no change feed
// is wired (local development).
func (s *SessionService) Host(ctx context.Context, connectionID, quizID, key string) error {
	sess, err := s.store.Get(ctx, quizID)
	if err != nil {
		return err
	}
	if sess.Key != key {
		return domain.ErrWrongKey
	}
	if err := s.hosts.Add(ctx, key, connectionID); err != nil {
		return err
	}
	if err := s.directory.HostSession(ctx, connectionID, key); err != nil {
		s.log.Warn("directory host binding failed", "connection", connectionID, "err", err)
	}

	content, err := s.content.GetContent(ctx, quizID)
	if err != nil {
		return err
	}
	view := HostViewOf(sess, content)
	if err := s.pusher.Push(ctx, connectionID, QuizInfoMessage{Type: "quizInfo", HostView: view}); err != nil {
		s.log.Warn("initial host push failed", "connection", connectionID, "err", err)
	}
	return nil
}

// SetName overwrites the display name of the player bound to the token.
func (s *SessionService) SetName(ctx context.Context, quizID, token, name string) error {
	playerID, err := s.tokens.Verify(token)
	if err != nil {
		return err
	}
	sess, err := s.store.UpdatePlayer(ctx, quizID, playerID, func(p *domain.Player) error {
		p.Name = name
		return nil
	})
	if err != nil {
		return err
	}
	s.dispatch(ctx, sess)
	return nil
}

// SubmitAnswer writes the submitted value into the player's answer slot
// at the question's position. The value is not validated against the
// answer type; junk simply won't match at scoring time.
func (s *SessionService) SubmitAnswer(ctx context.Context, quizID, token, questionID, value string) error {
	playerID, err := s.tokens.Verify(token)
	if err != nil {
		return err
	}
	content, err := s.content.GetContent(ctx, quizID)
	if err != nil {
		return err
	}
	pos := content.QuestionPos(questionID)
	if pos < 0 {
		return domain.ErrQuestionNotFound
	}
	sess, err := s.store.UpdatePlayer(ctx, quizID, playerID, func(p *domain.Player) error {
		for len(p.Answers) <= pos {
			p.Answers = append(p.Answers, "")
		}
		p.Answers[pos] = value
		return nil
	})
	if err != nil {
		return err
	}
	s.dispatch(ctx, sess)
	return nil
}

// Advance moves the session one step through the stage grammar. The
// transition is a single stage-guarded conditional write: a racing or
// retried advance loses the guard and becomes a silent no-op, so the
// answer-window close (and its scoring) applies exactly once. Advancing
// a done session is a no-op, not an error.
func (s *SessionService) Advance(ctx context.Context, quizID, key string) (domain.Session, error) {
	sess, err := s.store.Get(ctx, quizID)
	if err != nil {
		return domain.Session{}, err
	}
	if sess.Key != key {
		return domain.Session{}, domain.ErrWrongKey
	}
	if sess.Stage.Terminal() {
		return sess, nil
	}
	content, err := s.content.GetContent(ctx, quizID)
	if err != nil {
		return domain.Session{}, err
	}

	next := NextStage(sess, content)
	now := s.now()
	updated, err := s.store.UpdateIfStage(ctx, quizID, sess.Stage, func(m *domain.Session) {
		ApplyTransition(m, content, next, now)
	})
	if errors.Is(err, domain.ErrPreconditionFailed) {
		s.log.Debug("advance lost stage guard", "quiz", quizID, "stage", sess.Stage.String())
		return sess, nil
	}
	if err != nil {
		return domain.Session{}, err
	}
	s.fanout.Dispatch(ctx, updated, content)
	return updated, nil
}

// Disconnect runs best-effort cleanup for a dropped connection: every
// tracked session keeps the player record but clears its connection id
// (only while it still points at this connection, so a reconnect that
// already rebound is left alone), and every host binding is removed.
func (s *SessionService) Disconnect(ctx context.Context, connectionID string) {
	entry, ok, err := s.directory.Get(ctx, connectionID)
	if err != nil {
		s.log.Warn("directory lookup failed", "connection", connectionID, "err", err)
		return
	}
	if !ok {
		return
	}

	for _, quizID := range entry.Quizzes {
		sess, err := s.store.UpdatePlayer(ctx, quizID, entry.UserID, func(p *domain.Player) error {
			if p.ConnectionID != connectionID {
				return domain.ErrPreconditionFailed
			}
			p.ConnectionID = ""
			return nil
		})
		if err != nil {
			if !errors.Is(err, domain.ErrPreconditionFailed) && !errors.Is(err, domain.ErrSessionNotFound) && !errors.Is(err, domain.ErrPlayerNotFound) {
				s.log.Warn("disconnect cleanup failed", "quiz", quizID, "connection", connectionID, "err", err)
			}
			continue
		}
		s.dispatch(ctx, sess)
	}

	for _, key := range entry.HostOf {
		if err := s.hosts.Remove(ctx, key, connectionID); err != nil {
			s.log.Warn("host registry cleanup failed", "connection", connectionID, "err", err)
		}
	}

	if err := s.directory.Delete(ctx, connectionID); err != nil {
		s.log.Warn("directory delete failed", "connection", connectionID, "err", err)
	}
}

// Snapshot returns the unauthenticated session overview for plain HTTP
// bootstrap before a socket opens: title, stage and the player roster
// redacted the same way peers are in the player view.
func (s *SessionService) Snapshot(ctx context.Context, quizID string) (HostView, error) {
	sess, err := s.store.Get(ctx, quizID)
	if err != nil {
		return HostView{}, err
	}
	content, err := s.content.GetContent(ctx, quizID)
	if err != nil {
		return HostView{}, err
	}
	return OverviewOf(sess, content), nil
}

// OnRecordImage is the change-feed entry point: it receives the new
// image of an updated status record and fans it out. It must produce the
// same pushes as the synchronous path for the same image.
func (s *SessionService) OnRecordImage(ctx context.Context, sess domain.Session) {
	s.dispatch(ctx, sess)
}

// Peers returns the redacted peer list for a player, for the peers push
// after join.
func (s *SessionService) Peers(ctx context.Context, quizID, playerID string) ([]PlayerInfo, error) {
	sess, err := s.store.Get(ctx, quizID)
	if err != nil {
		return nil, err
	}
	content, err := s.content.GetContent(ctx, quizID)
	if err != nil {
		return nil, err
	}
	view, ok := PlayerViewOf(sess, content, playerID)
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	return view.Peers, nil
}

func (s *SessionService) bindPlayer(ctx context.Context, connectionID, playerID, quizID string) {
	if err := s.directory.Bind(ctx, connectionID, playerID); err != nil {
		s.log.Warn("directory bind failed", "connection", connectionID, "err", err)
	}
	if err := s.directory.JoinSession(ctx, connectionID, quizID); err != nil {
		s.log.Warn("directory join failed", "connection", connectionID, "err", err)
	}
}

func (s *SessionService) dispatch(ctx context.Context, sess domain.Session) {
	content, err := s.content.GetContent(ctx, sess.ID)
	if err != nil {
		s.log.Warn("fanout content load failed", "quiz", sess.ID, "err", err)
		return
	}
	s.fanout.Dispatch(ctx, sess, content)
}
