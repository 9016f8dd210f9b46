package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/domain"
)

const (
	// statusSortKey tags the session's primary status record; the change
	// feed carries other record shapes too and consumers filter on it.
	statusSortKey = "status"
	// feedChannel carries the new image of every record write.
	feedChannel = "quiz:records"

	casAttempts = 5
)

// statusRecord is the stored envelope of a session: the record image
// plus its reserved sort key.
type statusRecord struct {
	SK string `json:"sk"`
	domain.Session
}

// SessionStore keeps one status record per quiz in Redis. Conditional
// writes run as optimistic WATCH/MULTI transactions; each successful
// write publishes the new record image on the change feed.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Create(ctx context.Context, sess domain.Session) error {
	data, err := json.Marshal(statusRecord{SK: statusSortKey, Session: sess})
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, s.key(sess.ID), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrPreconditionFailed
	}
	_ = s.client.Publish(ctx, feedChannel, data).Err()
	return nil
}

func (s *SessionStore) Get(ctx context.Context, quizID string) (domain.Session, error) {
	raw, err := s.client.Get(ctx, s.key(quizID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	var rec statusRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.Session{}, err
	}
	return rec.Session, nil
}

func (s *SessionStore) AppendPlayer(ctx context.Context, quizID string, player domain.Player) (domain.Session, error) {
	return s.update(ctx, quizID, func(sess *domain.Session) error {
		sess.Players = append(sess.Players, player)
		return nil
	})
}

func (s *SessionStore) UpdatePlayer(ctx context.Context, quizID, playerID string, mutate func(*domain.Player) error) (domain.Session, error) {
	return s.update(ctx, quizID, func(sess *domain.Session) error {
		idx := sess.PlayerIndex(playerID)
		if idx < 0 {
			return domain.ErrPlayerNotFound
		}
		return mutate(&sess.Players[idx])
	})
}

func (s *SessionStore) UpdateIfStage(ctx context.Context, quizID string, expect domain.Stage, mutate func(*domain.Session)) (domain.Session, error) {
	return s.update(ctx, quizID, func(sess *domain.Session) error {
		if sess.Stage != expect {
			return domain.ErrPreconditionFailed
		}
		mutate(sess)
		return nil
	})
}

// update runs one optimistic read-modify-write on the status record. A
// concurrent write invalidates the WATCH and the attempt retries; giving
// up after casAttempts surfaces as a precondition failure, which callers
// already treat as a lost race.
func (s *SessionStore) update(ctx context.Context, quizID string, mutate func(*domain.Session) error) (domain.Session, error) {
	key := s.key(quizID)
	var out domain.Session

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return domain.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		var rec statusRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return err
		}
		if err := mutate(&rec.Session); err != nil {
			return err
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.Publish(ctx, feedChannel, data)
			return nil
		})
		if err == nil {
			out = rec.Session
		}
		return err
	}

	for i := 0; i < casAttempts; i++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.Session{}, err
		}
		return out, nil
	}
	return domain.Session{}, domain.ErrPreconditionFailed
}

func (s *SessionStore) key(quizID string) string {
	return "quiz:" + quizID + ":" + statusSortKey
}
