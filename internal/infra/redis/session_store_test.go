package redis

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/domain"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestSessionStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newTestClient(t))

	sess := domain.Session{
		ID:          "quiz-1",
		Key:         "key-1",
		Title:       "Capitals",
		Stage:       domain.Pending,
		QuestionIDs: []string{"q1"},
		Players:     []domain.Player{},
	}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, sess); !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("expected duplicate create to fail precondition, got %v", err)
	}

	got, err := store.Get(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Key != "key-1" || got.Stage != domain.Pending || got.Title != "Capitals" {
		t.Fatalf("unexpected record %+v", got)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionStoreConditionalWrites(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newTestClient(t))
	_ = store.Create(ctx, domain.Session{ID: "quiz-1", Stage: domain.Pending})

	sess, err := store.AppendPlayer(ctx, "quiz-1", domain.Player{ID: "p1", ConnectionID: "c1"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(sess.Players) != 1 {
		t.Fatalf("expected one player, got %d", len(sess.Players))
	}

	if _, err := store.AppendPlayer(ctx, "missing", domain.Player{ID: "p1"}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("append to missing session: got %v", err)
	}

	if _, err := store.UpdatePlayer(ctx, "quiz-1", "ghost", func(*domain.Player) error { return nil }); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected player not found, got %v", err)
	}

	if _, err := store.UpdateIfStage(ctx, "quiz-1", domain.Done, func(*domain.Session) {}); !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("expected stage guard failure, got %v", err)
	}
	sess, err = store.UpdateIfStage(ctx, "quiz-1", domain.Pending, func(m *domain.Session) {
		m.Stage = domain.Answer("q1")
	})
	if err != nil {
		t.Fatalf("guarded update: %v", err)
	}
	if sess.Stage != domain.Answer("q1") {
		t.Fatalf("expected answer@q1, got %s", sess.Stage)
	}
}

func TestSessionStoreRoundTripsPlayerFields(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newTestClient(t))
	_ = store.Create(ctx, domain.Session{ID: "quiz-1", Stage: domain.Pending})
	_, _ = store.AppendPlayer(ctx, "quiz-1", domain.Player{
		ID: "p1", Name: "Alice", ConnectionID: "c1", AuthToken: "tok", Answers: []string{}, Scores: []int{},
	})

	_, err := store.UpdatePlayer(ctx, "quiz-1", "p1", func(p *domain.Player) error {
		p.Answers = append(p.Answers, "a")
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	sess, _ := store.Get(ctx, "quiz-1")
	p := sess.Players[0]
	if p.Name != "Alice" || p.AuthToken != "tok" || len(p.Answers) != 1 || p.Answers[0] != "a" {
		t.Fatalf("player fields lost across serialization: %+v", p)
	}
}
