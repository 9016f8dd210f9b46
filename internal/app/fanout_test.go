package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

type fakePusher struct {
	mu       sync.Mutex
	messages map[string][]any
	failing  map[string]bool
}

func newFakePusher() *fakePusher {
	return &fakePusher{messages: make(map[string][]any), failing: make(map[string]bool)}
}

func (p *fakePusher) Push(_ context.Context, connectionID string, message any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing[connectionID] {
		return errors.New("connection closed")
	}
	p.messages[connectionID] = append(p.messages[connectionID], message)
	return nil
}

func (p *fakePusher) count(connectionID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages[connectionID])
}

func (p *fakePusher) last(connectionID string) any {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := p.messages[connectionID]
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatchDeliversToHostAndPlayers(t *testing.T) {
	ctx := context.Background()
	pusher := newFakePusher()
	hosts := memory.NewHostRegistry()
	_ = hosts.Add(ctx, "secret-key", "host-conn")
	dispatcher := NewDispatcher(pusher, hosts, discardLogger())

	dispatcher.Dispatch(ctx, viewSession(domain.Answer("q1")), testContent())

	if pusher.count("host-conn") != 1 {
		t.Fatalf("expected one host push, got %d", pusher.count("host-conn"))
	}
	if _, ok := pusher.last("host-conn").(QuizInfoMessage); !ok {
		t.Fatalf("host receives quizInfo, got %T", pusher.last("host-conn"))
	}
	for _, conn := range []string{"c1", "c2"} {
		if pusher.count(conn) != 1 {
			t.Fatalf("expected one push to %s, got %d", conn, pusher.count(conn))
		}
		if _, ok := pusher.last(conn).(QuizStatusMessage); !ok {
			t.Fatalf("player receives quizStatus, got %T", pusher.last(conn))
		}
	}
}

func TestDispatchFailureDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	pusher := newFakePusher()
	pusher.failing["c1"] = true
	dispatcher := NewDispatcher(pusher, memory.NewHostRegistry(), discardLogger())

	dispatcher.Dispatch(ctx, viewSession(domain.Answer("q1")), testContent())

	if pusher.count("c2") != 1 {
		t.Fatalf("delivery to c2 must proceed despite c1 failing, got %d", pusher.count("c2"))
	}
}

func TestDispatchSkipsDisconnectedPlayers(t *testing.T) {
	ctx := context.Background()
	pusher := newFakePusher()
	dispatcher := NewDispatcher(pusher, memory.NewHostRegistry(), discardLogger())

	sess := viewSession(domain.Answer("q1"))
	sess.Players[1].ConnectionID = ""
	dispatcher.Dispatch(ctx, sess, testContent())

	if pusher.count("c1") != 1 {
		t.Fatalf("connected player still receives a push")
	}
	if pusher.count("c2") != 0 {
		t.Fatalf("disconnected player must be skipped")
	}
}
