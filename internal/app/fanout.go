package app

import (
	"context"
	"log/slog"
	"sync"

	"live-quiz-service/internal/domain"
)

// Pusher delivers a JSON message to a live connection. It fails when the
// connection is gone; the dispatcher treats that as a per-destination
// outcome, never a reason to stop.
type Pusher interface {
	Push(ctx context.Context, connectionID string, message any) error
}

// QuizInfoMessage is the host push envelope.
type QuizInfoMessage struct {
	Type string `json:"type"`
	HostView
}

// QuizStatusMessage is the per-player push envelope.
type QuizStatusMessage struct {
	Type string `json:"type"`
	PlayerStatus
}

// Dispatcher computes the per-recipient views of a session record and
// pushes them: the host view to every connection hosting the quiz, a
// player view to each connected player. Deliveries are attempted
// independently and failures only logged, so one stale connection never
// blocks the rest.
type Dispatcher struct {
	pusher Pusher
	hosts  HostRegistry
	log    *slog.Logger
}

func NewDispatcher(pusher Pusher, hosts HostRegistry, log *slog.Logger) *Dispatcher {
	return &Dispatcher{pusher: pusher, hosts: hosts, log: log}
}

// Dispatch fans the session image out to the host and every player. It
// is safe to call from both the synchronous mutation path and the change
// feed; the output depends only on the record image.
func (d *Dispatcher) Dispatch(ctx context.Context, sess domain.Session, content domain.QuizContent) {
	var wg sync.WaitGroup
	deliver := func(connectionID, recipient string, msg any) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.pusher.Push(ctx, connectionID, msg); err != nil {
				d.log.Warn("push failed",
					"quiz", sess.ID, "recipient", recipient, "connection", connectionID, "err", err)
			}
		}()
	}

	hostConns, err := d.hosts.Connections(ctx, sess.Key)
	if err != nil {
		d.log.Warn("host registry lookup failed", "quiz", sess.ID, "err", err)
	}
	if len(hostConns) > 0 {
		view := HostViewOf(sess, content)
		for _, connectionID := range hostConns {
			deliver(connectionID, "host", QuizInfoMessage{Type: "quizInfo", HostView: view})
		}
	}

	for _, p := range sess.Players {
		if p.ConnectionID == "" {
			continue
		}
		view, ok := PlayerViewOf(sess, content, p.ID)
		if !ok {
			d.log.Warn("fanout addressee missing", "quiz", sess.ID, "player", p.ID)
			continue
		}
		deliver(p.ConnectionID, "player", QuizStatusMessage{Type: "quizStatus", PlayerStatus: view})
	}

	wg.Wait()
}
