package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"live-quiz-service/internal/domain"
)

func TestFeedDeliversStatusImages(t *testing.T) {
	client := newTestClient(t)
	store := NewSessionStore(client)
	directory := NewDirectory(client, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	images := make(chan domain.Session, 8)
	feed := NewFeed(client, func(_ context.Context, sess domain.Session) {
		images <- sess
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	go func() { _ = feed.Run(ctx) }()

	// Give the subscription a moment to establish.
	time.Sleep(50 * time.Millisecond)

	if err := store.Create(ctx, domain.Session{ID: "quiz-1", Stage: domain.Pending}); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Directory writes share the feed channel but are not status records.
	if err := directory.Bind(ctx, "c1", "p1"); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if _, err := store.AppendPlayer(ctx, "quiz-1", domain.Player{ID: "p1"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	first := waitImage(t, images)
	if first.ID != "quiz-1" || first.Stage != domain.Pending {
		t.Fatalf("unexpected first image %+v", first)
	}
	second := waitImage(t, images)
	if len(second.Players) != 1 {
		t.Fatalf("expected player append image, got %+v", second)
	}

	select {
	case img := <-images:
		t.Fatalf("directory write must not reach the handler, got %+v", img)
	case <-time.After(100 * time.Millisecond):
	}
}

func waitImage(t *testing.T, images <-chan domain.Session) domain.Session {
	t.Helper()
	select {
	case img := <-images:
		return img
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for feed image")
		return domain.Session{}
	}
}
