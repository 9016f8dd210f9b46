package redis

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/domain"
)

// Feed subscribes to the record change feed and hands every new status
// record image to the handler. Images of other record shapes (directory
// entries) arrive on the same channel and are skipped by sort key.
type Feed struct {
	client  *redis.Client
	handler func(ctx context.Context, sess domain.Session)
	log     *slog.Logger
}

func NewFeed(client *redis.Client, handler func(ctx context.Context, sess domain.Session), log *slog.Logger) *Feed {
	return &Feed{client: client, handler: handler, log: log}
}

// Run consumes the feed until ctx is canceled.
func (f *Feed) Run(ctx context.Context) error {
	sub := f.client.Subscribe(ctx, feedChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			f.handle(ctx, msg.Payload)
		}
	}
}

func (f *Feed) handle(ctx context.Context, payload string) {
	var rec statusRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		f.log.Warn("feed record decode failed", "err", err)
		return
	}
	if rec.SK != statusSortKey {
		return
	}
	f.handler(ctx, rec.Session)
}
