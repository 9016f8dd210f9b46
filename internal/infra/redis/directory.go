package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/domain"
)

const connectionSortKey = "connection"

// connectionRecord is the stored envelope of a directory entry; its sort
// key keeps change-feed consumers from mistaking it for a status record.
type connectionRecord struct {
	SK string `json:"sk"`
	domain.DirectoryEntry
}

// Directory keeps one record per live connection in Redis, keyed by
// connection id. The record TTL doubles as the passive expiry sweep for
// connections that dropped without a disconnect event; every bind
// refreshes it. Entries are never shared across connections, so plain
// read-modify-write suffices.
type Directory struct {
	client *redis.Client
	ttl    time.Duration
	clock  func() time.Time
}

func NewDirectory(client *redis.Client, ttl time.Duration) *Directory {
	return &Directory{client: client, ttl: ttl, clock: time.Now}
}

func (d *Directory) Bind(ctx context.Context, connectionID, userID string) error {
	return d.mutate(ctx, connectionID, func(entry *domain.DirectoryEntry) {
		entry.UserID = userID
	})
}

func (d *Directory) JoinSession(ctx context.Context, connectionID, quizID string) error {
	return d.mutate(ctx, connectionID, func(entry *domain.DirectoryEntry) {
		entry.Quizzes = appendUnique(entry.Quizzes, quizID)
	})
}

func (d *Directory) HostSession(ctx context.Context, connectionID, key string) error {
	return d.mutate(ctx, connectionID, func(entry *domain.DirectoryEntry) {
		entry.HostOf = appendUnique(entry.HostOf, key)
	})
}

func (d *Directory) Get(ctx context.Context, connectionID string) (domain.DirectoryEntry, bool, error) {
	raw, err := d.client.Get(ctx, d.key(connectionID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.DirectoryEntry{}, false, nil
	}
	if err != nil {
		return domain.DirectoryEntry{}, false, err
	}
	var rec connectionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.DirectoryEntry{}, false, err
	}
	return rec.DirectoryEntry, true, nil
}

func (d *Directory) Delete(ctx context.Context, connectionID string) error {
	return d.client.Del(ctx, d.key(connectionID)).Err()
}

func (d *Directory) mutate(ctx context.Context, connectionID string, apply func(*domain.DirectoryEntry)) error {
	entry, _, err := d.Get(ctx, connectionID)
	if err != nil {
		return err
	}
	entry.ConnectionID = connectionID
	entry.ExpiresAt = d.clock().Add(d.ttl)
	apply(&entry)

	data, err := json.Marshal(connectionRecord{SK: connectionSortKey, DirectoryEntry: entry})
	if err != nil {
		return err
	}
	if err := d.client.Set(ctx, d.key(connectionID), data, d.ttl).Err(); err != nil {
		return err
	}
	_ = d.client.Publish(ctx, feedChannel, data).Err()
	return nil
}

func (d *Directory) key(connectionID string) string {
	return "conn:" + connectionID
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
