package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// HostRegistry maps an authoring key to the set of connections hosting
// that quiz, as a Redis set.
type HostRegistry struct {
	client *redis.Client
}

func NewHostRegistry(client *redis.Client) *HostRegistry {
	return &HostRegistry{client: client}
}

func (r *HostRegistry) Add(ctx context.Context, key, connectionID string) error {
	return r.client.SAdd(ctx, r.setKey(key), connectionID).Err()
}

func (r *HostRegistry) Remove(ctx context.Context, key, connectionID string) error {
	return r.client.SRem(ctx, r.setKey(key), connectionID).Err()
}

func (r *HostRegistry) Connections(ctx context.Context, key string) ([]string, error) {
	return r.client.SMembers(ctx, r.setKey(key)).Result()
}

func (r *HostRegistry) setKey(key string) string {
	return "quiz:host:" + key
}
