package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"live-quiz-service/internal/domain"
)

// ContentLoader fetches authored quiz content from a backing store
// (e.g., the Postgres authoring tables).
type ContentLoader interface {
	LoadContent(ctx context.Context, quizID string) (domain.QuizContent, error)
}

// ContentRepository caches authored content as JSON in Redis and falls
// back to the loader on a miss. Cache fills are deduplicated with
// singleflight so a cold popular quiz hits the backing store once.
type ContentRepository struct {
	client *redis.Client
	loader ContentLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewContentRepository(client *redis.Client, loader ContentLoader, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ContentRepository) GetContent(ctx context.Context, quizID string) (domain.QuizContent, error) {
	key := r.contentKey(quizID)

	if content, ok, err := r.fromCache(ctx, key); err == nil && ok {
		return content, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if content, ok, err := r.fromCache(ctx, key); err == nil && ok {
			return content, nil
		}

		content, err := r.loader.LoadContent(ctx, quizID)
		if err != nil {
			return domain.QuizContent{}, err
		}

		data, err := json.Marshal(content)
		if err != nil {
			return domain.QuizContent{}, err
		}
		_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		return content, nil
	})
	if err != nil {
		return domain.QuizContent{}, err
	}
	return result.(domain.QuizContent), nil
}

func (r *ContentRepository) fromCache(ctx context.Context, key string) (domain.QuizContent, bool, error) {
	raw, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return domain.QuizContent{}, false, nil
	}
	if err != nil {
		return domain.QuizContent{}, false, err
	}
	var content domain.QuizContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return domain.QuizContent{}, false, err
	}
	return content, true, nil
}

func (r *ContentRepository) contentKey(quizID string) string {
	return "quiz:" + quizID + ":content"
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
