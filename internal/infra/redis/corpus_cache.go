package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"railprep/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CorpusLoader fetches the question corpus from a backing store.
type CorpusLoader interface {
	LoadAll(ctx context.Context) ([]domain.Question, error)
}

// CorpusCache keeps the serialized corpus in Redis and falls back to the
// loader on cache miss, so restarts and sibling processes skip the database.
type CorpusCache struct {
	client *redis.Client
	loader CorpusLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

const corpusKey = "quiz:corpus"

func NewCorpusCache(client *redis.Client, loader CorpusLoader, ttl time.Duration) *CorpusCache {
	return &CorpusCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CorpusCache) LoadAll(ctx context.Context) ([]domain.Question, error) {
	if questions, ok := c.fromCache(ctx); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(corpusKey, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if questions, ok := c.fromCache(ctx); ok {
			return questions, nil
		}

		questions, err := c.loader.LoadAll(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(questions); err == nil {
			// best-effort: a failed cache write only costs the next reload
			_ = c.client.Set(ctx, corpusKey, data, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *CorpusCache) fromCache(ctx context.Context) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, corpusKey).Result()
	if err != nil || raw == "" {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (c *CorpusCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
