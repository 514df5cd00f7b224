package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"railprep/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CorpusLoader fetches the question corpus from a backing store.
type CorpusLoader interface {
	LoadAll(ctx context.Context) ([]domain.Question, error)
}

// CorpusCache caches the corpus with TTL to avoid repeated backing-store
// hits when the bank is rebuilt or the seed command re-reads.
type CorpusCache struct {
	loader CorpusLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	questions []domain.Question
	expiresAt time.Time
}

func NewCorpusCache(loader CorpusLoader, ttl time.Duration) *CorpusCache {
	return &CorpusCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CorpusCache) LoadAll(ctx context.Context) ([]domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if c.questions != nil && c.expiresAt.After(now) {
		questions := c.questions
		c.mu.RUnlock()
		return questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("corpus", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.questions != nil && c.expiresAt.After(now) {
			questions := c.questions
			c.mu.RUnlock()
			return questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.loader.LoadAll(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.questions = questions
		c.expiresAt = now.Add(c.ttlWithJitter())
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *CorpusCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticCorpus serves a fixed slice of questions (tests, demos, and the
// bundled-file fallback when no database is configured).
type StaticCorpus struct {
	questions []domain.Question
}

func NewStaticCorpus(questions []domain.Question) *StaticCorpus {
	return &StaticCorpus{questions: questions}
}

func (s *StaticCorpus) LoadAll(_ context.Context) ([]domain.Question, error) {
	return s.questions, nil
}
