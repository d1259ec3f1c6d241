package store

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// InMemoryAnswerCache is a bounded LRU with per-entry expiry. Used when no redis is configured.
type InMemoryAnswerCache struct {
	entries *expirable.LRU[string, string]
}

// InitAnswerCache holds at most maxSize answers, each for ttl. A ttl of zero keeps
// answers until they are evicted.
func InitAnswerCache(ttl time.Duration, maxSize int) *InMemoryAnswerCache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &InMemoryAnswerCache{entries: expirable.NewLRU[string, string](maxSize, nil, ttl)}
}

func (c *InMemoryAnswerCache) Get(ctx context.Context, key string) (string, bool, error) {
	answer, ok := c.entries.Get(key)
	return answer, ok, nil
}

func (c *InMemoryAnswerCache) Set(ctx context.Context, key string, answer string) error {
	c.entries.Add(key, answer)
	return nil
}

func (c *InMemoryAnswerCache) Len() int {
	return c.entries.Len()
}
