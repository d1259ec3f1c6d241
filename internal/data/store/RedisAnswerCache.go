package store

import (
	"context"
	"time"

	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/data/redisStore"
	"github.com/akolanti/pdfqa/pkg/logger_i"
)

const answerKeyPrefix = "pdfqa:answer:"

// RedisAnswerCache keeps answers in redis with a TTL, so they survive restarts and
// are shared between replicas.
type RedisAnswerCache struct {
	store  *redisStore.Store
	ttl    time.Duration
	logger *logger_i.Logger
}

func GetRedisAnswerCache(ctx context.Context, cfg config.CacheConfig) (*RedisAnswerCache, error) {
	s, err := redisStore.GetRedisStore(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	return NewRedisAnswerCache(s, cfg.TTL), nil
}

func NewRedisAnswerCache(s *redisStore.Store, ttl time.Duration) *RedisAnswerCache {
	return &RedisAnswerCache{
		store:  s,
		ttl:    ttl,
		logger: logger_i.NewLogger("AnswerCache"),
	}
}

func (c *RedisAnswerCache) Get(ctx context.Context, key string) (string, bool, error) {
	answer, err := c.store.Get(ctx, answerKeyPrefix+key)
	if c.store.IsNil(err) {
		return "", false, nil
	}
	if err != nil {
		c.logger.WithTrace(ctx, config.TRACE_ID_KEY).Error("Error reading answer", "error", err)
		return "", false, err
	}
	return answer, true, nil
}

func (c *RedisAnswerCache) Set(ctx context.Context, key string, answer string) error {
	return c.store.Set(ctx, answerKeyPrefix+key, answer, c.ttl)
}
