package redisStore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/pdfqa/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

var (
	instances = make(map[string]*Store)
	mu        sync.RWMutex
	logger    = logger_i.NewLogger("Redis Store")
	once      sync.Once
)

type Store struct {
	client *redis.Client
	DB     int
}

// GetRedisStore returns the shared store for addr and db, connecting on first use.
// Clients are closed when ctx is done.
func GetRedisStore(ctx context.Context, addr string, db int) (*Store, error) {
	key := fmt.Sprintf("%s/%d", addr, db)

	mu.RLock()
	instance, exists := instances[key]
	mu.RUnlock()
	if exists {
		return instance, nil
	}

	mu.Lock()
	defer mu.Unlock()
	if instance, exists = instances[key]; exists {
		return instance, nil
	}
	return createNewStore(ctx, key, addr, db)
}

func createNewStore(ctx context.Context, key string, addr string, db int) (*Store, error) {
	newClient := redis.NewClient(&redis.Options{
		Addr:                  addr,
		DB:                    db,
		ContextTimeoutEnabled: true,
		ReadTimeout:           3 * time.Second,
		WriteTimeout:          3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := newClient.Ping(pingCtx).Err(); err != nil {
		_ = newClient.Close()
		logger.Error("Redis is offline", "addr", addr, "error", err)
		return nil, fmt.Errorf("redis %s unreachable: %w", addr, err)
	}
	logger.Info("Redis store init successfully", "addr", addr, "db", db)

	newStore := &Store{client: newClient, DB: db}
	instances[key] = newStore
	once.Do(func() {
		go closeRedisStores(ctx)
	})
	return newStore, nil
}

func closeRedisStores(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Redis Stores")
	mu.Lock()
	defer mu.Unlock()
	for key, store := range instances {
		if err := store.client.Close(); err != nil {
			logger.Error("Error closing redis client", "error", err)
		}
		delete(instances, key)
	}
	logger.Info("Redis Store Closed successfully")
}

// NewTestStore wraps an existing client, used with miniredis in tests.
func NewTestStore(client *redis.Client) *Store {
	return &Store{client: client}
}
