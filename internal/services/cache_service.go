package services

import (
	"context"
	"fmt"
	"time"

	"groundlink/pkg/cache"

	"github.com/google/uuid"
)

// CacheService covers the two things the booking core needs from
// Redis: a per-booking mutation lock and the fire-and-forget event
// channel. Plain cache operations are exposed for boundary code.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// Lock operations
	Lock(ctx context.Context, key string, expiration time.Duration) (*DistributedLock, error)
	Unlock(ctx context.Context, lock *DistributedLock) error

	Publish(ctx context.Context, channel string, message interface{}) error
	Ping(ctx context.Context) error
}

type DistributedLock struct {
	Key        string        `json:"key"`
	Value      string        `json:"value"`
	Expiration time.Duration `json:"expiration"`
	CreatedAt  time.Time     `json:"created_at"`
}

type cacheService struct {
	redis     *cache.RedisCache
	keyPrefix string
}

func NewCacheService(redisCache *cache.RedisCache, keyPrefix string) CacheService {
	return &cacheService{
		redis:     redisCache,
		keyPrefix: keyPrefix,
	}
}

func (s *cacheService) buildKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", s.keyPrefix, key)
}

func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	return s.redis.Get(ctx, s.buildKey(key), dest)
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.redis.Set(ctx, s.buildKey(key), value, expiration)
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = s.buildKey(key)
	}
	return s.redis.Delete(ctx, fullKeys...)
}

func (s *cacheService) Lock(ctx context.Context, key string, expiration time.Duration) (*DistributedLock, error) {
	lockKey := s.buildKey(fmt.Sprintf("lock:%s", key))
	lockValue := uuid.NewString()

	success, err := s.redis.SetNX(ctx, lockKey, lockValue, expiration)
	if err != nil {
		return nil, err
	}
	if !success {
		return nil, fmt.Errorf("failed to acquire lock for %s", key)
	}

	return &DistributedLock{
		Key:        lockKey,
		Value:      lockValue,
		Expiration: expiration,
		CreatedAt:  time.Now(),
	}, nil
}

func (s *cacheService) Unlock(ctx context.Context, lock *DistributedLock) error {
	return s.redis.ReleaseLock(ctx, lock.Key, lock.Value)
}

func (s *cacheService) Publish(ctx context.Context, channel string, message interface{}) error {
	return s.redis.Publish(ctx, channel, message)
}

func (s *cacheService) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx)
}
