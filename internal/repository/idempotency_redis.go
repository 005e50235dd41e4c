package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GoPolymarket/whaleledger/internal/model"
)

const idempotencyPrefix = "whaleledger:idem:"

// RedisIdempotencyStore shares idempotency keys across server instances.
type RedisIdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisIdempotencyStore(rdb *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisIdempotencyStore{rdb: rdb, ttl: ttl}
}

func (s *RedisIdempotencyStore) GetOrLock(ctx context.Context, key string) (*model.IdempotencyRecord, bool, error) {
	lock, err := json.Marshal(model.IdempotencyRecord{Processing: true, CreatedAt: time.Now().UTC()})
	if err != nil {
		return nil, false, err
	}
	ok, err := s.rdb.SetNX(ctx, idempotencyPrefix+key, lock, s.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if ok {
		return nil, false, nil
	}

	raw, err := s.rdb.Get(ctx, idempotencyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; treat as in progress
		return &model.IdempotencyRecord{Processing: true}, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	var rec model.IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

func (s *RedisIdempotencyStore) Save(ctx context.Context, key string, status int, body []byte) error {
	payload, err := json.Marshal(model.IdempotencyRecord{
		Status:    status,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, idempotencyPrefix+key, payload, s.ttl).Err()
}

func (s *RedisIdempotencyStore) Unlock(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, idempotencyPrefix+key).Err()
}
