package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the backing client interface, satisfied by *redis.Client.
// Kept narrow so RedisStore can also be driven by a redis.Cmdable (cluster
// or ring client) without changes.
type RedisClient = redis.Cmdable

// RedisStore is the Store implementation backed by the real key/value
// store, via go-redis — the same client library the teacher gateway uses
// for its own Redis connectivity (redisclient.New).
type RedisStore struct {
	c RedisClient
}

// NewRedisStore parses a Redis URL the same way the teacher's
// redisclient.New does, and returns a Store bound to it.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return &RedisStore{c: redis.NewClient(opt)}, nil
}

// NewRedisStoreFromClient wraps an already-constructed client.
func NewRedisStoreFromClient(c RedisClient) *RedisStore {
	return &RedisStore{c: c}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.c.Ping(ctx).Err()
}

func (s *RedisStore) HGet(ctx context.Context, key, field string) (string, bool, error) {
	v, err := s.c.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) HSet(ctx context.Context, key, field, value string) error {
	return s.c.HSet(ctx, key, field, value).Err()
}

func (s *RedisStore) HDel(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return s.c.HDel(ctx, key, fields...).Err()
}

func (s *RedisStore) HLen(ctx context.Context, key string) (int64, error) {
	return s.c.HLen(ctx, key).Result()
}

func (s *RedisStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return s.c.HGetAll(ctx, key).Result()
}

func (s *RedisStore) HMGet(ctx context.Context, key string, fields ...string) ([]string, []bool, error) {
	if len(fields) == 0 {
		return nil, nil, nil
	}
	res, err := s.c.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, nil, err
	}
	values := make([]string, len(res))
	found := make([]bool, len(res))
	for i, v := range res {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		values[i] = s
		found[i] = true
	}
	return values, found, nil
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.c.Del(ctx, keys...).Err()
}

func (s *RedisStore) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return s.c.IncrBy(ctx, key, delta).Result()
}

func (s *RedisStore) ZAdd(ctx context.Context, key, member string, score float64) error {
	return s.c.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

func (s *RedisStore) ZIncrBy(ctx context.Context, key, member string, delta float64) (float64, error) {
	return s.c.ZIncrBy(ctx, key, delta, member).Result()
}

func (s *RedisStore) ZScore(ctx context.Context, key, member string) (float64, bool, error) {
	v, err := s.c.ZScore(ctx, key, member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (s *RedisStore) ZRevRangeByScore(ctx context.Context, key string, limit int64) ([]ScoredMember, error) {
	res, err := s.c.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "+inf",
		Count: limit,
	}).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ScoredMember, 0, len(res))
	for _, z := range res {
		member, _ := z.Member.(string)
		out = append(out, ScoredMember{Member: member, Score: z.Score})
	}
	return out, nil
}

func (s *RedisStore) ZUnionStore(ctx context.Context, dest string, keys []string, weights []float64) error {
	return s.c.ZUnionStore(ctx, dest, &redis.ZStore{
		Keys:    keys,
		Weights: weights,
	}).Err()
}
