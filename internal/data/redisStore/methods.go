package redisStore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func (s *Store) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.client.Set(ctx, key, value, expiration).Err()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	count, err := s.client.Exists(ctx, key).Result()
	return count > 0, err
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

//list helpers back the session message history

func (s *Store) ListPush(ctx context.Context, key string, values ...interface{}) error {
	return s.client.RPush(ctx, key, values...).Err()
}

func (s *Store) ListLen(ctx context.Context, key string) (int64, error) {
	return s.client.LLen(ctx, key).Result()
}

// ListTrimLast drops everything but the newest n elements.
func (s *Store) ListTrimLast(ctx context.Context, key string, n int64) error {
	return s.client.LTrim(ctx, key, -n, -1).Err()
}

// ListGetLast returns the newest n elements, oldest first. n <= 0 returns
// the whole list.
func (s *Store) ListGetLast(ctx context.Context, key string, n int64) ([]string, error) {
	start := int64(0)
	if n > 0 {
		start = -n
	}
	return s.client.LRange(ctx, key, start, -1).Result()
}

//set helpers track the known document ids for stats

func (s *Store) SetAdd(ctx context.Context, key string, member string) error {
	return s.client.SAdd(ctx, key, member).Err()
}

func (s *Store) SetRemove(ctx context.Context, key string, member string) error {
	return s.client.SRem(ctx, key, member).Err()
}

func (s *Store) SetMembers(ctx context.Context, key string) ([]string, error) {
	return s.client.SMembers(ctx, key).Result()
}

func (s *Store) SetCard(ctx context.Context, key string) (int64, error) {
	return s.client.SCard(ctx, key).Result()
}
