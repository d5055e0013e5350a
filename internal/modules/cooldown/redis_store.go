package cooldown

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis so cooldowns survive restarts and
// can be shared across processes. One hash per game: field = user id,
// value = expiry in unix nanoseconds.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a Redis-backed cooldown store
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		ttl: 24 * time.Hour, // hashes self-expire long after any cooldown
	}
}

func gameKey(gameID int64) string {
	return fmt.Sprintf("cooldown:%d", gameID)
}

func (s *RedisStore) Set(ctx context.Context, gameID, userID int64, expiry time.Time) error {
	key := gameKey(gameID)

	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, strconv.FormatInt(userID, 10), expiry.UnixNano())
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Get(ctx context.Context, gameID, userID int64) (time.Time, bool, error) {
	val, err := s.rdb.HGet(ctx, gameKey(gameID), strconv.FormatInt(userID, 10)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	nanos, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt cooldown value %q: %w", val, err)
	}
	return time.Unix(0, nanos), true, nil
}

func (s *RedisStore) Delete(ctx context.Context, gameID, userID int64) error {
	return s.rdb.HDel(ctx, gameKey(gameID), strconv.FormatInt(userID, 10)).Err()
}

func (s *RedisStore) DeleteGame(ctx context.Context, gameID int64) error {
	return s.rdb.Del(ctx, gameKey(gameID)).Err()
}
