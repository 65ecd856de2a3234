package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	id "ivory/pkg/domain"
	"ivory/pkg/platform/sentinel"
)

var storeOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "ivory_session_store_duration_ms",
	Help:    "Latency of session store operations in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
}, []string{"op"})

const keyPrefix = "ivory:"

// RedisStore is the production Store. Keys are "ivory:<session>:<key>".
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed session store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(sessionID id.SessionID, key string) string {
	return keyPrefix + sessionID.String() + ":" + key
}

func observe(op string, start time.Time) {
	storeOpDuration.WithLabelValues(op).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}

func (s *RedisStore) Get(ctx context.Context, sessionID id.SessionID, key string) (string, error) {
	defer observe("get", time.Now())
	value, err := s.client.Get(ctx, redisKey(sessionID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("answer %s: %w", key, sentinel.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get answer %s: %w: %w", key, sentinel.ErrUnavailable, err)
	}
	return value, nil
}

// Set uses SET with expiry so value and TTL are written atomically.
func (s *RedisStore) Set(ctx context.Context, sessionID id.SessionID, key, value string, ttl time.Duration) error {
	defer observe("set", time.Now())
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	if err := s.client.Set(ctx, redisKey(sessionID, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("set answer %s: %w: %w", key, sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID id.SessionID, key string) error {
	defer observe("delete", time.Now())
	if err := s.client.Del(ctx, redisKey(sessionID, key)).Err(); err != nil {
		return fmt.Errorf("delete answer %s: %w: %w", key, sentinel.ErrUnavailable, err)
	}
	return nil
}
