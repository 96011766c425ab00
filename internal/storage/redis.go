package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore reads routes from a Redis hash: field = path, value = JSON
// target map ({"android": {...}, "default": "https://..."}).
type RedisStore struct {
	rdb *redis.Client
	key string
}

// OpenRedis connects to url and validates connectivity via PING.
func OpenRedis(ctx context.Context, url, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{rdb: rdb, key: key}, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) Client() *redis.Client {
	return s.rdb
}

func (s *RedisStore) LoadRoutes(ctx context.Context) ([]RouteRow, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	fields, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", s.key, err)
	}
	return decodeHash(fields)
}

// decodeHash turns HGETALL output into routes sorted by path, since hash
// order is unspecified.
func decodeHash(fields map[string]string) ([]RouteRow, error) {
	out := make([]RouteRow, 0, len(fields))
	for path, raw := range fields {
		var targets map[string]TargetRow
		if err := json.Unmarshal([]byte(raw), &targets); err != nil {
			return nil, fmt.Errorf("route %s: %w", path, err)
		}
		out = append(out, RouteRow{Path: path, Targets: targets})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
