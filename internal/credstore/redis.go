package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/winnerx0/jille-client/internal/logging"
	"github.com/winnerx0/jille-client/internal/model"
)

const redisOpTimeout = 3 * time.Second

// RedisStore keeps the credential pair as a single JSON value under one
// key, for sharing a session across processes on the same machine. The
// whole pair is one SET, so sharing is last-writer-wins with no merge.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore connects to redisURL and verifies the connection. The
// key namespaces the session, so two different backends can coexist on
// one Redis instance.
func NewRedisStore(redisURL, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logging.Logger.Debug().Str("key", key).Msg("credstore: redis connected")
	return &RedisStore{rdb: rdb, key: key}, nil
}

func (s *RedisStore) Get() (model.AuthTokens, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return model.AuthTokens{}, false
	}
	if err != nil {
		logging.Logger.Warn().Err(err).Msg("credstore: redis get failed")
		return model.AuthTokens{}, false
	}

	var pair model.AuthTokens
	if err := json.Unmarshal(data, &pair); err != nil {
		return model.AuthTokens{}, false
	}
	return pair, pair.AccessToken != "" && pair.RefreshToken != ""
}

func (s *RedisStore) Set(pair model.AuthTokens) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close shuts down the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
