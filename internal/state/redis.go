package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps shared state in Redis so it survives restarts and can be
// shared by a standby instance.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "choirbot:"}, nil
}

func (s *RedisStore) shardsKey() string {
	return s.prefix + "shards"
}

func (s *RedisStore) clarifyKey(userID int64) string {
	return s.prefix + "clarify:" + strconv.FormatInt(userID, 10)
}

func (s *RedisStore) ShardMessageIDs(ctx context.Context) ([]int, error) {
	data, err := s.client.Get(ctx, s.shardsKey()).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read shard ids: %w", err)
	}
	var ids []int
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal shard ids: %w", err)
	}
	return ids, nil
}

func (s *RedisStore) SaveShardMessageIDs(ctx context.Context, ids []int) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal shard ids: %w", err)
	}
	if err := s.client.Set(ctx, s.shardsKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("save shard ids: %w", err)
	}
	return nil
}

func (s *RedisStore) Clarification(ctx context.Context, userID int64) (Clarification, bool, error) {
	data, err := s.client.Get(ctx, s.clarifyKey(userID)).Result()
	if err == redis.Nil {
		return Clarification{}, false, nil
	}
	if err != nil {
		return Clarification{}, false, fmt.Errorf("read clarification: %w", err)
	}
	var c Clarification
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return Clarification{}, false, fmt.Errorf("unmarshal clarification: %w", err)
	}
	return c, true, nil
}

func (s *RedisStore) SetClarification(ctx context.Context, userID int64, c Clarification) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal clarification: %w", err)
	}
	if err := s.client.Set(ctx, s.clarifyKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("save clarification: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearClarification(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, s.clarifyKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear clarification: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
