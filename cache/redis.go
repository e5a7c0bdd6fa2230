package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"TianHe-LiveSim/config"
	"TianHe-LiveSim/model"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore 带过期时间的 Redis 缓存
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient 创建并检查 Redis 连接
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) BuildKey(roomID string) string {
	return fmt.Sprintf("%s:room:%s", s.prefix, roomID)
}

func (s *RedisStore) Load(ctx context.Context, roomID string) (*model.RoomState, error) {
	data, err := s.client.Get(ctx, s.BuildKey(roomID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCacheMiss
		}
		return nil, pkgerrors.Wrap(err, "get room state")
	}

	var state model.RoomState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, pkgerrors.Wrap(err, "unmarshal room state")
	}
	return &state, nil
}

func (s *RedisStore) Save(ctx context.Context, state *model.RoomState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return pkgerrors.Wrap(err, "marshal room state")
	}
	if err := s.client.Set(ctx, s.BuildKey(state.RoomID), data, s.ttl).Err(); err != nil {
		return pkgerrors.Wrap(err, "set room state")
	}
	return nil
}
