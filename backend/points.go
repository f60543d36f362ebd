package main

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/zeromicro/go-zero/core/stores/redis"
)

const pointsKeyPrefix = "omok:points:"

// PointsStore keeps a running points balance per named player.
type PointsStore interface {
	Add(ctx context.Context, playerID string, delta int64) (int64, error)
	Get(ctx context.Context, playerID string) (int64, error)
}

type memoryPoints struct {
	mu       sync.Mutex
	balances map[string]int64
}

func NewMemoryPoints() PointsStore {
	return &memoryPoints{balances: make(map[string]int64)}
}

func (m *memoryPoints) Add(_ context.Context, playerID string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[playerID] += delta
	return m.balances[playerID], nil
}

func (m *memoryPoints) Get(_ context.Context, playerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[playerID], nil
}

type redisPoints struct {
	client *redis.Redis
}

func NewRedisPoints(conf redis.RedisConf) (PointsStore, error) {
	client, err := redis.NewRedis(conf)
	if err != nil {
		return nil, fmt.Errorf("connect points redis %s: %w", conf.Host, err)
	}
	return &redisPoints{client: client}, nil
}

func (r *redisPoints) Add(ctx context.Context, playerID string, delta int64) (int64, error) {
	return r.client.IncrbyCtx(ctx, pointsKey(playerID), delta)
}

func (r *redisPoints) Get(ctx context.Context, playerID string) (int64, error) {
	val, err := r.client.GetCtx(ctx, pointsKey(playerID))
	if err != nil {
		return 0, err
	}
	if val == "" {
		return 0, nil
	}
	balance, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt balance for %s: %w", playerID, err)
	}
	return balance, nil
}

func pointsKey(playerID string) string {
	return pointsKeyPrefix + playerID
}

// newPointsStore picks Redis when a host is configured.
func newPointsStore(cfg Config) (PointsStore, error) {
	if cfg.PointsRedisHost == "" {
		return NewMemoryPoints(), nil
	}
	return NewRedisPoints(cfg.RedisConf())
}
