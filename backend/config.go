package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yeseung/omok-extension/game"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

const maxBoardSize = 25

var ErrInvalidConfig = errors.New("invalid config")

// Config tags carry go-zero defaults; keep them in sync with DefaultConfig.
type Config struct {
	Addr              string `json:"addr,default=:8080"`
	BoardSize         int    `json:"board_size,default=15"`
	AiDelayMs         int    `json:"ai_delay_ms,default=500"`
	SessionTTLSeconds int    `json:"session_ttl_seconds,default=3600"`
	PointsWin         int64  `json:"points_win,default=100"`
	PointsLoss        int64  `json:"points_loss,default=-100"`
	PointsUndoCost    int64  `json:"points_undo_cost,default=0"`
	PointsRedisHost   string `json:"points_redis_host,optional"`
	PointsRedisType   string `json:"points_redis_type,default=node,options=node|cluster"`
	PointsRedisPass   string `json:"points_redis_pass,optional"`
	EnableProfiler    bool   `json:"enable_profiler,optional"`
	LogLevel          string `json:"log_level,default=info,options=debug|info|error|severe"`
}

func DefaultConfig() Config {
	return Config{
		Addr:      ":8080",
		BoardSize: game.DefaultBoardSize,

		// Pause before the AI answers so the human sees their own stone land.
		AiDelayMs: 500,

		SessionTTLSeconds: 3600,

		PointsWin:       100,
		PointsLoss:      -100,
		PointsUndoCost:  0,
		PointsRedisType: redis.NodeType,

		LogLevel: "info",
	}
}

// LoadConfig reads path on top of the defaults. An empty path keeps the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := conf.Load(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.BoardSize < game.WinLength || c.BoardSize > maxBoardSize {
		errs = append(errs, fmt.Errorf("board_size must be within [%d, %d], got %d", game.WinLength, maxBoardSize, c.BoardSize))
	}
	if c.AiDelayMs < 0 {
		errs = append(errs, fmt.Errorf("ai_delay_ms must not be negative, got %d", c.AiDelayMs))
	}
	if c.SessionTTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("session_ttl_seconds must not be negative, got %d", c.SessionTTLSeconds))
	}
	if c.PointsUndoCost < 0 {
		errs = append(errs, fmt.Errorf("points_undo_cost must not be negative, got %d", c.PointsUndoCost))
	}
	return errors.Join(errs...)
}

func (c Config) AiDelay() time.Duration {
	return time.Duration(c.AiDelayMs) * time.Millisecond
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

func (c Config) LogConf() logx.LogConf {
	return logx.LogConf{
		ServiceName: "omok-backend",
		Mode:        "console",
		Encoding:    "plain",
		Level:       c.LogLevel,
	}
}

func (c Config) RedisConf() redis.RedisConf {
	return redis.RedisConf{
		Host: c.PointsRedisHost,
		Type: c.PointsRedisType,
		Pass: c.PointsRedisPass,
	}
}

type ConfigStore struct {
	mu     sync.RWMutex
	config Config
}

func NewConfigStore(config Config) *ConfigStore {
	return &ConfigStore{config: config}
}

func (c *ConfigStore) Get() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// Update swaps in newConfig if it validates. Running sessions read the store
// on every move; the board size applies to sessions created afterwards.
func (c *ConfigStore) Update(newConfig Config) error {
	if err := newConfig.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()
	return nil
}
