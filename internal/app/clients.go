package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/payledger/internal/platform/logger"
	"github.com/yungbote/payledger/internal/realtime/bus"
)

type Clients struct {
	Redis  goredis.UniversalClient
	Events bus.Bus
}

// wireClients falls back to the in-process bus when REDIS_ADDR is unset.
func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set; ledger events stay in-process")
		return Clients{Events: bus.NewMemoryBus()}, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.RedisAddr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("redis ping: %w", err)
	}

	events, err := bus.NewRedisBus(log, rdb, cfg.RedisChannel)
	if err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("init event bus: %w", err)
	}
	return Clients{Redis: rdb, Events: events}, nil
}

func (c Clients) Close() {
	if c.Events != nil {
		_ = c.Events.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
