package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/payledger/internal/platform/logger"
)

const DefaultChannel = "payments"

type redisBus struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
}

// NewRedisBus publishes on a shared client. Close does not close the client.
func NewRedisBus(log *logger.Logger, rdb goredis.UniversalClient, channel string) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultChannel
	}
	return &redisBus{
		log:     log.With("service", "RedisLedgerBus", "channel", channel),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, ev LedgerEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *redisBus) Subscribe(ctx context.Context, onEvent func(ev LedgerEvent)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		b.forward(ctx, sub.Channel(), onEvent)
	}()
	return nil
}

// forward decodes channel payloads until ctx ends or ch closes. Bad payloads are skipped.
func (b *redisBus) forward(ctx context.Context, ch <-chan *goredis.Message, onEvent func(ev LedgerEvent)) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			ev, err := decodeEvent(m.Payload)
			if err != nil {
				b.log.Warn("Bad ledger event payload", "error", err)
				continue
			}
			onEvent(ev)
		}
	}
}

func (b *redisBus) Close() error { return nil }

func decodeEvent(payload string) (LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return LedgerEvent{}, err
	}
	if ev.Type == "" {
		return LedgerEvent{}, fmt.Errorf("event type missing")
	}
	return ev, nil
}
