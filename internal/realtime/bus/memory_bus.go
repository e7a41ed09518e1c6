package bus

import (
	"context"
	"sync"
)

// MemoryBus delivers events in process. It backs single-instance deployments
// without Redis and tests.
type MemoryBus struct {
	mu     sync.Mutex
	subs   map[int]func(LedgerEvent)
	nextID int
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: map[int]func(LedgerEvent){}}
}

func (b *MemoryBus) Publish(ctx context.Context, ev LedgerEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	handlers := make([]func(LedgerEvent), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, onEvent func(ev LedgerEvent)) error {
	if onEvent == nil {
		return nil
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = onEvent
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}()
	return nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.subs = map[int]func(LedgerEvent){}
	b.mu.Unlock()
	return nil
}
