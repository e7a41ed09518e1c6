package observability

import (
	"context"

	"github.com/yungbote/payledger/internal/platform/logger"
	"github.com/yungbote/payledger/internal/realtime/bus"
)

// ConsumeLedgerEvents counts every event seen on b until ctx ends. With the redis
// bus this includes events published by other instances.
func (m *Metrics) ConsumeLedgerEvents(ctx context.Context, log *logger.Logger, b bus.Bus) error {
	if m == nil || b == nil {
		return nil
	}
	return b.Subscribe(ctx, func(ev bus.LedgerEvent) {
		branch := "unassigned"
		if ev.BranchID != nil && *ev.BranchID != "" {
			branch = *ev.BranchID
		}
		m.eventsSeen.Inc(string(ev.Type), branch)
		if log != nil {
			log.Debug("Ledger event seen", "type", ev.Type, "payment_id", ev.PaymentID, "branch", branch)
		}
	})
}

// EventsSeen reads one seen-events counter.
func (m *Metrics) EventsSeen(eventType, branch string) float64 {
	if m == nil {
		return 0
	}
	return m.eventsSeen.Value(eventType, branch)
}
