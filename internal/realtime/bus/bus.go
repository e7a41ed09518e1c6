// Package bus carries ledger events to whoever listens: other instances, dashboards,
// reconciliation jobs.
package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventPaymentIngested EventType = "payment.ingested"
	EventPaymentRevised  EventType = "payment.revised"
)

// LedgerEvent is published after a ledger write commits.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	PaymentID uuid.UUID `json:"paymentId"`
	Status    string    `json:"status,omitempty"`
	Tier      string    `json:"tier"`
	State     string    `json:"state,omitempty"`
	BranchID  *string   `json:"branchId,omitempty"`
	At        time.Time `json:"at"`
}

type Bus interface {
	Publish(ctx context.Context, ev LedgerEvent) error
	// Subscribe calls onEvent for every event until ctx ends.
	Subscribe(ctx context.Context, onEvent func(ev LedgerEvent)) error
	Close() error
}
