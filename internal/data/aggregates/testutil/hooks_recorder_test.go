package testutil

import (
	"testing"
	"time"
)

func TestHooksRecorder_CapturesSignals(t *testing.T) {
	h := &HooksRecorder{}
	h.ObserveOperation("payments.ledger.ingest", "success", 10*time.Millisecond)
	h.ObserveOperation("payments.ledger.revise", "not_found", time.Millisecond)
	h.ObserveOperation("payments.ledger.ingest", "conflict", time.Millisecond)
	h.IncConflict("payments.ledger.ingest")
	h.IncRetry("payments.ledger.revise")

	if len(h.Operations) != 3 {
		t.Fatalf("expected 3 op events, got %d", len(h.Operations))
	}
	got := h.Statuses("payments.ledger.ingest")
	if len(got) != 2 || got[0] != "success" || got[1] != "conflict" {
		t.Fatalf("unexpected ingest statuses: %+v", got)
	}
	if len(h.Conflicts) != 1 || h.Conflicts[0] != "payments.ledger.ingest" {
		t.Fatalf("unexpected conflicts: %+v", h.Conflicts)
	}
	if len(h.Retries) != 1 || h.Retries[0] != "payments.ledger.revise" {
		t.Fatalf("unexpected retries: %+v", h.Retries)
	}
}
