package aggregates

import (
	"strings"
	"testing"
	"time"

	domainagg "github.com/yungbote/payledger/internal/domain/aggregates"
	"github.com/yungbote/payledger/internal/observability"
)

func TestObservabilityHooks_BoundLabels(t *testing.T) {
	m := observability.New()
	h := NewObservabilityHooks(m)

	h.ObserveOperation(domainagg.OpIngest, "success", time.Millisecond)
	h.ObserveOperation(" "+domainagg.OpRevise+" ", "conflict", time.Millisecond)
	h.ObserveOperation("payments.ledger.purge", "success", time.Millisecond)
	h.ObserveOperation(domainagg.OpIngest, "driver exploded", time.Millisecond)
	h.IncConflict(domainagg.OpRevise)
	h.IncRetry("adhoc.write")

	var out strings.Builder
	if err := m.WritePrometheus(&out); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	body := out.String()
	for _, want := range []string{
		`payledger_ledger_operations_total{operation="payments.ledger.ingest",status="success"} 1`,
		`payledger_ledger_operations_total{operation="payments.ledger.revise",status="conflict"} 1`,
		`payledger_ledger_operations_total{operation="other",status="success"} 1`,
		`payledger_ledger_operations_total{operation="payments.ledger.ingest",status="failure"} 1`,
		`payledger_ledger_conflicts_total{operation="payments.ledger.revise"} 1`,
		`payledger_ledger_retryable_total{operation="other"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q\n%s", want, body)
		}
	}
	if strings.Contains(body, "payments.ledger.purge") || strings.Contains(body, "driver exploded") {
		t.Fatalf("unbounded label leaked:\n%s", body)
	}
}

func TestObservabilityHooks_NilMetrics(t *testing.T) {
	if _, ok := NewObservabilityHooks(nil).(noopHooks); !ok {
		t.Fatalf("nil metrics must yield noop hooks")
	}
}
