package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveLedgerOperation("payments.ledger.ingest", "success", time.Millisecond)
	m.IncLedgerConflict("payments.ledger.ingest")
	m.IncIngestOutcome("duplicate", "clearing")
	m.APIInflightInc()
	if got := m.IngestOutcomes("duplicate", "clearing"); got != 0 {
		t.Fatalf("nil metrics must read zero, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.WriteHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 503 {
		t.Fatalf("nil metrics endpoint: want=503 got=%d", rec.Code)
	}
}

func TestMetrics_LedgerSeries(t *testing.T) {
	m := New()
	m.ObserveLedgerOperation("payments.ledger.ingest", "success", 20*time.Millisecond)
	m.ObserveLedgerOperation("payments.ledger.ingest", "success", 2*time.Second)
	m.IncLedgerConflict("payments.ledger.ingest")
	m.IncIngestOutcome("needs_review", "heuristic")
	m.IncIngestOutcome("needs_review", "heuristic")
	m.IncRevision("clearing", true)

	if got := m.IngestOutcomes("needs_review", "heuristic"); got != 2 {
		t.Fatalf("ingest outcome counter: want=2 got=%v", got)
	}
	if got := m.ledgerLatency.Count("payments.ledger.ingest", "success"); got != 2 {
		t.Fatalf("latency observations: want=2 got=%d", got)
	}

	rec := httptest.NewRecorder()
	m.WriteHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`# TYPE payledger_ledger_operations_total counter`,
		`payledger_ledger_operations_total{operation="payments.ledger.ingest",status="success"} 2`,
		`payledger_ledger_conflicts_total{operation="payments.ledger.ingest"} 1`,
		`payledger_ingest_outcomes_total{status="needs_review",tier="heuristic"} 2`,
		`payledger_revisions_total{tier="clearing",fingerprint_changed="true"} 1`,
		`payledger_ledger_operation_duration_seconds_bucket{operation="payments.ledger.ingest",status="success",le="0.025"} 1`,
		`payledger_ledger_operation_duration_seconds_bucket{operation="payments.ledger.ingest",status="success",le="+Inf"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q\n%s", want, body)
		}
	}
}

func TestLabelString_EscapesAndDefaults(t *testing.T) {
	got := labelString([]string{"a", "b"}, []string{`x"y`})
	if got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("labelString: %s", got)
	}
	if got := withLe("", "1"); got != `{le="1"}` {
		t.Fatalf("withLe empty: %s", got)
	}
}

func TestParseHeaders(t *testing.T) {
	h := ParseHeaders(" api-key = abc , broken, =x ,tenant=t1")
	if len(h) != 2 || h["api-key"] != "abc" || h["tenant"] != "t1" {
		t.Fatalf("headers: %v", h)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("empty header string must parse to nil")
	}
}
