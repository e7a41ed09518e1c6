package aggregates

import (
	"strings"
	"time"

	domainagg "github.com/yungbote/payledger/internal/domain/aggregates"
	"github.com/yungbote/payledger/internal/observability"
)

// Hooks receives one call per ledger operation, plus conflict and retry signals.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

// ledgerStatuses bounds the status label; anything else is reported as "failure".
var ledgerStatuses = map[string]bool{
	"success":                                true,
	"failure":                                true,
	string(domainagg.CodeValidation):         true,
	string(domainagg.CodeNotFound):           true,
	string(domainagg.CodeConflict):           true,
	string(domainagg.CodeInvariantViolation): true,
	string(domainagg.CodePersistence):        true,
	string(domainagg.CodeRetryable):          true,
	string(domainagg.CodeInternal):           true,
}

type metricsHooks struct {
	metrics  *observability.Metrics
	contract domainagg.Contract
}

// NewObservabilityHooks reports ledger operations to metrics. Operation names outside
// the payment ledger contract are folded into "other".
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return &metricsHooks{metrics: metrics, contract: domainagg.PaymentLedgerContract}
}

func (h *metricsHooks) operation(name string) string {
	name = strings.TrimSpace(name)
	if h.contract.Reports(name) {
		return name
	}
	return "other"
}

func (h *metricsHooks) ObserveOperation(name, status string, dur time.Duration) {
	status = strings.TrimSpace(status)
	if !ledgerStatuses[status] {
		status = "failure"
	}
	h.metrics.ObserveLedgerOperation(h.operation(name), status, dur)
}

func (h *metricsHooks) IncConflict(name string) {
	h.metrics.IncLedgerConflict(h.operation(name))
}

func (h *metricsHooks) IncRetry(name string) {
	h.metrics.IncLedgerRetry(h.operation(name))
}
