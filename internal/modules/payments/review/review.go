// Package review holds the payment lifecycle rules.
//
// A payment is created ok when the submitter confirmed it and needs_review otherwise.
// Reviewers move it between the two states by revising it; there is no terminal
// rejection state.
package review

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/payledger/internal/domain/payments"
)

var ErrUnknownState = errors.New("unknown payment state")

// Trigger is what caused a state change.
type Trigger string

const (
	TriggerIngest Trigger = "ingest"
	TriggerReview Trigger = "review"
)

// Initial is the state of a newly created payment.
func Initial(confirmed bool) payments.State {
	if confirmed {
		return payments.StateOK
	}
	return payments.StateNeedsReview
}

// IngestStatus reports the outcome of a fresh insert in the given state.
func IngestStatus(s payments.State) payments.IngestStatus {
	if s == payments.StateOK {
		return payments.StatusInserted
	}
	return payments.StatusNeedsReview
}

// TargetOf resolves a reviewer's requested state. No request approves the payment.
func TargetOf(target *payments.State) (payments.State, error) {
	if target == nil {
		return payments.StateOK, nil
	}
	s := payments.State(strings.ToLower(strings.TrimSpace(string(*target))))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, string(*target))
	}
	return s, nil
}

// Apply returns the state after trigger fires on a payment currently in from.
// Ingestion only creates; on an existing payment it is a no-op (duplicate evidence
// never changes the payment).
func Apply(from payments.State, trigger Trigger, confirmed bool, target *payments.State) (payments.State, error) {
	switch trigger {
	case TriggerIngest:
		if from == "" {
			return Initial(confirmed), nil
		}
		if !from.Valid() {
			return "", fmt.Errorf("%w: %q", ErrUnknownState, string(from))
		}
		return from, nil
	case TriggerReview:
		if !from.Valid() {
			return "", fmt.Errorf("%w: %q", ErrUnknownState, string(from))
		}
		return TargetOf(target)
	default:
		return "", fmt.Errorf("unknown trigger %q", string(trigger))
	}
}
