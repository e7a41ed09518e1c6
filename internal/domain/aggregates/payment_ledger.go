package aggregates

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/payledger/internal/domain/payments"
)

const (
	OpIngest          = "payments.ledger.ingest"
	OpAttachDuplicate = "payments.ledger.attach_duplicate"
	OpRevise          = "payments.ledger.revise"
	OpListPending     = "payments.ledger.list_pending"
)

var PaymentLedgerContract = Contract{
	Name:             "Payments.PaymentLedger",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Operations: []string{
		OpIngest,
		OpAttachDuplicate,
		OpRevise,
		OpListPending,
	},
	Notes: "Owns the one-fingerprint-one-payment invariant: insert-or-attach-duplicate on ingest and fingerprint recomputation on revise.",
}

// PaymentLedger owns canonical payment records and their evidence.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodePersistence, CodeRetryable, CodeInternal.
type PaymentLedger interface {
	Aggregate

	// Ingest stores a new canonical payment or attaches the submission as evidence
	// to the payment that already owns its fingerprint.
	Ingest(ctx context.Context, in IngestPaymentInput) (IngestPaymentResult, error)

	// Revise merges reviewer corrections onto a payment and recomputes its fingerprint.
	Revise(ctx context.Context, in RevisePaymentInput) (RevisePaymentResult, error)

	// ListPending returns needs_review payments, newest effective time first.
	ListPending(ctx context.Context, in ListPendingInput) ([]payments.CanonicalPayment, error)
}

type IngestPaymentInput struct {
	Request payments.IngestRequest
}

type IngestPaymentResult struct {
	Status      payments.IngestStatus
	PaymentID   uuid.UUID
	EvidenceID  uuid.UUID
	Tier        payments.Tier
	Fingerprint string
	// BranchID is the submission's normalized branch, nil when unassigned.
	BranchID *string
	// Raced is set when a concurrent insert won and the submission fell back to duplicate.
	Raced bool
}

type RevisePaymentInput struct {
	PaymentID  uuid.UUID
	Correction payments.Correction
}

type RevisePaymentResult struct {
	Payment             payments.CanonicalPayment
	PreviousFingerprint string
	PreviousState       payments.State
	EvidenceID          *uuid.UUID
}

func (r RevisePaymentResult) FingerprintChanged() bool {
	return r.PreviousFingerprint != r.Payment.Fingerprint
}

type ListPendingInput struct {
	// BranchID restricts results to one branch when set.
	BranchID *string
	// IncludeUnassigned adds payments without a branch to a branch-scoped listing.
	IncludeUnassigned bool
	Limit             int
}

// FingerprintCollision is the cause attached to a CodeConflict error when a revision
// would give a payment the fingerprint already owned by another payment.
type FingerprintCollision struct {
	PaymentID   uuid.UUID
	ExistingID  uuid.UUID
	Fingerprint string
}

func (c *FingerprintCollision) Error() string {
	if c == nil {
		return "<nil>"
	}
	if c.ExistingID == uuid.Nil {
		return fmt.Sprintf("payment %s: fingerprint already owned by another payment", c.PaymentID)
	}
	return fmt.Sprintf("payment %s: fingerprint already owned by payment %s", c.PaymentID, c.ExistingID)
}
