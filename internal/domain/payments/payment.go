package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Method is the closed set of normalized payment methods.
type Method string

const (
	MethodCash         Method = "cash"
	MethodBankTransfer Method = "bank-transfer"
	MethodCard         Method = "card"
	MethodMobileWallet Method = "mobile-wallet"
	MethodOther        Method = "other"
)

// State is the review lifecycle state of a canonical payment.
type State string

const (
	StateNeedsReview State = "needs_review"
	StateOK          State = "ok"
)

func (s State) Valid() bool {
	return s == StateOK || s == StateNeedsReview
}

// Tier names the matching strategy that produced a fingerprint.
type Tier string

const (
	TierClearing    Tier = "clearing"
	TierTransaction Tier = "transaction"
	TierHeuristic   Tier = "heuristic"
)

// IngestStatus is the outcome reported to the submitter.
type IngestStatus string

const (
	StatusInserted    IngestStatus = "inserted"
	StatusNeedsReview IngestStatus = "needs_review"
	StatusDuplicate   IngestStatus = "duplicate"
)

// CanonicalPayment is the single stored record of one real-world payment.
// Fingerprint is unique across the table.
type CanonicalPayment struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BranchID *string   `gorm:"column:branch_id;index" json:"branchId,omitempty"`

	Method Method `gorm:"column:method;not null" json:"method"`
	// MethodRaw keeps the declared token when Method is other.
	MethodRaw string `gorm:"column:method_raw" json:"methodRaw,omitempty"`

	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null" json:"amount"`
	EffectiveAt time.Time       `gorm:"column:effective_at;not null;index" json:"effectiveAt"`
	Reference   *string         `gorm:"column:reference" json:"reference,omitempty"`
	ImageURI    *string         `gorm:"column:image_uri" json:"imageUri,omitempty"`

	State       State  `gorm:"column:state;not null;index" json:"state"`
	Fingerprint string `gorm:"column:fingerprint;size:64;not null;uniqueIndex:ux_payment_fingerprint" json:"fingerprint"`
	Tier        Tier   `gorm:"column:tier;not null" json:"tier"`

	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updatedAt"`
}

func (CanonicalPayment) TableName() string { return "payments" }

// Branch returns the branch id, or "" when unassigned.
func (p CanonicalPayment) Branch() string {
	if p.BranchID == nil {
		return ""
	}
	return *p.BranchID
}
