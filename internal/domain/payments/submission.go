package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// IngestRequest is the inbound shape of a payment submission.
type IngestRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	Method        string           `json:"method"`
	Timestamp     string           `json:"timestamp,omitempty"`
	BranchID      *string          `json:"branchId,omitempty"`
	Reference     *string          `json:"reference,omitempty"`
	OCRText       *string          `json:"ocrText,omitempty"`
	OCRConfidence *float64         `json:"ocrConfidence,omitempty"`
	ParserHints   map[string]any   `json:"parserHints,omitempty"`
	ImageURI      *string          `json:"imageUri,omitempty"`
	Confirmed     bool             `json:"confirmed,omitempty"`
}

// Correction is a partial reviewer update. Nil fields keep the stored value.
// An empty BranchID, Reference or ImageURI clears the stored value.
type Correction struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Method      *string          `json:"method,omitempty"`
	Timestamp   *string          `json:"timestamp,omitempty"`
	BranchID    *string          `json:"branchId,omitempty"`
	Reference   *string          `json:"reference,omitempty"`
	ImageURI    *string          `json:"imageUri,omitempty"`
	OCRText     *string          `json:"ocrText,omitempty"`
	ParserHints map[string]any   `json:"parserHints,omitempty"`
	TargetState *State           `json:"targetState,omitempty"`
}

// CarriesEvidence reports whether the correction supplies new evidence text or hints.
func (c Correction) CarriesEvidence() bool {
	return c.OCRText != nil || c.ParserHints != nil
}

// Submission is a validated, fully populated payment ready for fingerprinting.
type Submission struct {
	Amount        decimal.Decimal
	EffectiveAt   time.Time
	Method        Method
	MethodRaw     string
	BranchID      *string
	Reference     string
	OCRText       string
	OCRConfidence float64
	ParserHints   map[string]any
	ImageURI      string
	Confirmed     bool
}

// BranchKey is the branch id used inside heuristic fingerprints; unassigned is "0".
func (s Submission) BranchKey() string {
	if s.BranchID == nil || *s.BranchID == "" {
		return "0"
	}
	return *s.BranchID
}
