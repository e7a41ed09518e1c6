// Package intake validates inbound payment requests into typed submissions and
// merges reviewer corrections onto stored payments.
package intake

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/payledger/internal/domain/aggregates"
	"github.com/yungbote/payledger/internal/domain/payments"
	"github.com/yungbote/payledger/internal/modules/payments/fingerprint"
	"github.com/yungbote/payledger/internal/modules/payments/review"
	"github.com/yungbote/payledger/internal/normalization"
)

const (
	DefaultOCRConfidence = 0.7
	// RevisionOCRConfidence is recorded on evidence typed in by a reviewer.
	RevisionOCRConfidence = 1.0
)

// maxAmount is the largest value a numeric(14,2) column holds.
var maxAmount = decimal.New(1, 12)

type Config struct {
	Location             *time.Location
	DefaultOCRConfidence float64
	Now                  func() time.Time
}

type Normalizer struct {
	times             *fingerprint.TimeParser
	defaultConfidence float64
	now               func() time.Time
}

func New(cfg Config) *Normalizer {
	conf := cfg.DefaultOCRConfidence
	if conf <= 0 || conf > 1 || math.IsNaN(conf) {
		conf = DefaultOCRConfidence
	}
	clock := cfg.Now
	if clock == nil {
		clock = time.Now
	}
	return &Normalizer{
		times:             fingerprint.NewTimeParser(cfg.Location),
		defaultConfidence: conf,
		now:               clock,
	}
}

// Submission validates req and fills every default.
func (n *Normalizer) Submission(req payments.IngestRequest) (payments.Submission, error) {
	const op = "payments.intake.Submission"

	amount, err := validAmount(op, req.Amount)
	if err != nil {
		return payments.Submission{}, err
	}
	method, raw := canonicalMethod(req.Method)
	hints, err := normalizeHints(op, req.ParserHints)
	if err != nil {
		return payments.Submission{}, err
	}

	return payments.Submission{
		Amount:        amount,
		EffectiveAt:   n.effectiveAt(req.Timestamp),
		Method:        method,
		MethodRaw:     raw,
		BranchID:      branch(req.BranchID),
		Reference:     trimmed(req.Reference),
		OCRText:       deref(req.OCRText),
		OCRConfidence: n.confidence(req.OCRConfidence),
		ParserHints:   hints,
		ImageURI:      trimmed(req.ImageURI),
		Confirmed:     req.Confirmed,
	}, nil
}

// Merge overlays c on the stored payment and its latest evidence. The returned state is
// the reviewer's target state.
func (n *Normalizer) Merge(current payments.CanonicalPayment, latest *payments.EvidenceRecord, c payments.Correction) (payments.Submission, payments.State, error) {
	const op = "payments.intake.Merge"

	amount := current.Amount
	if c.Amount != nil {
		amount = *c.Amount
	}
	amount, err := validAmount(op, &amount)
	if err != nil {
		return payments.Submission{}, "", err
	}

	target, err := review.Apply(current.State, review.TriggerReview, false, c.TargetState)
	if err != nil {
		return payments.Submission{}, "", aggregates.NewError(aggregates.CodeValidation, op, err.Error(), err)
	}

	s := payments.Submission{
		Amount:        amount,
		EffectiveAt:   current.EffectiveAt,
		Method:        current.Method,
		MethodRaw:     current.MethodRaw,
		BranchID:      current.BranchID,
		Reference:     deref(current.Reference),
		ImageURI:      deref(current.ImageURI),
		OCRConfidence: n.defaultConfidence,
		Confirmed:     target == payments.StateOK,
	}
	if latest != nil {
		s.OCRText = latest.OCRText
		s.ParserHints = DecodeHints(latest.ParserHints)
		s.OCRConfidence = latest.OCRConfidence
	}

	if c.Timestamp != nil {
		s.EffectiveAt = n.effectiveAt(*c.Timestamp)
	}
	if c.Method != nil {
		s.Method, s.MethodRaw = canonicalMethod(*c.Method)
	}
	if c.BranchID != nil {
		s.BranchID = branch(c.BranchID)
	}
	if c.Reference != nil {
		s.Reference = trimmed(c.Reference)
	}
	if c.ImageURI != nil {
		s.ImageURI = trimmed(c.ImageURI)
	}
	if c.OCRText != nil {
		s.OCRText = *c.OCRText
	}
	if c.ParserHints != nil {
		if s.ParserHints, err = normalizeHints(op, c.ParserHints); err != nil {
			return payments.Submission{}, "", err
		}
	}
	if c.CarriesEvidence() {
		s.OCRConfidence = RevisionOCRConfidence
	}
	return s, target, nil
}

func (n *Normalizer) effectiveAt(raw string) time.Time {
	now := n.now()
	return n.times.Parse(raw, now).Truncate(time.Microsecond)
}

func (n *Normalizer) confidence(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return n.defaultConfidence
	}
	return math.Min(1, math.Max(0, *v))
}

func validAmount(op string, v *decimal.Decimal) (decimal.Decimal, error) {
	if v == nil {
		return decimal.Decimal{}, aggregates.NewError(aggregates.CodeValidation, op, "amount is required", nil)
	}
	amount := v.Round(2)
	if !amount.IsPositive() {
		return decimal.Decimal{}, aggregates.NewError(aggregates.CodeValidation, op, "amount must be greater than zero", nil)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return decimal.Decimal{}, aggregates.NewError(aggregates.CodeValidation, op, "amount is out of range", nil)
	}
	return amount, nil
}

func canonicalMethod(raw string) (payments.Method, string) {
	m := normalization.CanonicalMethod(raw)
	if m != payments.MethodOther {
		return m, ""
	}
	return m, normalization.MethodToken(raw)
}

// branch maps "", whitespace and "0" to unassigned.
func branch(v *string) *string {
	if v == nil {
		return nil
	}
	b := strings.TrimSpace(*v)
	if b == "" || b == "0" {
		return nil
	}
	return &b
}

func trimmed(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// Optional returns nil for "" so empty values are stored as NULL.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
