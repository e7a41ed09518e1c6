package intake

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/payledger/internal/domain/aggregates"
	"github.com/yungbote/payledger/internal/domain/payments"
)

var fixedNow = time.Date(2025, 3, 14, 12, 0, 0, 123456789, time.UTC)

func newNormalizer() *Normalizer {
	return New(Config{Location: time.UTC, Now: func() time.Time { return fixedNow }})
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func str(s string) *string { return &s }

func TestSubmissionCashScenario(t *testing.T) {
	s, err := newNormalizer().Submission(payments.IngestRequest{Amount: amount("1500"), Method: "Efectivo"})
	if err != nil {
		t.Fatalf("Submission: %v", err)
	}
	if s.Method != payments.MethodCash || s.MethodRaw != "" {
		t.Fatalf("method: %s %q", s.Method, s.MethodRaw)
	}
	if s.OCRConfidence != DefaultOCRConfidence {
		t.Fatalf("default confidence: %v", s.OCRConfidence)
	}
	if s.BranchID != nil || s.BranchKey() != "0" {
		t.Fatalf("branch must default to unassigned")
	}
	if !s.EffectiveAt.Equal(fixedNow.Truncate(time.Microsecond)) {
		t.Fatalf("missing timestamp must default to now, got %s", s.EffectiveAt)
	}
}

func TestSubmissionValidation(t *testing.T) {
	n := newNormalizer()
	for _, a := range []*decimal.Decimal{nil, amount("0"), amount("-5"), amount("0.001"), amount("1000000000000")} {
		_, err := n.Submission(payments.IngestRequest{Amount: a})
		if !aggregates.IsCode(err, aggregates.CodeValidation) {
			t.Fatalf("amount %v: want validation error, got %v", a, err)
		}
	}
}

func TestSubmissionNormalizesFields(t *testing.T) {
	conf := 1.7
	s, err := newNormalizer().Submission(payments.IngestRequest{
		Amount:        amount("99.999"),
		Method:        " Cheque ",
		Timestamp:     "not-a-date",
		BranchID:      str(" 0 "),
		Reference:     str("  op 55  "),
		OCRConfidence: &conf,
		ImageURI:      str(" s3://bucket/a.jpg "),
	})
	if err != nil {
		t.Fatalf("Submission: %v", err)
	}
	if !s.Amount.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("amount must round to cents, got %s", s.Amount)
	}
	if s.Method != payments.MethodOther || s.MethodRaw != "cheque" {
		t.Fatalf("method: %s %q", s.Method, s.MethodRaw)
	}
	if s.BranchID != nil {
		t.Fatalf("branch 0 must be unassigned")
	}
	if s.Reference != "op 55" || s.ImageURI != "s3://bucket/a.jpg" {
		t.Fatalf("trim: %q %q", s.Reference, s.ImageURI)
	}
	if s.OCRConfidence != 1 {
		t.Fatalf("confidence must clamp to 1, got %v", s.OCRConfidence)
	}
	if !s.EffectiveAt.Equal(fixedNow.Truncate(time.Microsecond)) {
		t.Fatalf("bad timestamp must fall back to now")
	}
}

func TestMergeKeepsStoredValues(t *testing.T) {
	n := newNormalizer()
	branch := "7"
	ref := "ref 1"
	hints, _ := EncodeHints(map[string]any{"alias": "ana"})
	current := payments.CanonicalPayment{
		Amount:      decimal.RequireFromString("250.5"),
		EffectiveAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		Method:      payments.MethodCard,
		BranchID:    &branch,
		Reference:   &ref,
		State:       payments.StateNeedsReview,
	}
	latest := &payments.EvidenceRecord{OCRText: "texto", OCRConfidence: 0.4, ParserHints: hints}

	s, state, err := n.Merge(current, latest, payments.Correction{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if state != payments.StateOK || !s.Confirmed {
		t.Fatalf("default target must be ok, got %s", state)
	}
	if !s.Amount.Equal(current.Amount) || !s.EffectiveAt.Equal(current.EffectiveAt) || s.Method != payments.MethodCard {
		t.Fatalf("stored fields not kept: %+v", s)
	}
	if s.Reference != "ref 1" || s.BranchKey() != "7" || s.OCRText != "texto" || s.OCRConfidence != 0.4 {
		t.Fatalf("stored fields not kept: %+v", s)
	}
	if s.ParserHints["alias"] != "ana" {
		t.Fatalf("hints not decoded: %+v", s.ParserHints)
	}
}

func TestMergeAppliesCorrections(t *testing.T) {
	n := newNormalizer()
	branch := "7"
	current := payments.CanonicalPayment{
		Amount:      decimal.RequireFromString("250"),
		EffectiveAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		Method:      payments.MethodCard,
		BranchID:    &branch,
		State:       payments.StateOK,
	}
	target := payments.StateNeedsReview
	s, state, err := n.Merge(current, nil, payments.Correction{
		Amount:      amount("300"),
		Method:      str("mp"),
		Timestamp:   str("02/03/2025 10:15"),
		BranchID:    str(""),
		Reference:   str("COELSA ID: X1"),
		OCRText:     str("nuevo"),
		TargetState: &target,
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if state != payments.StateNeedsReview || s.Confirmed {
		t.Fatalf("target state: %s", state)
	}
	if !s.Amount.Equal(decimal.RequireFromString("300")) || s.Method != payments.MethodMobileWallet {
		t.Fatalf("corrections not applied: %+v", s)
	}
	if want := time.Date(2025, 3, 2, 10, 15, 0, 0, time.UTC); !s.EffectiveAt.Equal(want) {
		t.Fatalf("timestamp: want %s got %s", want, s.EffectiveAt)
	}
	if s.BranchID != nil || s.Reference != "COELSA ID: X1" || s.OCRText != "nuevo" {
		t.Fatalf("corrections not applied: %+v", s)
	}
	if s.OCRConfidence != RevisionOCRConfidence {
		t.Fatalf("reviewer evidence confidence: %v", s.OCRConfidence)
	}
}

func TestMergeRejectsBadInput(t *testing.T) {
	n := newNormalizer()
	current := payments.CanonicalPayment{Amount: decimal.RequireFromString("10"), State: payments.StateOK}

	if _, _, err := n.Merge(current, nil, payments.Correction{Amount: amount("-1")}); !aggregates.IsCode(err, aggregates.CodeValidation) {
		t.Fatalf("want validation for amount, got %v", err)
	}
	bad := payments.State("archived")
	if _, _, err := n.Merge(current, nil, payments.Correction{TargetState: &bad}); !aggregates.IsCode(err, aggregates.CodeValidation) {
		t.Fatalf("want validation for state, got %v", err)
	}
}

func TestHintsRoundTripKeepsNumbers(t *testing.T) {
	raw, err := EncodeHints(map[string]any{"cbu_cvu": json.Number("3100012345678901")})
	if err != nil {
		t.Fatalf("EncodeHints: %v", err)
	}
	got := DecodeHints(raw)
	if n, ok := got["cbu_cvu"].(json.Number); !ok || n.String() != "3100012345678901" {
		t.Fatalf("number literal lost: %#v", got["cbu_cvu"])
	}
	if empty, _ := EncodeHints(nil); empty != nil {
		t.Fatalf("empty hints must encode to nil")
	}
	if DecodeHints([]byte("not json")) != nil {
		t.Fatalf("bad blob must decode to nil")
	}
}

func TestSubmissionHintsMatchStoredForm(t *testing.T) {
	n := newNormalizer()
	req := payments.IngestRequest{
		Amount:      amount("10"),
		Method:      "transferencia",
		ParserHints: map[string]any{"cbu_cvu": 2850590940090418135201.0, "alias": "ana"},
	}
	s, err := n.Submission(req)
	if err != nil {
		t.Fatalf("Submission: %v", err)
	}
	raw, err := EncodeHints(req.ParserHints)
	if err != nil {
		t.Fatalf("EncodeHints: %v", err)
	}
	stored := DecodeHints(raw)
	if s.ParserHints["cbu_cvu"] != stored["cbu_cvu"] {
		t.Fatalf("ingest hint %#v differs from stored %#v", s.ParserHints["cbu_cvu"], stored["cbu_cvu"])
	}
	if _, ok := s.ParserHints["cbu_cvu"].(json.Number); !ok {
		t.Fatalf("numbers must be json.Number, got %T", s.ParserHints["cbu_cvu"])
	}

	req.ParserHints = map[string]any{"bad": make(chan int)}
	if _, err := n.Submission(req); !aggregates.IsCode(err, aggregates.CodeValidation) {
		t.Fatalf("unserializable hints: want validation, got %v", err)
	}
}
