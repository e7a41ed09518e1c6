package review

import (
	"errors"
	"testing"

	"github.com/yungbote/payledger/internal/domain/payments"
)

func statePtr(s payments.State) *payments.State { return &s }

func TestInitialAndStatus(t *testing.T) {
	if Initial(true) != payments.StateOK || IngestStatus(Initial(true)) != payments.StatusInserted {
		t.Fatalf("confirmed ingestion must be ok/inserted")
	}
	if Initial(false) != payments.StateNeedsReview || IngestStatus(Initial(false)) != payments.StatusNeedsReview {
		t.Fatalf("unconfirmed ingestion must be needs_review")
	}
}

func TestTargetOf(t *testing.T) {
	if s, err := TargetOf(nil); err != nil || s != payments.StateOK {
		t.Fatalf("default target: %v %v", s, err)
	}
	if s, err := TargetOf(statePtr(" NEEDS_REVIEW ")); err != nil || s != payments.StateNeedsReview {
		t.Fatalf("explicit target: %v %v", s, err)
	}
	if _, err := TargetOf(statePtr("rejected")); !errors.Is(err, ErrUnknownState) {
		t.Fatalf("want ErrUnknownState, got %v", err)
	}
}

func TestApply(t *testing.T) {
	cases := []struct {
		name      string
		from      payments.State
		trigger   Trigger
		confirmed bool
		target    *payments.State
		want      payments.State
		wantErr   bool
	}{
		{name: "create confirmed", trigger: TriggerIngest, confirmed: true, want: payments.StateOK},
		{name: "create unconfirmed", trigger: TriggerIngest, want: payments.StateNeedsReview},
		{name: "duplicate keeps state", from: payments.StateNeedsReview, trigger: TriggerIngest, confirmed: true, want: payments.StateNeedsReview},
		{name: "review approves", from: payments.StateNeedsReview, trigger: TriggerReview, want: payments.StateOK},
		{name: "review reopens", from: payments.StateOK, trigger: TriggerReview, target: statePtr(payments.StateNeedsReview), want: payments.StateNeedsReview},
		{name: "review keeps ok", from: payments.StateOK, trigger: TriggerReview, target: statePtr(payments.StateOK), want: payments.StateOK},
		{name: "review of unknown state", from: "archived", trigger: TriggerReview, wantErr: true},
		{name: "bad target", from: payments.StateOK, trigger: TriggerReview, target: statePtr("void"), wantErr: true},
		{name: "bad trigger", from: payments.StateOK, trigger: "delete", wantErr: true},
	}
	for _, tc := range cases {
		got, err := Apply(tc.from, tc.trigger, tc.confirmed, tc.target)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: want %s got %s", tc.name, tc.want, got)
		}
	}
}
