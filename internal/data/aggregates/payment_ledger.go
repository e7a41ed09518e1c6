package aggregates

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	repospay "github.com/yungbote/payledger/internal/data/repos/payments"
	domainagg "github.com/yungbote/payledger/internal/domain/aggregates"
	"github.com/yungbote/payledger/internal/domain/payments"
	"github.com/yungbote/payledger/internal/modules/payments/fingerprint"
	"github.com/yungbote/payledger/internal/modules/payments/intake"
	"github.com/yungbote/payledger/internal/modules/payments/review"
	"github.com/yungbote/payledger/internal/platform/dbctx"
	"github.com/yungbote/payledger/internal/platform/logger"
)

type PaymentLedgerDeps struct {
	BaseDeps
	Payments repospay.PaymentRepo
	Evidence repospay.EvidenceRepo
	Intake   *intake.Normalizer
}

type paymentLedger struct {
	deps PaymentLedgerDeps
	log  *logger.Logger
}

func NewPaymentLedger(deps PaymentLedgerDeps) domainagg.PaymentLedger {
	deps.BaseDeps = deps.BaseDeps.withDefaults()
	if deps.Intake == nil {
		deps.Intake = intake.New(intake.Config{})
	}
	return &paymentLedger{
		deps: deps,
		log:  deps.Log.With("aggregate", "PaymentLedger"),
	}
}

func (a *paymentLedger) Contract() domainagg.Contract {
	return domainagg.PaymentLedgerContract
}

func (a *paymentLedger) Ingest(ctx context.Context, in domainagg.IngestPaymentInput) (domainagg.IngestPaymentResult, error) {
	const op = domainagg.OpIngest
	start := time.Now()

	sub, err := a.deps.Intake.Submission(in.Request)
	if err != nil {
		observeRejected(a.deps.BaseDeps, op, err, start)
		return domainagg.IngestPaymentResult{}, err
	}
	fp := fingerprint.Build(sub)
	out := domainagg.IngestPaymentResult{Tier: fp.Tier, Fingerprint: fp.Fingerprint, BranchID: sub.BranchID}

	existing, err := a.deps.Payments.GetByFingerprint(dbctx.Background(ctx), fp.Fingerprint)
	if err != nil {
		err = MapError(op, err)
		observeRejected(a.deps.BaseDeps, op, err, start)
		return out, err
	}
	if existing != nil {
		return a.attachDuplicate(ctx, existing.ID, sub, out, false)
	}

	state := review.Initial(sub.Confirmed)
	payment := &payments.CanonicalPayment{
		ID:          uuid.New(),
		BranchID:    sub.BranchID,
		Method:      sub.Method,
		MethodRaw:   sub.MethodRaw,
		Amount:      sub.Amount,
		EffectiveAt: sub.EffectiveAt,
		Reference:   intake.Optional(sub.Reference),
		ImageURI:    intake.Optional(sub.ImageURI),
		State:       state,
		Fingerprint: fp.Fingerprint,
		Tier:        fp.Tier,
	}
	evidence, err := newEvidence(payment.ID, sub, payments.EvidenceFromIngest)
	if err != nil {
		err = domainagg.NewError(domainagg.CodeValidation, op, "parser hints are not serializable", err)
		observeRejected(a.deps.BaseDeps, op, err, start)
		return out, err
	}

	err = executeWrite(ctx, a.deps.BaseDeps, op, func(dbc dbctx.Context) error {
		if err := a.deps.Payments.Create(dbc, payment); err != nil {
			if IsFingerprintConflict(err) {
				return ErrDuplicateRace
			}
			return err
		}
		return a.deps.Evidence.Create(dbc, evidence)
	})
	if errors.Is(err, ErrDuplicateRace) {
		winner, lookupErr := a.deps.Payments.GetByFingerprint(dbctx.Background(ctx), fp.Fingerprint)
		if lookupErr != nil {
			return out, MapError(op, lookupErr)
		}
		if winner == nil {
			return out, domainagg.NewError(domainagg.CodePersistence, op, "fingerprint conflict without a visible owner", err)
		}
		a.log.Info("Concurrent ingest resolved as duplicate",
			"payment_id", winner.ID,
			"tier", fp.Tier,
		)
		return a.attachDuplicate(ctx, winner.ID, sub, out, true)
	}
	if err != nil {
		return out, err
	}

	out.Status = review.IngestStatus(state)
	out.PaymentID = payment.ID
	out.EvidenceID = evidence.ID
	return out, nil
}

func (a *paymentLedger) attachDuplicate(ctx context.Context, paymentID uuid.UUID, sub payments.Submission, out domainagg.IngestPaymentResult, raced bool) (domainagg.IngestPaymentResult, error) {
	const op = domainagg.OpAttachDuplicate

	evidence, err := newEvidence(paymentID, sub, payments.EvidenceFromDuplicate)
	if err != nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "parser hints are not serializable", err)
	}
	if err := executeWrite(ctx, a.deps.BaseDeps, op, func(dbc dbctx.Context) error {
		return a.deps.Evidence.Create(dbc, evidence)
	}); err != nil {
		return out, err
	}

	out.Status = payments.StatusDuplicate
	out.PaymentID = paymentID
	out.EvidenceID = evidence.ID
	out.Raced = raced
	return out, nil
}

func (a *paymentLedger) Revise(ctx context.Context, in domainagg.RevisePaymentInput) (domainagg.RevisePaymentResult, error) {
	const op = domainagg.OpRevise

	if in.PaymentID == uuid.Nil {
		err := domainagg.NewError(domainagg.CodeValidation, op, "payment id is required", nil)
		observeRejected(a.deps.BaseDeps, op, err, time.Now())
		return domainagg.RevisePaymentResult{}, err
	}

	var out domainagg.RevisePaymentResult
	err := executeWrite(ctx, a.deps.BaseDeps, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Payments.GetByIDForUpdate(dbc, in.PaymentID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "payment not found", nil)
		}
		latest, err := a.deps.Evidence.GetLatestForFingerprint(dbc, current.ID)
		if err != nil {
			return err
		}

		sub, target, err := a.deps.Intake.Merge(*current, latest, in.Correction)
		if err != nil {
			return err
		}
		fp := fingerprint.Build(sub)

		if fp.Fingerprint != current.Fingerprint {
			owner, err := a.deps.Payments.GetByFingerprint(dbc, fp.Fingerprint)
			if err != nil {
				return err
			}
			if owner != nil && owner.ID != current.ID {
				return collisionError(op, current.ID, owner.ID, fp.Fingerprint)
			}
		}

		updated := *current
		updated.BranchID = sub.BranchID
		updated.Method = sub.Method
		updated.MethodRaw = sub.MethodRaw
		updated.Amount = sub.Amount
		updated.EffectiveAt = sub.EffectiveAt
		updated.Reference = intake.Optional(sub.Reference)
		updated.ImageURI = intake.Optional(sub.ImageURI)
		updated.State = target
		updated.Fingerprint = fp.Fingerprint
		updated.Tier = fp.Tier
		if err := a.deps.Payments.UpdateRevision(dbc, &updated); err != nil {
			if IsFingerprintConflict(err) {
				return collisionError(op, current.ID, uuid.Nil, fp.Fingerprint)
			}
			return err
		}

		out = domainagg.RevisePaymentResult{
			Payment:             updated,
			PreviousFingerprint: current.Fingerprint,
			PreviousState:       current.State,
		}
		if !in.Correction.CarriesEvidence() {
			return nil
		}
		evidence, err := newEvidence(current.ID, sub, payments.EvidenceFromRevision)
		if err != nil {
			return domainagg.NewError(domainagg.CodeValidation, op, "parser hints are not serializable", err)
		}
		if err := a.deps.Evidence.Create(dbc, evidence); err != nil {
			return err
		}
		out.EvidenceID = &evidence.ID
		return nil
	})
	if err != nil {
		return domainagg.RevisePaymentResult{}, err
	}
	if out.FingerprintChanged() {
		a.log.Debug("Payment fingerprint recomputed",
			"payment_id", out.Payment.ID,
			"tier", out.Payment.Tier,
		)
	}
	return out, nil
}

func (a *paymentLedger) ListPending(ctx context.Context, in domainagg.ListPendingInput) ([]payments.CanonicalPayment, error) {
	const op = domainagg.OpListPending

	filter := repospay.PendingFilter{IncludeUnassigned: in.IncludeUnassigned, Limit: in.Limit}
	if in.BranchID != nil {
		if b := strings.TrimSpace(*in.BranchID); b != "" {
			filter.BranchID = &b
		}
	}
	rows, err := a.deps.Payments.ListByState(dbctx.Background(ctx), payments.StateNeedsReview, filter)
	if err != nil {
		return nil, MapError(op, err)
	}
	out := make([]payments.CanonicalPayment, 0, len(rows))
	for _, p := range rows {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func newEvidence(paymentID uuid.UUID, sub payments.Submission, source payments.EvidenceSource) (*payments.EvidenceRecord, error) {
	hints, err := intake.EncodeHints(sub.ParserHints)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	return &payments.EvidenceRecord{
		ID:            id,
		PaymentID:     paymentID,
		Source:        source,
		OCRText:       sub.OCRText,
		OCRConfidence: sub.OCRConfidence,
		ParserHints:   hints,
		ImageURI:      intake.Optional(sub.ImageURI),
	}, nil
}

func collisionError(op string, paymentID, ownerID uuid.UUID, fp string) error {
	c := &domainagg.FingerprintCollision{PaymentID: paymentID, ExistingID: ownerID, Fingerprint: fp}
	return domainagg.NewError(domainagg.CodeConflict, op, c.Error(), c)
}
