package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"

	"github.com/yungbote/payledger/internal/data/aggregates"
	repospay "github.com/yungbote/payledger/internal/data/repos/payments"
	domainagg "github.com/yungbote/payledger/internal/domain/aggregates"
	"github.com/yungbote/payledger/internal/domain/payments"
	"github.com/yungbote/payledger/internal/observability"
	"github.com/yungbote/payledger/internal/platform/apierr"
	"github.com/yungbote/payledger/internal/platform/dbctx"
	"github.com/yungbote/payledger/internal/platform/logger"
	"github.com/yungbote/payledger/internal/realtime/bus"
)

const (
	CodeInvalidPayment      = "invalid_payment"
	CodeInvalidDateRange    = "invalid_date_range"
	CodePaymentNotFound     = "payment_not_found"
	CodeFingerprintConflict = "fingerprint_conflict"
	CodeStoreUnavailable    = "payment_store_unavailable"
	CodeInternal            = "internal_error"
)

const publishTimeout = 2 * time.Second

type IngestOutcome struct {
	Status    payments.IngestStatus `json:"status"`
	PaymentID uuid.UUID             `json:"paymentId"`
	Tier      payments.Tier         `json:"tier"`
}

type PaymentDetail struct {
	Payment  *payments.CanonicalPayment  `json:"payment"`
	Evidence []*payments.EvidenceRecord `json:"evidence"`
}

type PendingQuery struct {
	BranchID          *string
	IncludeUnassigned bool
	Limit             int
}

// HistoryQuery dates are yyyy-mm-dd, both inclusive, in the service's time zone.
type HistoryQuery struct {
	BranchID *string
	From     string
	To       string
	Limit    int
}

type PaymentService interface {
	Ingest(ctx context.Context, req payments.IngestRequest) (*IngestOutcome, error)
	Review(ctx context.Context, id uuid.UUID, c payments.Correction) (*payments.CanonicalPayment, error)
	ListPending(ctx context.Context, q PendingQuery) ([]payments.CanonicalPayment, error)
	Get(ctx context.Context, id uuid.UUID) (*PaymentDetail, error)
	History(ctx context.Context, q HistoryQuery) ([]*payments.CanonicalPayment, error)
}

type paymentService struct {
	log      *logger.Logger
	ledger   domainagg.PaymentLedger
	payments repospay.PaymentRepo
	evidence repospay.EvidenceRepo
	events   bus.Bus
	metrics  *observability.Metrics
	loc      *time.Location
}

func NewPaymentService(
	log *logger.Logger,
	ledger domainagg.PaymentLedger,
	paymentRepo repospay.PaymentRepo,
	evidenceRepo repospay.EvidenceRepo,
	events bus.Bus,
	metrics *observability.Metrics,
	loc *time.Location,
) PaymentService {
	if loc == nil {
		loc = time.UTC
	}
	return &paymentService{
		log:      log.With("service", "PaymentService"),
		ledger:   ledger,
		payments: paymentRepo,
		evidence: evidenceRepo,
		events:   events,
		metrics:  metrics,
		loc:      loc,
	}
}

func (s *paymentService) Ingest(ctx context.Context, req payments.IngestRequest) (*IngestOutcome, error) {
	res, err := s.ledger.Ingest(ctx, domainagg.IngestPaymentInput{Request: req})
	if err != nil {
		return nil, s.apiError("ingest", err)
	}
	s.metrics.IncIngestOutcome(string(res.Status), string(res.Tier))
	s.log.Info("Payment ingested",
		"payment_id", res.PaymentID,
		"status", res.Status,
		"tier", res.Tier,
		"raced", res.Raced,
	)
	s.publish(ctx, bus.LedgerEvent{
		Type:      bus.EventPaymentIngested,
		PaymentID: res.PaymentID,
		Status:    string(res.Status),
		Tier:      string(res.Tier),
		BranchID:  res.BranchID,
	})
	return &IngestOutcome{Status: res.Status, PaymentID: res.PaymentID, Tier: res.Tier}, nil
}

func (s *paymentService) Review(ctx context.Context, id uuid.UUID, c payments.Correction) (*payments.CanonicalPayment, error) {
	res, err := s.ledger.Revise(ctx, domainagg.RevisePaymentInput{PaymentID: id, Correction: c})
	if err != nil {
		return nil, s.apiError("review", err)
	}
	s.metrics.IncRevision(string(res.Payment.Tier), res.FingerprintChanged())
	s.log.Info("Payment revised",
		"payment_id", res.Payment.ID,
		"state", res.Payment.State,
		"previous_state", res.PreviousState,
		"tier", res.Payment.Tier,
		"fingerprint_changed", res.FingerprintChanged(),
	)
	s.publish(ctx, bus.LedgerEvent{
		Type:      bus.EventPaymentRevised,
		PaymentID: res.Payment.ID,
		Tier:      string(res.Payment.Tier),
		State:     string(res.Payment.State),
		BranchID:  res.Payment.BranchID,
	})
	p := res.Payment
	return &p, nil
}

func (s *paymentService) ListPending(ctx context.Context, q PendingQuery) ([]payments.CanonicalPayment, error) {
	out, err := s.ledger.ListPending(ctx, domainagg.ListPendingInput{
		BranchID:          q.BranchID,
		IncludeUnassigned: q.IncludeUnassigned,
		Limit:             q.Limit,
	})
	if err != nil {
		return nil, s.apiError("list_pending", err)
	}
	return out, nil
}

func (s *paymentService) Get(ctx context.Context, id uuid.UUID) (*PaymentDetail, error) {
	const op = "payments.service.get"
	dbc := dbctx.Background(ctx)
	p, err := s.payments.GetByID(dbc, id)
	if err != nil {
		return nil, s.apiError("get", aggregates.MapError(op, err))
	}
	if p == nil {
		return nil, apierr.New(http.StatusNotFound, CodePaymentNotFound, fmt.Errorf("payment %s not found", id))
	}
	ev, err := s.evidence.ListByPayment(dbc, id, 0)
	if err != nil {
		return nil, s.apiError("get", aggregates.MapError(op, err))
	}
	return &PaymentDetail{Payment: p, Evidence: ev}, nil
}

func (s *paymentService) History(ctx context.Context, q HistoryQuery) ([]*payments.CanonicalPayment, error) {
	filter := repospay.HistoryFilter{Limit: q.Limit}
	if q.BranchID != nil {
		if b := strings.TrimSpace(*q.BranchID); b != "" {
			filter.BranchID = &b
		}
	}
	from, err := s.day(q.From)
	if err != nil {
		return nil, err
	}
	to, err := s.day(q.To)
	if err != nil {
		return nil, err
	}
	if from != nil {
		start := now.With(*from).BeginningOfDay()
		filter.From = &start
	}
	if to != nil {
		end := now.With(*to).EndOfDay()
		filter.To = &end
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, apierr.New(http.StatusBadRequest, CodeInvalidDateRange, errors.New("from is after to"))
	}

	out, err := s.payments.ListHistory(dbctx.Background(ctx), filter)
	if err != nil {
		return nil, s.apiError("history", aggregates.MapError("payments.service.history", err))
	}
	return out, nil
}

func (s *paymentService) day(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, s.loc)
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, CodeInvalidDateRange, fmt.Errorf("date %q is not yyyy-mm-dd", raw))
	}
	return &t, nil
}

// publish never fails the caller: the ledger write already committed.
func (s *paymentService) publish(ctx context.Context, ev bus.LedgerEvent) {
	if s.events == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(pubCtx, ev); err != nil {
		s.metrics.IncEventPublished(string(ev.Type), "error")
		s.log.Warn("Ledger event publish failed", "type", ev.Type, "payment_id", ev.PaymentID, "error", err)
		return
	}
	s.metrics.IncEventPublished(string(ev.Type), "ok")
}

func (s *paymentService) apiError(action string, err error) error {
	ae := ToAPIError(err)
	if ae.Status >= http.StatusInternalServerError {
		s.log.Error("Payment "+action+" failed", "code", ae.Code, "error", err)
	} else {
		s.log.Debug("Payment "+action+" rejected", "code", ae.Code, "error", err)
	}
	return ae
}

// ToAPIError maps ledger error codes onto transport errors.
func ToAPIError(err error) *apierr.Error {
	if err == nil {
		return nil
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	switch domainagg.CodeOf(err) {
	case domainagg.CodeValidation:
		return apierr.New(http.StatusBadRequest, CodeInvalidPayment, err)
	case domainagg.CodeNotFound:
		return apierr.New(http.StatusNotFound, CodePaymentNotFound, err)
	case domainagg.CodeConflict:
		return apierr.New(http.StatusConflict, CodeFingerprintConflict, err)
	}
	if domainagg.StoreUnavailable(err) {
		return apierr.New(http.StatusServiceUnavailable, CodeStoreUnavailable, err)
	}
	return apierr.New(http.StatusInternalServerError, CodeInternal, err)
}
