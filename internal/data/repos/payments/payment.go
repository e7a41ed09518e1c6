package payments

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/yungbote/payledger/internal/domain/payments"
	"github.com/yungbote/payledger/internal/platform/dbctx"
	"github.com/yungbote/payledger/internal/platform/logger"
)

const defaultListLimit = 500

// PendingFilter scopes a needs_review listing.
type PendingFilter struct {
	BranchID          *string
	IncludeUnassigned bool
	Limit             int
}

// HistoryFilter scopes a payment history listing. From and To are inclusive bounds on effective time.
type HistoryFilter struct {
	BranchID *string
	From     *time.Time
	To       *time.Time
	Limit    int
}

type PaymentRepo interface {
	Create(dbc dbctx.Context, p *domain.CanonicalPayment) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.CanonicalPayment, error)
	GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*domain.CanonicalPayment, error)
	GetByFingerprint(dbc dbctx.Context, fingerprint string) (*domain.CanonicalPayment, error)
	CountByFingerprint(dbc dbctx.Context, fingerprint string) (int64, error)
	UpdateRevision(dbc dbctx.Context, p *domain.CanonicalPayment) error
	ListByState(dbc dbctx.Context, state domain.State, filter PendingFilter) ([]*domain.CanonicalPayment, error)
	ListHistory(dbc dbctx.Context, filter HistoryFilter) ([]*domain.CanonicalPayment, error)
}

type paymentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaymentRepo(db *gorm.DB, baseLog *logger.Logger) PaymentRepo {
	return &paymentRepo{
		db:  db,
		log: baseLog.With("repo", "PaymentRepo"),
	}
}

func (r *paymentRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *paymentRepo) Create(dbc dbctx.Context, p *domain.CanonicalPayment) error {
	if p == nil {
		return nil
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.EffectiveAt = p.EffectiveAt.UTC()
	return r.tx(dbc).Create(p).Error
}

func (r *paymentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.CanonicalPayment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return first(r.tx(dbc).Where("id = ?", id))
}

// GetByIDForUpdate row-locks the payment where the dialect supports it.
func (r *paymentRepo) GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*domain.CanonicalPayment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return first(r.tx(dbc).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *paymentRepo) GetByFingerprint(dbc dbctx.Context, fingerprint string) (*domain.CanonicalPayment, error) {
	if fingerprint == "" {
		return nil, nil
	}
	return first(r.tx(dbc).Where("fingerprint = ?", fingerprint))
}

func (r *paymentRepo) CountByFingerprint(dbc dbctx.Context, fingerprint string) (int64, error) {
	var n int64
	err := r.tx(dbc).Model(&domain.CanonicalPayment{}).Where("fingerprint = ?", fingerprint).Count(&n).Error
	return n, err
}

// UpdateRevision writes every reviewer-editable column, including NULLs.
func (r *paymentRepo) UpdateRevision(dbc dbctx.Context, p *domain.CanonicalPayment) error {
	if p == nil || p.ID == uuid.Nil {
		return gorm.ErrRecordNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	p.EffectiveAt = p.EffectiveAt.UTC()
	res := r.tx(dbc).
		Model(&domain.CanonicalPayment{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"branch_id":    p.BranchID,
			"method":       p.Method,
			"method_raw":   p.MethodRaw,
			"amount":       p.Amount,
			"effective_at": p.EffectiveAt,
			"reference":    p.Reference,
			"image_uri":    p.ImageURI,
			"state":        p.State,
			"fingerprint":  p.Fingerprint,
			"tier":         p.Tier,
			"updated_at":   p.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *paymentRepo) ListByState(dbc dbctx.Context, state domain.State, filter PendingFilter) ([]*domain.CanonicalPayment, error) {
	q := r.tx(dbc).Where("state = ?", state)
	if filter.BranchID != nil {
		if filter.IncludeUnassigned {
			q = q.Where("(branch_id = ? OR branch_id IS NULL)", *filter.BranchID)
		} else {
			q = q.Where("branch_id = ?", *filter.BranchID)
		}
	}
	var out []*domain.CanonicalPayment
	if err := q.Order("effective_at DESC").Order("id DESC").Limit(limitOrDefault(filter.Limit)).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *paymentRepo) ListHistory(dbc dbctx.Context, filter HistoryFilter) ([]*domain.CanonicalPayment, error) {
	q := r.tx(dbc)
	if filter.BranchID != nil {
		q = q.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.From != nil {
		q = q.Where("effective_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		q = q.Where("effective_at <= ?", filter.To.UTC())
	}
	var out []*domain.CanonicalPayment
	if err := q.Order("effective_at DESC").Order("id DESC").Limit(limitOrDefault(filter.Limit)).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func first(q *gorm.DB) (*domain.CanonicalPayment, error) {
	var p domain.CanonicalPayment
	err := q.Limit(1).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func limitOrDefault(n int) int {
	if n <= 0 || n > defaultListLimit {
		return defaultListLimit
	}
	return n
}
