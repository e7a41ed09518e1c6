package payments

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/payledger/internal/domain/payments"
	"github.com/yungbote/payledger/internal/platform/dbctx"
	"github.com/yungbote/payledger/internal/platform/logger"
)

// EvidenceRepo is append-only; evidence is never updated or deleted here.
type EvidenceRepo interface {
	Create(dbc dbctx.Context, e *domain.EvidenceRecord) error
	GetLatestByPayment(dbc dbctx.Context, paymentID uuid.UUID) (*domain.EvidenceRecord, error)
	// GetLatestForFingerprint skips duplicate captures; only ingest and revision rows
	// describe the fields the stored fingerprint was built from.
	GetLatestForFingerprint(dbc dbctx.Context, paymentID uuid.UUID) (*domain.EvidenceRecord, error)
	ListByPayment(dbc dbctx.Context, paymentID uuid.UUID, limit int) ([]*domain.EvidenceRecord, error)
	CountByPayment(dbc dbctx.Context, paymentID uuid.UUID) (int64, error)
}

type evidenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEvidenceRepo(db *gorm.DB, baseLog *logger.Logger) EvidenceRepo {
	return &evidenceRepo{
		db:  db,
		log: baseLog.With("repo", "EvidenceRepo"),
	}
}

func (r *evidenceRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *evidenceRepo) Create(dbc dbctx.Context, e *domain.EvidenceRecord) error {
	if e == nil {
		return nil
	}
	if e.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		e.ID = id
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return r.tx(dbc).Omit("Payment").Create(e).Error
}

func (r *evidenceRepo) GetLatestByPayment(dbc dbctx.Context, paymentID uuid.UUID) (*domain.EvidenceRecord, error) {
	if paymentID == uuid.Nil {
		return nil, nil
	}
	return latest(r.tx(dbc).Where("payment_id = ?", paymentID))
}

func (r *evidenceRepo) GetLatestForFingerprint(dbc dbctx.Context, paymentID uuid.UUID) (*domain.EvidenceRecord, error) {
	if paymentID == uuid.Nil {
		return nil, nil
	}
	return latest(r.tx(dbc).
		Where("payment_id = ?", paymentID).
		Where("source <> ?", domain.EvidenceFromDuplicate))
}

func latest(q *gorm.DB) (*domain.EvidenceRecord, error) {
	var e domain.EvidenceRecord
	err := q.Order("created_at DESC").Order("id DESC").Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByPayment returns evidence newest first.
func (r *evidenceRepo) ListByPayment(dbc dbctx.Context, paymentID uuid.UUID, limit int) ([]*domain.EvidenceRecord, error) {
	var out []*domain.EvidenceRecord
	if paymentID == uuid.Nil {
		return out, nil
	}
	if err := r.tx(dbc).
		Where("payment_id = ?", paymentID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limitOrDefault(limit)).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *evidenceRepo) CountByPayment(dbc dbctx.Context, paymentID uuid.UUID) (int64, error) {
	var n int64
	err := r.tx(dbc).Model(&domain.EvidenceRecord{}).Where("payment_id = ?", paymentID).Count(&n).Error
	return n, err
}
