package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/payledger/internal/data/repos/testutil"
	domain "github.com/yungbote/payledger/internal/domain/payments"
	"github.com/yungbote/payledger/internal/platform/dbctx"
)

func TestEvidenceRepo(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	payments := NewPaymentRepo(db, log)
	repo := NewEvidenceRepo(db, log)
	dbc := dbctx.Background(context.Background())

	p := newPayment("fp-e", domain.StateOK, nil, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	if err := payments.Create(dbc, p); err != nil {
		t.Fatalf("Create payment: %v", err)
	}

	if latest, err := repo.GetLatestByPayment(dbc, p.ID); err != nil || latest != nil {
		t.Fatalf("GetLatestByPayment on empty: %+v %v", latest, err)
	}

	for _, text := range []string{"first", "second", "third"} {
		e := &domain.EvidenceRecord{
			PaymentID:     p.ID,
			Source:        domain.EvidenceFromIngest,
			OCRText:       text,
			OCRConfidence: 0.7,
			ParserHints:   datatypes.JSON([]byte(`{"alias":"ana"}`)),
		}
		if err := repo.Create(dbc, e); err != nil {
			t.Fatalf("Create evidence %s: %v", text, err)
		}
	}

	latest, err := repo.GetLatestByPayment(dbc, p.ID)
	if err != nil {
		t.Fatalf("GetLatestByPayment: %v", err)
	}
	if latest == nil || latest.OCRText != "third" {
		t.Fatalf("GetLatestByPayment: want third, got %+v", latest)
	}

	dup := &domain.EvidenceRecord{PaymentID: p.ID, Source: domain.EvidenceFromDuplicate, OCRText: "dup", OCRConfidence: 0.7}
	if err := repo.Create(dbc, dup); err != nil {
		t.Fatalf("Create duplicate evidence: %v", err)
	}
	if latest, err := repo.GetLatestByPayment(dbc, p.ID); err != nil || latest == nil || latest.OCRText != "dup" {
		t.Fatalf("GetLatestByPayment: want dup, got %+v %v", latest, err)
	}
	fpSource, err := repo.GetLatestForFingerprint(dbc, p.ID)
	if err != nil {
		t.Fatalf("GetLatestForFingerprint: %v", err)
	}
	if fpSource == nil || fpSource.OCRText != "third" {
		t.Fatalf("GetLatestForFingerprint must skip duplicates, got %+v", fpSource)
	}

	list, err := repo.ListByPayment(dbc, p.ID, 0)
	if err != nil {
		t.Fatalf("ListByPayment: %v", err)
	}
	if len(list) != 4 || list[0].OCRText != "dup" || list[3].OCRText != "first" {
		t.Fatalf("ListByPayment: want newest first, got %d rows", len(list))
	}

	if n, err := repo.CountByPayment(dbc, p.ID); err != nil || n != 4 {
		t.Fatalf("CountByPayment: %d %v", n, err)
	}

	orphan := &domain.EvidenceRecord{PaymentID: uuid.New(), Source: domain.EvidenceFromIngest, OCRConfidence: 0.7}
	if err := repo.Create(dbc, orphan); err == nil {
		t.Fatalf("Create: expected foreign key violation for unknown payment")
	}
}

func TestEvidenceCascadesWithPayment(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	payments := NewPaymentRepo(db, log)
	repo := NewEvidenceRepo(db, log)
	dbc := dbctx.Background(context.Background())

	p := newPayment("fp-cascade", domain.StateOK, nil, time.Now().UTC())
	if err := payments.Create(dbc, p); err != nil {
		t.Fatalf("Create payment: %v", err)
	}
	if err := repo.Create(dbc, &domain.EvidenceRecord{PaymentID: p.ID, Source: domain.EvidenceFromIngest, OCRConfidence: 0.7}); err != nil {
		t.Fatalf("Create evidence: %v", err)
	}
	if err := db.Delete(&domain.CanonicalPayment{}, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("Delete payment: %v", err)
	}
	if n, err := repo.CountByPayment(dbc, p.ID); err != nil || n != 0 {
		t.Fatalf("evidence must cascade: %d %v", n, err)
	}
}
