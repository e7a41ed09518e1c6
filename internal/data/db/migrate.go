package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/payledger/internal/domain/payments"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&payments.CanonicalPayment{},
		&payments.EvidenceRecord{},
	); err != nil {
		return err
	}
	return EnsurePaymentIndexes(db)
}

// EnsurePaymentIndexes adds the listing indexes gorm tags cannot express. The SQL is
// valid on both Postgres and SQLite.
func EnsurePaymentIndexes(db *gorm.DB) error {
	// Review queue: needs_review per branch, newest first.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_payments_pending
		ON payments (branch_id, effective_at DESC)
		WHERE state = 'needs_review';
	`).Error; err != nil {
		return fmt.Errorf("create idx_payments_pending: %w", err)
	}

	// Latest evidence per payment.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_payment_evidence_latest
		ON payment_evidence (payment_id, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_payment_evidence_latest: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating payment tables...", "driver", s.driver)
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
