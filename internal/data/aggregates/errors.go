package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/payledger/internal/domain/aggregates"
)

// FingerprintIndex is the unique index that enforces one payment per fingerprint.
const FingerprintIndex = "ux_payment_fingerprint"

// ErrDuplicateRace marks an insert that lost the fingerprint to a concurrent writer.
// It never leaves the ledger: Ingest resolves it as a duplicate.
var ErrDuplicateRace = errors.New("payment fingerprint claimed by a concurrent insert")

// IsFingerprintConflict reports whether err is a unique violation on the fingerprint
// column, as opposed to any other constraint.
func IsFingerprintConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateRace) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.TrimSpace(pgErr.Code) != "23505" {
			return false
		}
		return pgErr.ConstraintName == FingerprintIndex ||
			strings.Contains(pgErr.ConstraintName, "fingerprint") ||
			strings.Contains(pgErr.Detail, "(fingerprint)")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint failed") && strings.Contains(msg, "fingerprint"):
		return true
	case strings.Contains(msg, "duplicate key") && strings.Contains(msg, FingerprintIndex):
		return true
	default:
		return false
	}
}

// MapError maps infrastructure/domain failures into aggregate error codes.
// Storage failures that are not retryable surface as CodePersistence.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		return err
	}
	switch {
	case errors.Is(err, ErrDuplicateRace):
		return domainagg.NewError(domainagg.CodeConflict, op, err.Error(), err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.Wrap(domainagg.CodeNotFound, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505", "23503", "23502", "23514":
			return domainagg.Wrap(domainagg.CodePersistence, op, err) // unique/fk/not-null/check
		case "40001", "40P01", "55P03":
			return domainagg.Wrap(domainagg.CodeRetryable, op, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	default:
		return domainagg.Wrap(domainagg.CodePersistence, op, err)
	}
}
