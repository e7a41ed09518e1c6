package app

import (
	"gorm.io/gorm"

	repospay "github.com/yungbote/payledger/internal/data/repos/payments"
	"github.com/yungbote/payledger/internal/platform/logger"
)

type Repos struct {
	Payments repospay.PaymentRepo
	Evidence repospay.EvidenceRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Payments: repospay.NewPaymentRepo(db, log),
		Evidence: repospay.NewEvidenceRepo(db, log),
	}
}
