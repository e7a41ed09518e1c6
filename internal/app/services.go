package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/payledger/internal/data/aggregates"
	"github.com/yungbote/payledger/internal/modules/payments/intake"
	"github.com/yungbote/payledger/internal/observability"
	"github.com/yungbote/payledger/internal/platform/logger"
	"github.com/yungbote/payledger/internal/services"
)

type Services struct {
	Payments services.PaymentService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	normalizer := intake.New(intake.Config{
		Location:             cfg.Location,
		DefaultOCRConfidence: cfg.DefaultOCRConfidence,
	})
	ledger := aggregates.NewPaymentLedger(aggregates.PaymentLedgerDeps{
		BaseDeps: aggregates.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(metrics),
		},
		Payments: repos.Payments,
		Evidence: repos.Evidence,
		Intake:   normalizer,
	})

	return Services{
		Payments: services.NewPaymentService(log, ledger, repos.Payments, repos.Evidence, clients.Events, metrics, cfg.Location),
	}
}
