package app

import (
	apphttp "github.com/yungbote/payledger/internal/http"
	"github.com/yungbote/payledger/internal/observability"
	"github.com/yungbote/payledger/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, h Handlers) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    cfg.Tracing.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		PaymentHandler: h.Payment,
		HealthHandler:  h.Health,
	})
}
