package app

import (
	"context"

	httpH "github.com/yungbote/payledger/internal/http/handlers"
)

type Handlers struct {
	Payment *httpH.PaymentHandler
	Health  *httpH.HealthHandler
}

func wireHandlers(svcs Services, ping func(ctx context.Context) error) Handlers {
	return Handlers{
		Payment: httpH.NewPaymentHandler(svcs.Payments),
		Health:  httpH.NewHealthHandler(ping),
	}
}
