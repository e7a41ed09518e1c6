package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/payledger/internal/http/handlers"
	httpMW "github.com/yungbote/payledger/internal/http/middleware"
	"github.com/yungbote/payledger/internal/observability"
	"github.com/yungbote/payledger/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	CORSOrigins    []string
	RequestTimeout time.Duration

	PaymentHandler *httpH.PaymentHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	// Parser hints keep numbers exactly as written.
	binding.EnableDecoderUseNumber = true

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "payledger"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	api.Use(httpMW.RequestTimeout(cfg.RequestTimeout))
	{
		// Payments
		if cfg.PaymentHandler != nil {
			api.POST("/payments/ingest", cfg.PaymentHandler.Ingest)
			api.GET("/payments/pending", cfg.PaymentHandler.ListPending)
			api.GET("/payments", cfg.PaymentHandler.History)
			api.GET("/payments/:id", cfg.PaymentHandler.Get)
			api.PATCH("/payments/:id/review", cfg.PaymentHandler.Review)
		}
	}

	return r
}
