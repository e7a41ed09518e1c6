package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/payledger/internal/data/aggregates"
	repospay "github.com/yungbote/payledger/internal/data/repos/payments"
	repotest "github.com/yungbote/payledger/internal/data/repos/testutil"
	httpH "github.com/yungbote/payledger/internal/http/handlers"
	"github.com/yungbote/payledger/internal/modules/payments/intake"
	"github.com/yungbote/payledger/internal/observability"
	"github.com/yungbote/payledger/internal/realtime/bus"
	"github.com/yungbote/payledger/internal/services"
)

func newTestEngine(t *testing.T) (*gin.Engine, *observability.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := repotest.DB(t)
	log := repotest.Logger(t)
	metrics := observability.New()
	paymentRepo := repospay.NewPaymentRepo(db, log)
	evidenceRepo := repospay.NewEvidenceRepo(db, log)
	ledger := aggregates.NewPaymentLedger(aggregates.PaymentLedgerDeps{
		BaseDeps: aggregates.BaseDeps{DB: db, Log: log, Hooks: aggregates.NewObservabilityHooks(metrics)},
		Payments: paymentRepo,
		Evidence: evidenceRepo,
		Intake: intake.New(intake.Config{
			Location: time.UTC,
			Now:      func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) },
		}),
	})
	svc := services.NewPaymentService(log, ledger, paymentRepo, evidenceRepo, bus.NewMemoryBus(), metrics, time.UTC)
	return NewRouter(RouterConfig{
		Log:            log,
		Metrics:        metrics,
		RequestTimeout: 5 * time.Second,
		PaymentHandler: httpH.NewPaymentHandler(svc),
		HealthHandler:  httpH.NewHealthHandler(nil),
	}), metrics
}

func call(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouter_IngestReviewFlow(t *testing.T) {
	r, metrics := newTestEngine(t)

	body := `{"amount": "1500", "method": "Efectivo", "timestamp": "10/05/2024 10:00", "branchId": "3"}`
	rec := call(r, stdhttp.MethodPost, "/api/payments/ingest", body)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("ingest: %d %s", rec.Code, rec.Body.String())
	}
	var first struct {
		Status    string `json:"status"`
		PaymentID string `json:"paymentId"`
		Tier      string `json:"tier"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode ingest: %v", err)
	}
	if first.Status != "needs_review" || first.Tier != "heuristic" {
		t.Fatalf("first ingest: %+v", first)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id header missing")
	}

	rec = call(r, stdhttp.MethodPost, "/api/payments/ingest", body)
	if !strings.Contains(rec.Body.String(), `"status":"duplicate"`) || !strings.Contains(rec.Body.String(), first.PaymentID) {
		t.Fatalf("second ingest must be a duplicate of %s: %s", first.PaymentID, rec.Body.String())
	}

	rec = call(r, stdhttp.MethodGet, "/api/payments/pending?branchId=3", "")
	if rec.Code != stdhttp.StatusOK || !strings.Contains(rec.Body.String(), first.PaymentID) {
		t.Fatalf("pending: %d %s", rec.Code, rec.Body.String())
	}

	rec = call(r, stdhttp.MethodPatch, "/api/payments/"+first.PaymentID+"/review", `{"reference": "op 778899"}`)
	if rec.Code != stdhttp.StatusOK || !strings.Contains(rec.Body.String(), `"state":"ok"`) {
		t.Fatalf("review: %d %s", rec.Code, rec.Body.String())
	}

	rec = call(r, stdhttp.MethodGet, "/api/payments/pending", "")
	if strings.Contains(rec.Body.String(), first.PaymentID) {
		t.Fatalf("approved payment still pending: %s", rec.Body.String())
	}

	rec = call(r, stdhttp.MethodGet, "/api/payments/"+first.PaymentID, "")
	if rec.Code != stdhttp.StatusOK || strings.Count(rec.Body.String(), `"source"`) != 2 {
		t.Fatalf("detail: %d %s", rec.Code, rec.Body.String())
	}

	if n := metrics.IngestOutcomes("duplicate", "heuristic"); n != 1 {
		t.Fatalf("duplicate outcomes: want=1 got=%v", n)
	}
}

func TestRouter_ErrorStatuses(t *testing.T) {
	r, _ := newTestEngine(t)

	rec := call(r, stdhttp.MethodPost, "/api/payments/ingest", `{"amount": -3, "method": "cash"}`)
	if rec.Code != stdhttp.StatusBadRequest || !strings.Contains(rec.Body.String(), `"code":"invalid_payment"`) {
		t.Fatalf("negative amount: %d %s", rec.Code, rec.Body.String())
	}

	rec = call(r, stdhttp.MethodPatch, "/api/payments/5d7c2b8e-8f4f-4f5e-9f59-2a4f3f0d8c11/review", `{}`)
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("unknown payment: %d %s", rec.Code, rec.Body.String())
	}

	rec = call(r, stdhttp.MethodGet, "/api/payments?from=yesterday", "")
	if rec.Code != stdhttp.StatusBadRequest || !strings.Contains(rec.Body.String(), `"code":"invalid_date_range"`) {
		t.Fatalf("bad date: %d %s", rec.Code, rec.Body.String())
	}

	if rec := call(r, stdhttp.MethodGet, "/healthcheck", ""); rec.Code != stdhttp.StatusOK {
		t.Fatalf("healthcheck: %d", rec.Code)
	}
}
