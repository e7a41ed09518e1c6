package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/payledger/internal/domain/payments"
	"github.com/yungbote/payledger/internal/http/response"
	"github.com/yungbote/payledger/internal/services"
)

type PaymentHandler struct {
	payments services.PaymentService
}

func NewPaymentHandler(payments services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// POST /api/payments/ingest
func (h *PaymentHandler) Ingest(c *gin.Context) {
	var req payments.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeInvalidPayment, err)
		return
	}
	out, err := h.payments.Ingest(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err, "ingest_failed")
		return
	}
	response.RespondOK(c, out)
}

// PATCH /api/payments/:id/review
func (h *PaymentHandler) Review(c *gin.Context) {
	id, ok := paymentID(c)
	if !ok {
		return
	}
	var body payments.Correction
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, services.CodeInvalidPayment, err)
		return
	}
	p, err := h.payments.Review(c.Request.Context(), id, body)
	if err != nil {
		response.RespondErr(c, err, "review_failed")
		return
	}
	response.RespondOK(c, gin.H{"payment": p})
}

// GET /api/payments/pending
func (h *PaymentHandler) ListPending(c *gin.Context) {
	includeUnassigned, _ := strconv.ParseBool(c.DefaultQuery("includeUnassigned", "false"))
	list, err := h.payments.ListPending(c.Request.Context(), services.PendingQuery{
		BranchID:          optionalQuery(c, "branchId"),
		IncludeUnassigned: includeUnassigned,
		Limit:             limitQuery(c),
	})
	if err != nil {
		response.RespondErr(c, err, "list_pending_failed")
		return
	}
	response.RespondOK(c, gin.H{"payments": list})
}

// GET /api/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := paymentID(c)
	if !ok {
		return
	}
	detail, err := h.payments.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err, "load_payment_failed")
		return
	}
	response.RespondOK(c, detail)
}

// GET /api/payments
func (h *PaymentHandler) History(c *gin.Context) {
	list, err := h.payments.History(c.Request.Context(), services.HistoryQuery{
		BranchID: optionalQuery(c, "branchId"),
		From:     c.Query("from"),
		To:       c.Query("to"),
		Limit:    limitQuery(c),
	})
	if err != nil {
		response.RespondErr(c, err, "list_payments_failed")
		return
	}
	response.RespondOK(c, gin.H{"payments": list})
}

func paymentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_payment_id", errors.New("payment id must be a uuid"))
		return uuid.Nil, false
	}
	return id, true
}

func optionalQuery(c *gin.Context, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

func limitQuery(c *gin.Context) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query("limit")))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
