// internal/handlers/billing/billing_handler.go
package billing

import (
	"net/http"
	"strconv"
	"time"

	"aquaflow-service/internal/domain/billing"
	"aquaflow-service/internal/middleware"
	"aquaflow-service/internal/pkg/response"
	service "aquaflow-service/internal/service/billing"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	billingService *service.Service
}

func NewBillingHandler(billingService *service.Service) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

// GenerateInvoice bills one service contract for one period
func (h *BillingHandler) GenerateInvoice(c *gin.Context) {
	scID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid service contract ID", err)
		return
	}

	var req billing.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	inv, err := h.billingService.GenerateInvoice(c.Request.Context(), scID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "invoice generated", inv)
}

// GetInvoice retrieves an invoice with its line items
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid invoice ID", err)
		return
	}

	inv, details, err := h.billingService.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "invoice retrieved", gin.H{
		"invoice": inv,
		"details": details,
	})
}

// ListInvoices retrieves recent invoices for a service contract
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	scID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid service contract ID", err)
		return
	}

	limitStr := c.DefaultQuery("limit", "24")
	limit, convErr := strconv.Atoi(limitStr)
	if convErr != nil {
		limit = 24
	}

	invoices, err := h.billingService.ListByServiceContract(c.Request.Context(), scID, limit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "invoices retrieved", gin.H{
		"invoices": invoices,
		"count":    len(invoices),
	})
}

// RecordPayment settles part or all of an invoice
func (h *BillingHandler) RecordPayment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid invoice ID", err)
		return
	}
	cashierID := middleware.MustGetStaffID(c)

	var req billing.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	result, err := h.billingService.RecordPayment(c.Request.Context(), id, cashierID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "payment recorded", result)
}

// CancelInvoice voids an unpaid invoice
func (h *BillingHandler) CancelInvoice(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid invoice ID", err)
		return
	}

	inv, err := h.billingService.Cancel(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "invoice cancelled", inv)
}

// MarkOverdue sweeps unpaid invoices past their due date (admin only)
func (h *BillingHandler) MarkOverdue(c *gin.Context) {
	n, err := h.billingService.MarkOverdueInvoices(c.Request.Context(), time.Now())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "overdue sweep completed", gin.H{"marked": n})
}
