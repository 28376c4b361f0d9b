package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradegate/invoice-gate/internal/application/service"
	"github.com/tradegate/invoice-gate/internal/domain/entity"
	"github.com/tradegate/invoice-gate/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	decisionService service.DecisionService
	approvalService service.ApprovalService
	exportService   service.ExportService
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	decisionService service.DecisionService,
	approvalService service.ApprovalService,
	exportService service.ExportService,
	logger Logger,
) *Handlers {
	return &Handlers{
		decisionService: decisionService,
		approvalService: approvalService,
		exportService:   exportService,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SubmitLineItem is one invoice line in the submission payload
type SubmitLineItem struct {
	Description   string   `json:"description"`
	Quantity      float64  `json:"quantity"`
	UnitPrice     float64  `json:"unit_price"`
	Subtotal      float64  `json:"subtotal"`
	TaxPercentage *float64 `json:"tax_percentage"`
	TaxAmount     float64  `json:"tax_amount"`
	Total         float64  `json:"total"`
	HSCode        string   `json:"hs_code"`
}

// SubmitInvoiceRequest represents the invoice submission payload.
// Dates are accepted as YYYY-MM-DD or RFC3339 strings. invoice_id is
// optional: a missing id is scored by the fraud detector, not rejected
// at the door.
type SubmitInvoiceRequest struct {
	Country       string           `json:"country" binding:"required"`
	InvoiceID     string           `json:"invoice_id"`
	InvoiceDate   string           `json:"invoice_date"`
	DueDate       string           `json:"due_date"`
	VendorName    string           `json:"vendor_name"`
	Subtotal      *float64         `json:"subtotal"`
	TaxAmount     *float64         `json:"tax_amount"`
	TaxPercentage *float64         `json:"tax_percentage"`
	TotalAmount   float64          `json:"total_amount"`
	LineItems     []SubmitLineItem `json:"line_items"`
}

// ApprovalActionRequest represents the approve/reject payload
type ApprovalActionRequest struct {
	Approver string `json:"approver" binding:"required"`
	Comments string `json:"comments"`
	Reason   string `json:"reason"`
}

// ListInvoicesRequest represents query parameters for listing invoices
type ListInvoicesRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// SubmitInvoice handles POST /api/invoices
func (h *Handlers) SubmitInvoice(c *gin.Context) {
	var req SubmitInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid invoice payload", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid invoice payload: " + err.Error(),
		})
		return
	}

	invoice, err := req.toInvoice()
	if err != nil {
		h.logger.Error("Invalid invoice dates", "invoice_id", req.InvoiceID, "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	decision, err := h.decisionService.Process(c.Request.Context(), invoice, req.Country)
	if err != nil {
		h.logger.Error("Invoice processing failed", "invoice_id", req.InvoiceID, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "invoice processing failed",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    decision,
	})
}

// ListInvoices handles GET /api/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	var req ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	invoices, err := h.exportService.ListInvoices(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.logger.Error("Failed to list invoices", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve invoices",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    invoices,
	})
}

// ExportInvoices handles GET /api/invoices/export
func (h *Handlers) ExportInvoices(c *gin.Context) {
	data, err := h.exportService.ExportExcel(c.Request.Context())
	if err != nil {
		h.logger.Error("Excel export failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "export failed",
		})
		return
	}

	filename := "invoices_" + time.Now().UTC().Format("20060102_150405") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ListPendingApprovals handles GET /api/approvals/pending
func (h *Handlers) ListPendingApprovals(c *gin.Context) {
	level := 0
	if levelStr := c.Query("level"); levelStr != "" {
		parsed, err := strconv.Atoi(levelStr)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   "invalid level parameter",
			})
			return
		}
		level = parsed
	}

	requests, err := h.approvalService.ListPending(c.Request.Context(), level)
	if err != nil {
		h.logger.Error("Failed to list pending approvals", "level", level, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve pending approvals",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    requests,
	})
}

// ApprovalStatus handles GET /api/approvals/status/:invoiceID
func (h *Handlers) ApprovalStatus(c *gin.Context) {
	invoiceID := c.Param("invoiceID")

	request, err := h.approvalService.Status(c.Request.Context(), invoiceID)
	if err != nil {
		h.logger.Error("Failed to get approval status", "invoice_id", invoiceID, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve approval status",
		})
		return
	}
	if request == nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "no approval request found for invoice " + invoiceID,
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    request,
	})
}

// ApproveRequest handles POST /api/approvals/:id/approve
func (h *Handlers) ApproveRequest(c *gin.Context) {
	id, ok := h.approvalID(c)
	if !ok {
		return
	}

	var req ApprovalActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "approver is required",
		})
		return
	}

	outcome, err := h.approvalService.Approve(c.Request.Context(), id, req.Approver, req.Comments)
	if err != nil {
		h.writeApprovalError(c, id, "approve", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    outcome,
	})
}

// RejectRequest handles POST /api/approvals/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	id, ok := h.approvalID(c)
	if !ok {
		return
	}

	var req ApprovalActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "approver is required",
		})
		return
	}

	outcome, err := h.approvalService.Reject(c.Request.Context(), id, req.Approver, req.Reason)
	if err != nil {
		h.writeApprovalError(c, id, "reject", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    outcome,
	})
}

// Dashboard handles GET /api/approvals/dashboard
func (h *Handlers) Dashboard(c *gin.Context) {
	stats, err := h.approvalService.Dashboard(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to build dashboard", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to build dashboard",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    stats,
	})
}

// approvalID parses the :id path parameter, writing the error response itself
func (h *Handlers) approvalID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.logger.Error("Invalid approval ID", "id", idStr, "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid approval ID",
		})
		return 0, false
	}
	return id, true
}

// writeApprovalError maps workflow errors to HTTP status codes
func (h *Handlers) writeApprovalError(c *gin.Context, id int64, action string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrEmptyReason):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrAlreadyResolved), errors.Is(err, workflow.ErrConflict):
		status = http.StatusConflict
	}

	h.logger.Error("Approval action failed", "id", id, "action", action, "error", err)
	c.JSON(status, Response{
		Success: false,
		Error:   err.Error(),
	})
}

// toInvoice converts the submission payload to the domain entity
func (r *SubmitInvoiceRequest) toInvoice() (*entity.Invoice, error) {
	invoiceDate, err := parseDate(r.InvoiceDate)
	if err != nil {
		return nil, errors.New("invalid invoice_date: " + r.InvoiceDate)
	}
	dueDate, err := parseDate(r.DueDate)
	if err != nil {
		return nil, errors.New("invalid due_date: " + r.DueDate)
	}

	items := make([]entity.LineItem, len(r.LineItems))
	for i, li := range r.LineItems {
		items[i] = entity.LineItem{
			Description:   li.Description,
			Quantity:      li.Quantity,
			UnitPrice:     li.UnitPrice,
			Subtotal:      li.Subtotal,
			TaxPercentage: li.TaxPercentage,
			TaxAmount:     li.TaxAmount,
			Total:         li.Total,
			HSCode:        li.HSCode,
		}
	}

	return &entity.Invoice{
		InvoiceID:     r.InvoiceID,
		InvoiceDate:   invoiceDate,
		DueDate:       dueDate,
		VendorName:    r.VendorName,
		Subtotal:      r.Subtotal,
		TaxAmount:     r.TaxAmount,
		TaxPercentage: r.TaxPercentage,
		TotalAmount:   r.TotalAmount,
		LineItems:     items,
	}, nil
}

// parseDate accepts YYYY-MM-DD or RFC3339, returning nil for empty input
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("unrecognized date format")
}
