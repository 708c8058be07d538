package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/models"
	"agencyledger/internal/pagination"
	"agencyledger/internal/services"
	"agencyledger/internal/uuid"
)

// InvoiceHandler handles the invoice lifecycle.
type InvoiceHandler struct {
	invoiceService services.InvoiceServicer
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService services.InvoiceServicer) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// InvoiceItemRequest is one invoice line.
type InvoiceItemRequest struct {
	Description   string          `json:"description" binding:"required,max=500"`
	Quantity      int64           `json:"quantity" binding:"required,gt=0"`
	UnitPrice     decimal.Decimal `json:"unit_price" swaggertype:"string" example:"250.00"`
	InstallmentID *string         `json:"installment_id" binding:"omitempty,uuid"`
}

// CreateInvoiceRequest represents the request payload for creating a DRAFT invoice.
type CreateInvoiceRequest struct {
	ClientID  string               `json:"client_id" binding:"required,uuid"`
	IssueDate *string              `json:"issue_date"`
	DueDate   string               `json:"due_date" binding:"required"`
	Items     []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ListInvoicesQuery holds the query parameters of the invoice list.
type ListInvoicesQuery struct {
	pagination.PageRequest
	Status   models.InvoiceStatus `form:"status" binding:"omitempty,invoice_status"`
	ClientID string               `form:"client_id"`
}

// CreateInvoice handles the creation of a DRAFT invoice
// @Summary     Create an invoice
// @Description Create a DRAFT invoice whose total is the sum of its items
// @Tags        invoices
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateInvoiceRequest true "Invoice details"
// @Success     201 {object} models.Invoice "Invoice created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Router      /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	in := services.CreateInvoiceInput{ClientID: req.ClientID}
	if in.DueDate, err = parseFlexibleTime(req.DueDate); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if req.IssueDate != nil && *req.IssueDate != "" {
		if in.IssueDate, err = parseFlexibleTime(*req.IssueDate); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}
	for _, item := range req.Items {
		unitPrice, err := toCents(item.UnitPrice, "unit_price")
		if err != nil {
			respondWithError(c, err)
			return
		}
		in.Items = append(in.Items, services.InvoiceItemInput{
			Description:   item.Description,
			Quantity:      item.Quantity,
			UnitPrice:     unitPrice,
			InstallmentID: item.InstallmentID,
		})
	}

	invoice, err := h.invoiceService.CreateInvoice(requestContext(c), orgID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"invoice": invoice})
}

// GetInvoice handles the retrieval of a specific invoice
// @Summary     Get invoice by ID
// @Tags        invoices
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Invoice ID"
// @Success     200 {object} models.Invoice "Invoice with items and payments"
// @Failure     404 {object} ErrorResponse "Invoice not found"
// @Router      /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoiceID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoice, err := h.invoiceService.GetInvoice(requestContext(c), orgID, invoiceID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// ListInvoices handles listing the organization's invoices
// @Summary     List invoices
// @Tags        invoices
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       status    query string false "Filter by status (DRAFT, OPEN, PAID, OVERDUE, CANCELLED)"
// @Param       client_id query string false "Filter by client"
// @Success     200 {object} pagination.PageResponse[models.Invoice] "Paginated invoices"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q ListInvoicesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.InvoiceFilter
	if q.Status != "" {
		filter.Status = &q.Status
	}
	if q.ClientID != "" {
		if !uuid.IsValid(q.ClientID) {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid client_id"))
			return
		}
		filter.ClientID = &q.ClientID
	}

	result, err := h.invoiceService.ListInvoices(requestContext(c), orgID, q.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// IssueInvoice handles moving a DRAFT invoice to OPEN
// @Summary     Issue invoice
// @Tags        invoices
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Invoice ID"
// @Success     200 {object} models.Invoice "Issued invoice"
// @Failure     404 {object} ErrorResponse "Invoice not found"
// @Failure     409 {object} ErrorResponse "Invalid status transition"
// @Router      /invoices/{id}/issue [post]
func (h *InvoiceHandler) IssueInvoice(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoiceID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoice, err := h.invoiceService.IssueInvoice(requestContext(c), orgID, invoiceID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// ApprovePaymentRequest represents the optional payload of a payment approval.
type ApprovePaymentRequest struct {
	PaidAt *string `json:"paid_at" example:"2024-03-10"`
}

// ApprovePayment handles recording the payment of an invoice
// @Summary     Approve invoice payment
// @Description Mark the invoice PAID, confirm its installments and book the income, all in one transaction
// @Tags        invoices
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true  "Invoice ID"
// @Param       request body ApprovePaymentRequest false "Payment date (defaults to now)"
// @Success     200 {object} models.Invoice "Paid invoice"
// @Failure     400 {object} ErrorResponse "Invalid payment date"
// @Failure     404 {object} ErrorResponse "Invoice not found"
// @Failure     409 {object} ErrorResponse "Invalid status transition"
// @Router      /invoices/{id}/approve-payment [post]
func (h *InvoiceHandler) ApprovePayment(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoiceID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ApprovePaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	var paidAt *time.Time
	if req.PaidAt != nil && *req.PaidAt != "" {
		t, err := parseFlexibleTime(*req.PaidAt)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidPaymentDate, err.Error()))
			return
		}
		paidAt = &t
	}

	invoice, err := h.invoiceService.ApprovePayment(requestContext(c), orgID, invoiceID, paidAt)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// CancelInvoiceRequest represents the request payload for cancelling an invoice.
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CancelInvoice handles cancelling an OPEN or OVERDUE invoice
// @Summary     Cancel invoice
// @Tags        invoices
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Invoice ID"
// @Param       request body CancelInvoiceRequest true "Cancellation reason"
// @Success     200 {object} models.Invoice "Cancelled invoice"
// @Failure     400 {object} ErrorResponse "Reason required"
// @Failure     404 {object} ErrorResponse "Invoice not found"
// @Failure     409 {object} ErrorResponse "Invalid status transition or payments recorded"
// @Router      /invoices/{id}/cancel [post]
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoiceID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	invoice, err := h.invoiceService.CancelInvoice(requestContext(c), orgID, invoiceID, req.Reason)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// DeleteInvoice handles the deletion of an invoice without payments
// @Summary     Delete invoice
// @Description Delete an invoice and release its installments and billing period
// @Tags        invoices
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Invoice ID"
// @Success     200 {object} MessageResponse "Invoice deleted"
// @Failure     404 {object} ErrorResponse "Invoice not found"
// @Failure     409 {object} ErrorResponse "Invoice has payments"
// @Router      /invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoiceID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.invoiceService.DeleteInvoice(requestContext(c), orgID, invoiceID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Invoice deleted successfully"})
}
