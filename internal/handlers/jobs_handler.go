package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agencyledger/internal/clock"
	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/period"
	"agencyledger/internal/services"
)

// JobsHandler exposes the batch operations called by external schedulers.
// The organization travels in the request body since schedulers hold an
// API key rather than a user token.
type JobsHandler struct {
	materializer   services.MaterializerServicer
	invoiceService services.InvoiceServicer
	clock          clock.Clock
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(materializer services.MaterializerServicer, invoiceService services.InvoiceServicer, clk clock.Clock) *JobsHandler {
	return &JobsHandler{materializer: materializer, invoiceService: invoiceService, clock: clk}
}

// JobRequest is the body of every job endpoint.
type JobRequest struct {
	OrgID string `json:"org_id" binding:"required,uuid"`
}

// GenerateInvoicesRequest is the body of the monthly invoice job.
type GenerateInvoicesRequest struct {
	OrgID  string `json:"org_id" binding:"required,uuid"`
	Period string `json:"period" binding:"omitempty,period" example:"2024-03"`
}

func bindJob(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return false
	}
	return true
}

// MaterializeRecurringExpenses handles the recurring expense job
// @Summary     Materialize all recurring expenses
// @Tags        jobs
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body JobRequest true "Organization"
// @Success     200 {object} services.MaterializeBatchReport "Per-expense outcome"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /jobs/materialize-recurring-expenses [post]
func (h *JobsHandler) MaterializeRecurringExpenses(c *gin.Context) {
	var req JobRequest
	if !bindJob(c, &req) {
		return
	}

	report, err := h.materializer.MaterializeAllRecurringExpenses(requestContext(c), req.OrgID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// MaterializeCostSubscriptions handles the client cost job
// @Summary     Materialize all active cost subscriptions
// @Tags        jobs
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body JobRequest true "Organization"
// @Success     200 {object} services.MaterializeBatchReport "Per-subscription outcome"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /jobs/materialize-cost-subscriptions [post]
func (h *JobsHandler) MaterializeCostSubscriptions(c *gin.Context) {
	var req JobRequest
	if !bindJob(c, &req) {
		return
	}

	report, err := h.materializer.MaterializeAllCostSubscriptions(requestContext(c), req.OrgID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GenerateMonthlyInvoices handles the monthly billing job
// @Summary     Generate monthly invoices
// @Description Create one invoice per active client for the period (defaults to the current month)
// @Tags        jobs
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body GenerateInvoicesRequest true "Organization and period"
// @Success     200 {object} services.GenerationReport "success, blocked and errors"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /jobs/generate-monthly-invoices [post]
func (h *JobsHandler) GenerateMonthlyInvoices(c *gin.Context) {
	var req GenerateInvoicesRequest
	if !bindJob(c, &req) {
		return
	}
	if req.Period == "" {
		req.Period = period.MonthKey(h.clock.Now())
	}

	report, err := h.invoiceService.GenerateMonthlyInvoices(requestContext(c), req.OrgID, req.Period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ReclassifyOverdue handles the overdue sweep
// @Summary     Reclassify overdue invoices and late installments
// @Tags        jobs
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body JobRequest true "Organization"
// @Success     200 {object} services.ReclassifyResult "Rows reclassified"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /jobs/reclassify-overdue [post]
func (h *JobsHandler) ReclassifyOverdue(c *gin.Context) {
	var req JobRequest
	if !bindJob(c, &req) {
		return
	}

	result, err := h.invoiceService.ReclassifyOverdue(requestContext(c), req.OrgID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
