package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/services"
)

// InstallmentHandler handles contract installment schedules.
type InstallmentHandler struct {
	installmentService services.InstallmentServicer
}

// NewInstallmentHandler creates a new InstallmentHandler.
func NewInstallmentHandler(installmentService services.InstallmentServicer) *InstallmentHandler {
	return &InstallmentHandler{installmentService: installmentService}
}

// ScheduleInstallmentsRequest represents the request payload for splitting a
// contract into installments. At most 120 installments, matching
// services.MaxInstallments.
type ScheduleInstallmentsRequest struct {
	ContractValue    decimal.Decimal `json:"contract_value" swaggertype:"string" example:"1000.00"`
	InstallmentCount int             `json:"installment_count" binding:"required,max=120" maximum:"120"`
	StartDate        string          `json:"start_date" binding:"required" example:"2024-01-31"`
}

// ScheduleInstallments handles creating the installment schedule of a contract
// @Summary     Schedule installments
// @Description Split the contract value into monthly installments. The last installment absorbs any rounding remainder.
// @Tags        installments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                      true "Contract ID"
// @Param       request body ScheduleInstallmentsRequest true "Schedule details"
// @Success     201 {array}  models.Installment "Created installments"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Contract not found"
// @Failure     409 {object} ErrorResponse "Schedule already exists"
// @Router      /contracts/{id}/installments [post]
func (h *InstallmentHandler) ScheduleInstallments(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	contractID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ScheduleInstallmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	value, err := toCents(req.ContractValue, "contract_value")
	if err != nil {
		respondWithError(c, err)
		return
	}
	start, err := parseFlexibleTime(req.StartDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	installments, err := h.installmentService.ScheduleInstallments(requestContext(c), orgID, contractID, services.ScheduleInput{
		ContractValue: value,
		Count:         req.InstallmentCount,
		StartDate:     start,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"installments": installments})
}

// ListInstallments handles listing a contract's installments
// @Summary     List installments
// @Tags        installments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Contract ID"
// @Success     200 {array}  models.Installment "Installments ordered by number"
// @Failure     404 {object} ErrorResponse "Contract not found"
// @Router      /contracts/{id}/installments [get]
func (h *InstallmentHandler) ListInstallments(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	contractID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	installments, err := h.installmentService.ListInstallments(requestContext(c), orgID, contractID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"installments": installments})
}

// DeleteInstallmentSchedule handles removing a contract's schedule
// @Summary     Delete installment schedule
// @Description Hard-delete every installment of the contract. Refused once any installment is confirmed.
// @Tags        installments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Contract ID"
// @Success     200 {object} map[string]int64 "Number of installments deleted"
// @Failure     404 {object} ErrorResponse "Contract not found"
// @Failure     409 {object} ErrorResponse "Schedule has confirmed installments"
// @Router      /contracts/{id}/installments [delete]
func (h *InstallmentHandler) DeleteInstallmentSchedule(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	contractID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	deleted, err := h.installmentService.DeleteInstallmentSchedule(requestContext(c), orgID, contractID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
