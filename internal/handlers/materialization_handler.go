package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agencyledger/internal/services"
)

// MaterializationHandler turns single obligations into ledger entries on demand.
type MaterializationHandler struct {
	materializer services.MaterializerServicer
}

// NewMaterializationHandler creates a new MaterializationHandler.
func NewMaterializationHandler(materializer services.MaterializerServicer) *MaterializationHandler {
	return &MaterializationHandler{materializer: materializer}
}

// MaterializeRecurringExpense handles booking the current period of a recurring expense
// @Summary     Materialize recurring expense
// @Description Book the current period's FIXED_EXPENSE transaction. Repeated calls in the same period report skipped.
// @Tags        materialization
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Recurring expense ID"
// @Success     200 {object} services.MaterializeResult "created or skipped"
// @Failure     404 {object} ErrorResponse "Recurring expense not found or inactive"
// @Router      /recurring-expenses/{id}/materialize [post]
func (h *MaterializationHandler) MaterializeRecurringExpense(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.materializer.MaterializeRecurringExpense(requestContext(c), orgID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// MaterializeCostSubscription handles booking the current month of a client cost subscription
// @Summary     Materialize cost subscription
// @Tags        materialization
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Cost subscription ID"
// @Success     200 {object} services.MaterializeResult "created or skipped"
// @Failure     404 {object} ErrorResponse "Cost subscription not found or inactive"
// @Router      /cost-subscriptions/{id}/materialize [post]
func (h *MaterializationHandler) MaterializeCostSubscription(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	subscriptionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.materializer.MaterializeCostSubscription(requestContext(c), orgID, subscriptionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
