package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/models"
	"agencyledger/internal/pagination"
	"agencyledger/internal/services"
	"agencyledger/internal/uuid"
)

// TransactionHandler handles manual ledger entries.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	ClientID    *string                  `json:"client_id" binding:"omitempty,uuid"`
	Type        models.TransactionType   `json:"type" binding:"required,transaction_type"`
	Status      models.TransactionStatus `json:"status" binding:"omitempty,transaction_status"`
	Amount      decimal.Decimal          `json:"amount" swaggertype:"string" example:"150.00"`
	Category    string                   `json:"category" binding:"max=100"`
	Description string                   `json:"description" binding:"max=500"`
	Date        *string                  `json:"date"`
}

// CreateTransaction handles the creation of a manual ledger entry
// @Summary     Create a transaction
// @Description Record a MANUAL income or expense, optionally attributed to a client
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := toCents(req.Amount, "amount")
	if err != nil {
		respondWithError(c, err)
		return
	}

	in := services.CreateTransactionInput{
		ClientID:    req.ClientID,
		Type:        req.Type,
		Status:      req.Status,
		Amount:      amount,
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Date != nil && *req.Date != "" {
		if in.Date, err = parseFlexibleTime(*req.Date); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	transaction, err := h.transactionService.CreateTransaction(requestContext(c), orgID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// ListTransactions handles the retrieval of the organization's transactions
// @Summary     List transactions
// @Description Get a paginated list of transactions with optional filters, newest first
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Param       from_date  query string false "Filter by start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date    query string false "Filter by end date (RFC3339 or YYYY-MM-DD, inclusive)"
// @Param       type       query string false "INCOME or EXPENSE"
// @Param       subtype    query string false "FIXED_EXPENSE, CLIENT_COST, INVOICE_PAYMENT or MANUAL"
// @Param       status     query string false "PENDING or CONFIRMED"
// @Param       client_id  query string false "Filter by client"
// @Param       min_amount query int    false "Filter by minimum amount (cents)"
// @Param       max_amount query int    false "Filter by maximum amount (cents)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.ListTransactions(requestContext(c), orgID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter
	var err error

	if filter.FromDate, err = parseOptionalTime(c, "from_date"); err != nil {
		return filter, err
	}
	if filter.ToDate, err = parseOptionalTime(c, "to_date"); err != nil {
		return filter, err
	}
	filter.ToDate = endOfDay(filter.ToDate, c.Query("to_date"))

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		switch txType {
		case models.TransactionTypeIncome, models.TransactionTypeExpense:
			filter.Type = &txType
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be INCOME or EXPENSE")
		}
	}

	if v := c.Query("subtype"); v != "" {
		subtype := models.TransactionSubtype(v)
		switch subtype {
		case models.TransactionSubtypeFixedExpense, models.TransactionSubtypeClientCost,
			models.TransactionSubtypeInvoicePayment, models.TransactionSubtypeManual:
			filter.Subtype = &subtype
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid subtype")
		}
	}

	if v := c.Query("status"); v != "" {
		status := models.TransactionStatus(v)
		switch status {
		case models.TransactionStatusPending, models.TransactionStatusConfirmed:
			filter.Status = &status
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid status, must be PENDING or CONFIRMED")
		}
	}

	if v := c.Query("client_id"); v != "" {
		if !uuid.IsValid(v) {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid client_id")
		}
		filter.ClientID = &v
	}

	if v := c.Query("min_amount"); v != "" {
		amt, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid min_amount")
		}
		filter.MinAmount = &amt
	}

	if v := c.Query("max_amount"); v != "" {
		amt, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid max_amount")
		}
		filter.MaxAmount = &amt
	}

	return filter, nil
}

// DeleteTransaction handles the deletion of a transaction
// @Summary     Delete transaction
// @Description Soft-delete a transaction. A materialized entry can then be materialized again for its period.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(requestContext(c), orgID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted successfully"})
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(requestContext(c), orgID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}
