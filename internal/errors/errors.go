// Package errors provides custom error types for the agencyledger API.
// All service-layer errors should use AppError so that callers get a stable
// machine-readable code and never see internal details.
package errors

import (
	stderrors "errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// ErrorKind groups error codes into the four categories callers branch on.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindStore      ErrorKind = "store"
)

// Kind classifies err. Anything that is not an AppError is treated as a
// store failure since services only return AppErrors for domain outcomes.
func Kind(err error) ErrorKind {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return KindStore
	}
	switch appErr.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindStore
	}
}

// Code returns the AppError code carried by err, or the store code.
func Code(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrStore.Code
}

// Authentication & authorization errors.
var (
	ErrUnauthorized  = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden     = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrInvalidAPIKey = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrStore          = &AppError{Code: "STORE_ERROR", Message: "The data store failed to complete the operation", StatusCode: http.StatusInternalServerError}
)

// Client and contract errors.
var (
	ErrClientNotFound   = &AppError{Code: "CLIENT_NOT_FOUND", Message: "Client not found", StatusCode: http.StatusNotFound}
	ErrContractNotFound = &AppError{Code: "CONTRACT_NOT_FOUND", Message: "Contract not found", StatusCode: http.StatusNotFound}
)

// Installment errors.
var (
	ErrInvalidContractValue    = &AppError{Code: "INVALID_CONTRACT_VALUE", Message: "Contract value must be greater than zero", StatusCode: http.StatusBadRequest}
	ErrInvalidInstallmentCount = &AppError{Code: "INVALID_INSTALLMENT_COUNT", Message: "Installment count must be between 1 and 120", StatusCode: http.StatusBadRequest}
	ErrScheduleExists          = &AppError{Code: "SCHEDULE_EXISTS", Message: "Contract already has an installment schedule", StatusCode: http.StatusConflict}
	ErrScheduleHasPayments     = &AppError{Code: "SCHEDULE_HAS_PAYMENTS", Message: "Schedule contains confirmed installments", StatusCode: http.StatusConflict}
)

// Invoice errors.
var (
	ErrInvoiceNotFound         = &AppError{Code: "INVOICE_NOT_FOUND", Message: "Invoice not found", StatusCode: http.StatusNotFound}
	ErrInvalidStatusTransition = &AppError{Code: "INVALID_STATUS_TRANSITION", Message: "Invoice status does not allow this operation", StatusCode: http.StatusConflict}
	ErrInvoiceHasPayments      = &AppError{Code: "INVOICE_HAS_PAYMENTS", Message: "Invoice has recorded payments", StatusCode: http.StatusConflict}
	ErrCancelReasonRequired    = &AppError{Code: "CANCEL_REASON_REQUIRED", Message: "A cancellation reason is required", StatusCode: http.StatusBadRequest}
	ErrInvalidPaymentDate      = &AppError{Code: "INVALID_PAYMENT_DATE", Message: "Payment date cannot be in the future", StatusCode: http.StatusBadRequest}
	ErrInvoiceItemsRequired    = &AppError{Code: "INVOICE_ITEMS_REQUIRED", Message: "An invoice needs at least one item", StatusCode: http.StatusBadRequest}
	ErrInvoiceAlreadyForPeriod = &AppError{Code: "INVOICE_EXISTS_FOR_PERIOD", Message: "Client already has an invoice for this period", StatusCode: http.StatusConflict}
	ErrNothingToBillForPeriod  = &AppError{Code: "NOTHING_TO_BILL", Message: "Client has no active contract due in this period", StatusCode: http.StatusConflict}
)

// Ledger and obligation errors.
var (
	ErrTransactionNotFound      = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType   = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Unsupported transaction type", StatusCode: http.StatusBadRequest}
	ErrRecurringExpenseNotFound = &AppError{Code: "RECURRING_EXPENSE_NOT_FOUND", Message: "Recurring expense not found or inactive", StatusCode: http.StatusNotFound}
	ErrCostSubscriptionNotFound = &AppError{Code: "COST_SUBSCRIPTION_NOT_FOUND", Message: "Cost subscription not found or inactive", StatusCode: http.StatusNotFound}
	ErrInvalidReportWindow      = &AppError{Code: "INVALID_REPORT_WINDOW", Message: "date_from must not be after date_to", StatusCode: http.StatusBadRequest}
	ErrInvalidAuditMonths       = &AppError{Code: "INVALID_AUDIT_MONTHS", Message: "Audit months must be between 1 and 12", StatusCode: http.StatusBadRequest}
)
