// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"agencyledger/internal/models"
	"agencyledger/internal/period"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom validators on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("transaction_status", validateTransactionStatus)
	_ = v.RegisterValidation("invoice_status", validateInvoiceStatus)
	_ = v.RegisterValidation("period", validatePeriod)
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch models.TransactionType(fl.Field().String()) {
	case models.TransactionTypeIncome, models.TransactionTypeExpense:
		return true
	}
	return false
}

func validateTransactionStatus(fl validator.FieldLevel) bool {
	switch models.TransactionStatus(fl.Field().String()) {
	case models.TransactionStatusPending, models.TransactionStatusConfirmed:
		return true
	}
	return false
}

func validateInvoiceStatus(fl validator.FieldLevel) bool {
	return models.InvoiceStatus(fl.Field().String()).Valid()
}

// validatePeriod accepts a "YYYY-MM" month key.
func validatePeriod(fl validator.FieldLevel) bool {
	_, err := period.ParseMonthKey(fl.Field().String())
	return err == nil
}
