package handlers

import (
	"github.com/shopspring/decimal"

	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/money"
)

// toCents converts a decimal request amount such as 1000.50 or "1000.50"
// into cents. Digits beyond the cent are truncated.
func toCents(d decimal.Decimal, field string) (int64, error) {
	cents, err := money.FromDecimal(d)
	if err != nil {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, field+" is out of range")
	}
	return cents, nil
}
