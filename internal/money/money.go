// Package money converts between decimal amounts and the int64 cent values
// stored in the ledger, and splits totals without losing cents.
package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var (
	// ErrNonPositive is returned when an amount that must be positive is not.
	ErrNonPositive = errors.New("amount must be greater than zero")
	// ErrInvalidParts is returned when a split is requested into fewer than one part.
	ErrInvalidParts = errors.New("number of parts must be at least 1")
	// ErrOverflow is returned when a decimal does not fit in int64 cents.
	ErrOverflow = errors.New("amount is out of range")
)

var hundred = decimal.NewFromInt(100)

// FromDecimal truncates d to two decimal places and returns it in cents.
func FromDecimal(d decimal.Decimal) (int64, error) {
	cents := d.Truncate(2).Mul(hundred)
	if cents.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || cents.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, ErrOverflow
	}
	return cents.IntPart(), nil
}

// Parse reads a decimal string such as "1000.00" into cents.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return FromDecimal(d)
}

// ToDecimal returns cents as a two-place decimal.
func ToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Format renders cents as a fixed two-decimal string, e.g. 100034 -> "1000.34".
func Format(cents int64) string {
	return ToDecimal(cents).StringFixed(2)
}

// Split divides total cents into parts amounts. Every part but the last is
// total/parts rounded down to the cent; the last part absorbs the remainder so
// the parts always sum to total exactly.
func Split(total int64, parts int) ([]int64, error) {
	if total <= 0 {
		return nil, ErrNonPositive
	}
	if parts < 1 {
		return nil, ErrInvalidParts
	}

	per := total / int64(parts)
	amounts := make([]int64, parts)
	var allocated int64
	for i := 0; i < parts-1; i++ {
		amounts[i] = per
		allocated += per
	}
	amounts[parts-1] = total - allocated
	return amounts, nil
}

// Percent returns part/whole*100 rounded to two places, or zero if whole is zero.
func Percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	pct, _ := decimal.NewFromInt(part).
		Div(decimal.NewFromInt(whole)).
		Mul(hundred).
		Round(2).
		Float64()
	return pct
}
