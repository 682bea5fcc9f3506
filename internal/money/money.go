// Package money provides the fixed-scale decimal arithmetic used by the
// ledger engine. Monetary amounts carry two fractional digits, annual rates
// six; every stored value passes through Quantize or QuantizeRate so the
// database only ever holds canonical strings.
package money

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// AmountScale is the number of fractional digits on monetary amounts.
	AmountScale = 2
	// RateScale is the number of fractional digits on annual interest rates.
	RateScale = 6
)

// Quantize rounds an amount to two fractional digits, ties away from zero
// (half-up for the non-negative values the engine produces).
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// QuantizeRate rounds a rate to six fractional digits, ties away from zero.
func QuantizeRate(d decimal.Decimal) decimal.Decimal {
	return d.Round(RateScale)
}

// Interest computes quantized simple interest over a day-count window:
// balance × rate × days / basis. The division happens before quantization so
// rounding is applied exactly once per accrual.
func Interest(balance, rate decimal.Decimal, days, basis int) decimal.Decimal {
	gross := balance.
		Mul(rate).
		Mul(decimal.NewFromInt(int64(days))).
		Div(decimal.NewFromInt(int64(basis)))
	return Quantize(gross)
}

// DaysBetween counts whole calendar days from one date to another. Both
// arguments are expected to be date-only values (midnight UTC), which is how
// DATE columns scan.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

// ParseAmount parses a decimal amount string. The value is not quantized;
// callers quantize at the point they store or compare.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// ParseRate parses a decimal rate string.
func ParseRate(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse rate %q: %w", s, err)
	}
	return d, nil
}

// FormatAmount renders the canonical storage form of an amount: quantized,
// always two fractional digits ("100.00").
func FormatAmount(d decimal.Decimal) string {
	return Quantize(d).StringFixed(AmountScale)
}

// FormatRate renders the canonical storage form of a rate ("0.100000").
func FormatRate(d decimal.Decimal) string {
	return QuantizeRate(d).StringFixed(RateScale)
}
