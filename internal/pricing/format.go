package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a raw amount cannot be read as a decimal.
var ErrInvalidAmount = errors.New("invalid amount")

// Round returns d rounded half away from zero to cents, as a plain string.
func Round(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Format renders d for display, e.g. 23.085 -> "$23.09".
func Format(d decimal.Decimal) string {
	return "$" + Round(d)
}

// FormatRate renders a fractional rate as a percentage, e.g. 0.08 -> "8%".
func FormatRate(rate decimal.Decimal) string {
	return rate.Shift(2).String() + "%"
}

// ParseAmount reads a user-entered monetary amount. Negative numbers parse;
// comparing them with the bill is the caller's job.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Join(ErrInvalidAmount, err)
	}
	return d, nil
}
