package payment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary amount in the smallest currency unit (cents)
type Money int64

// Currency represents a lowercase ISO currency code
type Currency string

const (
	USD Currency = "usd"
	EUR Currency = "eur"
	KES Currency = "kes"
	JPY Currency = "jpy"
)

// currencies without a minor unit
var zeroDecimal = map[Currency]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// NormalizeCurrency lowercases and trims a currency code
func NormalizeCurrency(code string) Currency {
	return Currency(strings.ToLower(strings.TrimSpace(code)))
}

// Exponent returns the number of minor-unit decimal places for the currency
func (c Currency) Exponent() int32 {
	if zeroDecimal[c] {
		return 0
	}
	return 2
}

// ToMinorUnits converts a major-unit decimal string into minor units, rounding
// half-up: "12.34" -> 1234, "12.345" -> 1235.
func ToMinorUnits(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("invalid amount format: %q", amount)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("amount must be positive: %s", amount)
	}

	minor := d.Shift(currency.Exponent()).Round(0)
	if !minor.IsPositive() {
		return 0, fmt.Errorf("amount rounds to zero: %s", amount)
	}
	if !minor.IsInteger() || minor.GreaterThan(decimal.NewFromInt(maxMinorUnits)) {
		return 0, fmt.Errorf("amount out of range: %s", amount)
	}
	return Money(minor.IntPart()), nil
}

// Stripe caps a single charge at 8 digits in minor units
const maxMinorUnits = 99_999_999

// Format renders the amount in major units for display
func (m Money) Format(currency Currency) string {
	d := decimal.NewFromInt(int64(m)).Shift(-currency.Exponent())
	return fmt.Sprintf("%s %s", strings.ToUpper(string(currency)), d.StringFixed(currency.Exponent()))
}
