// Package money parses and formats wallet amounts. Amounts are decimals with
// at most two fractional digits, always non-negative at the parse boundary.
package money

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"securevault/internal/errs"
)

var amountRegex = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// Parse validates input as a well-formed amount within [min, max].
func Parse(input, min, max string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return decimal.Zero, errs.Validation("amount", "amount is required")
	}
	if !amountRegex.MatchString(trimmed) {
		return decimal.Zero, errs.Validation("amount", "must be a number with up to 2 decimal places")
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, errs.Validation("amount", "invalid amount format")
	}
	minAmount, err := decimal.NewFromString(min)
	if err != nil {
		return decimal.Zero, errs.Validation("amount", "invalid minimum configured")
	}
	maxAmount, err := decimal.NewFromString(max)
	if err != nil {
		return decimal.Zero, errs.Validation("amount", "invalid maximum configured")
	}
	if amount.LessThan(minAmount) {
		return decimal.Zero, errs.Validation("amount", "amount must be at least "+Format(minAmount))
	}
	if amount.GreaterThan(maxAmount) {
		return decimal.Zero, errs.Validation("amount", "amount cannot exceed "+Format(maxAmount))
	}
	return amount, nil
}

// ParseStored decodes an amount previously written by this process, e.g. a
// decrypted balance. Stored values are trusted to be well-formed; a failure
// here is corruption, not user error.
func ParseStored(input string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// Format renders an amount with exactly two decimal places.
func Format(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
