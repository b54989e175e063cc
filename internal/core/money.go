// Package core holds the statement domain: transactions, category rules,
// summary rows and the error taxonomy shared by the loader, store and shells.
//
// This file contains amount parsing and formatting.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount parses a statement amount such as "1,234.50".
//
// Thousands separators (",") are stripped before parsing. The result is a
// non-negative magnitude; the sign of a movement is carried by Direction.
//
// Examples:
//
//	ParseAmount("50")        -> 50, nil
//	ParseAmount("1,200.00")  -> 1200, nil
//	ParseAmount("-3")        -> ErrNegativeAmount
//	ParseAmount("abc")       -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals and "," thousands
// separators, e.g. 1234.5 -> "1,234.50".
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
