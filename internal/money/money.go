// Package money provides integer-cents amounts and decimal parsing.
//
// All engine arithmetic is done in cents (grosze) to avoid floating-point
// drift; floats appear only at presentation boundaries.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Cents is a monetary amount in cents. It is signed: ledger folds and
// month-end balances may legitimately go negative.
type Cents int64

// PercentFloor returns floor(c * pct / 100). Used by the bonus allocation
// where per-bucket amounts are floored and the residue goes to a designated
// adjustment bucket.
func (c Cents) PercentFloor(pct int) Cents {
	return Cents(int64(c) * int64(pct) / 100)
}

// String formats the amount as a plain decimal, e.g. 123456 -> "1234.56".
func (c Cents) String() string {
	v := int64(c)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// RatioPercent returns round(part/whole*100) with rounding half away from
// zero. Returns 0 when whole is 0 (never divides by zero).
func RatioPercent(part, whole Cents) int {
	if whole == 0 {
		return 0
	}
	num := int64(part) * 100
	den := int64(whole)
	q := num * 2 / den
	if q >= 0 {
		return int((q + 1) / 2)
	}
	return int((q - 1) / 2)
}

// ParseDecimal converts a decimal string to cents with half-up rounding on the
// third decimal place. It accepts both dot (12.34) and comma (12,34) decimal
// separators. Only positive amounts are accepted.
func ParseDecimal(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return Cents(cents), nil
}
