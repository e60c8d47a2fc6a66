// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed by users
// and formatting them for display in Brazilian reais.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a decimal string to an amount with two decimal places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Zero is allowed; negative values
// and malformed input are rejected with a ValidationError on "amount".
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil (rounds up)
//	ParseAmount("0") -> 0, nil
func ParseAmount(s string) (float64, error) {
	cents, err := parseCents(s)
	if err != nil {
		return 0, err
	}
	return float64(cents) / 100.0, nil
}

func parseCents(s string) (int64, error) {
	invalid := &ValidationError{Fields: []string{"amount"}, Reason: "amount must be a non-negative number"}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, invalid
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, invalid
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, invalid
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, invalid
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, invalid
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64-1 {
		return 0, invalid
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// FormatBRL renders an amount as Brazilian reais, e.g. "R$ 1.234,56".
// Non-finite values render as zero.
func FormatBRL(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	cents := int64(math.Round(v * 100))
	intPart := strconv.FormatInt(cents/100, 10)

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	frac := cents % 100
	return sign + "R$ " + b.String() + "," + strconv.FormatInt(frac/10, 10) + strconv.FormatInt(frac%10, 10)
}

// FormatDate renders a date as dd/mm/yyyy, or "" for the zero date.
func FormatDate(d Date) string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format("02/01/2006")
}
