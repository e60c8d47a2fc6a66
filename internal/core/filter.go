package core

import (
	"math"
	"strings"
)

// Filter narrows a sequence of entries. A nil field leaves that dimension
// unconstrained; all set fields must hold for an entry to pass.
type Filter struct {
	DateFrom      *Date
	DateTo        *Date
	AmountMin     *float64
	AmountMax     *float64
	Payer         *string
	PaymentMethod *string
}

// FilterInput carries the raw text of the filter controls. Blank values mean
// "no constraint".
type FilterInput struct {
	DateFrom      string
	DateTo        string
	AmountMin     string
	AmountMax     string
	Payer         string
	PaymentMethod string
}

// ParseFilter builds a Filter from raw control values.
func ParseFilter(in FilterInput) (Filter, error) {
	var f Filter
	var bad []string

	parseDate := func(field, s string) *Date {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		d, err := ParseDate(s)
		if err != nil {
			bad = append(bad, field)
			return nil
		}
		return &d
	}
	parseAmount := func(field, s string) *float64 {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		v, err := ParseAmount(s)
		if err != nil {
			bad = append(bad, field)
			return nil
		}
		return &v
	}
	text := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}

	f.DateFrom = parseDate("dateFrom", in.DateFrom)
	f.DateTo = parseDate("dateTo", in.DateTo)
	f.AmountMin = parseAmount("amountMin", in.AmountMin)
	f.AmountMax = parseAmount("amountMax", in.AmountMax)
	f.Payer = text(in.Payer)
	f.PaymentMethod = text(in.PaymentMethod)

	if len(bad) > 0 {
		return Filter{}, &ValidationError{Fields: bad, Reason: "invalid filter"}
	}
	return f, nil
}

// IsEmpty reports whether the filter constrains nothing.
func (f Filter) IsEmpty() bool {
	return f.DateFrom == nil && f.DateTo == nil &&
		f.AmountMin == nil && f.AmountMax == nil &&
		f.Payer == nil && f.PaymentMethod == nil
}

// Match reports whether a single entry passes every active constraint.
// Date and amount bounds are inclusive. An entry without a date never
// satisfies an active date bound.
func (f Filter) Match(e Entry) bool {
	if f.DateFrom != nil || f.DateTo != nil {
		if e.Date.IsEmpty() {
			return false
		}
		if f.DateFrom != nil && e.Date.Compare(*f.DateFrom) < 0 {
			return false
		}
		if f.DateTo != nil && e.Date.Compare(*f.DateTo) > 0 {
			return false
		}
	}
	if f.AmountMin != nil && !(e.Amount >= *f.AmountMin) {
		return false
	}
	if f.AmountMax != nil && !(e.Amount <= *f.AmountMax) {
		return false
	}
	if f.Payer != nil && e.Payer != *f.Payer {
		return false
	}
	if f.PaymentMethod != nil && e.PaymentMethod != *f.PaymentMethod {
		return false
	}
	return true
}

// Apply returns the entries that match f, in input order. The input slice is
// not modified.
func Apply(entries []Entry, f Filter) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// AggregateTotal sums the amounts of the entries that match f. Non-finite
// amounts count as zero.
func AggregateTotal(entries []Entry, f Filter) float64 {
	var total float64
	for _, e := range entries {
		if f.Match(e) {
			total += finite(e.Amount)
		}
	}
	return total
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
