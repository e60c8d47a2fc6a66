package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the wire format of a calendar date.
const DateLayout = "2006-01-02"

// OtherCategory is the category choice that asks for a free-text category.
const OtherCategory = "Outros"

type (
	// Date is a calendar date. The time component is always midnight UTC.
	Date struct {
		time.Time
	}

	// Entry is one ledger record.
	Entry struct {
		ID            string  `json:"id"`
		Date          Date    `json:"date"`
		Description   string  `json:"description"`
		Location      string  `json:"location"`
		Category      string  `json:"category"`
		Payer         string  `json:"payer"`
		PaymentMethod string  `json:"paymentMethod"`
		Amount        float64 `json:"amount"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. A full RFC 3339 timestamp is accepted
// and truncated to its date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("empty date")
	}
	if len(s) > len(DateLayout) && s[len(DateLayout)] == 'T' {
		s = s[:len(DateLayout)]
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

// MustDate is ParseDate for literals known to be valid.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String returns the YYYY-MM-DD form, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Compare orders two dates by calendar day.
func (d Date) Compare(other Date) int {
	return d.Time.Compare(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate applies the single-entry rules used when an entry is added.
// The id is not checked; it is assigned by the store.
func (e Entry) Validate() error {
	var fields []string
	if e.Date.IsEmpty() {
		fields = append(fields, "date")
	}
	if strings.TrimSpace(e.Description) == "" {
		fields = append(fields, "description")
	}
	if strings.TrimSpace(e.Location) == "" {
		fields = append(fields, "location")
	}
	if strings.TrimSpace(e.Category) == "" {
		fields = append(fields, "category")
	}
	if strings.TrimSpace(e.Payer) == "" {
		fields = append(fields, "payer")
	}
	if strings.TrimSpace(e.PaymentMethod) == "" {
		fields = append(fields, "paymentMethod")
	}
	if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) || e.Amount < 0 {
		fields = append(fields, "amount")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ResolveCategory returns the free-text category when the "other" choice was
// selected, and the selected category otherwise.
func ResolveCategory(selected, other string) string {
	if strings.TrimSpace(selected) == OtherCategory {
		return strings.TrimSpace(other)
	}
	return strings.TrimSpace(selected)
}
