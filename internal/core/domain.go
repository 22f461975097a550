package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentCash PaymentMethod = "cash"
	PaymentUPI  PaymentMethod = "upi"

	SaleIDPrefix    = "SL"
	ExpenseIDPrefix = "EX"
)

type (
	PaymentMethod string

	// Date is a calendar date without a time component. It marshals as
	// "2006-01-02" so records stay comparable by plain date.
	Date struct {
		time.Time
	}

	// Identity is the creator stamped onto every created or updated record.
	Identity struct {
		Username string `json:"username"`
		Name     string `json:"name"`
	}

	Sale struct {
		ID            string          `json:"id"`
		Date          Date            `json:"date"`
		Business      string          `json:"business"`
		Cash          decimal.Decimal `json:"cash"`
		UPI           decimal.Decimal `json:"upi"`
		Total         decimal.Decimal `json:"total"`
		CreatedBy     string          `json:"created_by"`
		CreatedByName string          `json:"created_by_name"`
		CreatedAt     time.Time       `json:"created_at"`
		UpdatedAt     time.Time       `json:"updated_at"`
	}

	Expense struct {
		ID            string          `json:"id"`
		Date          Date            `json:"date"`
		Business      string          `json:"business"`
		Purpose       string          `json:"purpose"`
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod PaymentMethod   `json:"payment_method"`
		Image         string          `json:"image,omitempty"`
		ImageName     string          `json:"imageName,omitempty"`
		CreatedBy     string          `json:"created_by"`
		CreatedByName string          `json:"created_by_name"`
		CreatedAt     time.Time       `json:"created_at"`
		UpdatedAt     time.Time       `json:"updated_at"`
	}
)

// ErrNotFound reports an operation targeting a nonexistent identifier.
var ErrNotFound = errors.New("record not found")

// ValidationError reports a missing or invalid required field. The operation
// is aborted before any mutation takes place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "2006-01-02" calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		// Tolerate full timestamps written by older clients.
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parse date %q: %w", s, err)
		}
	}
	*d = Date{Time: t}
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return invalid("date", "date is required")
	}
	return nil
}

// Recalculate refreshes the derived total from cash and UPI.
func (s *Sale) Recalculate() {
	s.Total = s.Cash.Add(s.UPI)
}

func (s Sale) Validate() error {
	if err := s.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(s.Business) == "" {
		return invalid("business", "business is required")
	}
	if s.Cash.IsNegative() {
		return invalid("cash", "cash amount cannot be negative")
	}
	if s.UPI.IsNegative() {
		return invalid("upi", "UPI amount cannot be negative")
	}
	if s.Cash.IsZero() && s.UPI.IsZero() {
		return invalid("amount", "at least one payment amount is required")
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Business) == "" {
		return invalid("business", "business is required")
	}
	if strings.TrimSpace(e.Purpose) == "" {
		return invalid("purpose", "purpose is required")
	}
	if !e.Amount.IsPositive() {
		return invalid("amount", "amount must be greater than zero")
	}
	if !e.PaymentMethod.Valid() {
		return invalid("payment_method", `payment method must be "cash" or "upi"`)
	}
	return nil
}

func (m PaymentMethod) Valid() bool {
	switch strings.ToLower(string(m)) {
	case string(PaymentCash), string(PaymentUPI):
		return true
	}
	return false
}

// Is reports whether the method matches the given label, case-insensitively.
// Stray labels from older datasets match nothing and stay out of the cash/UPI
// breakdown.
func (m PaymentMethod) Is(other PaymentMethod) bool {
	return strings.EqualFold(string(m), string(other))
}
