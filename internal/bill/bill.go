package bill

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Status is the review state of a bill
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRefused:
		return true
	}
	return false
}

// Bill is an expense report as stored by the bills store.
// Date is kept as the raw YYYY-MM-DD string the store returns.
type Bill struct {
	ID           string `json:"id"`
	Status       Status `json:"status"`
	Amount       int    `json:"amount"`
	Date         string `json:"date"`
	Pct          int    `json:"pct"`
	VAT          string `json:"vat"`
	FileURL      string `json:"fileUrl"`
	FileName     string `json:"fileName"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Commentary   string `json:"commentary"`
	CommentAdmin string `json:"commentAdmin"`
	Type         string `json:"type"`
}

type billFields Bill

// UnmarshalJSON accepts amount and pct as any JSON number or numeric
// string. The fractional part is dropped.
func (b *Bill) UnmarshalJSON(data []byte) error {
	var raw struct {
		billFields
		Amount *decimal.Decimal `json:"amount"`
		Pct    *decimal.Decimal `json:"pct"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*b = Bill(raw.billFields)
	if raw.Amount != nil {
		b.Amount = wholePart(*raw.Amount)
	}
	if raw.Pct != nil {
		b.Pct = wholePart(*raw.Pct)
	}
	return nil
}

// wholePart truncates d, keeping negative values below zero so that
// Validate still sees them.
func wholePart(d decimal.Decimal) int {
	n := int(d.IntPart())
	if n == 0 && d.IsNegative() {
		return -1
	}
	return n
}

// Validate checks the fields every stored bill must carry. The date is
// not checked here: a malformed date is shown as-is by the list view.
func (b *Bill) Validate() error {
	var errs []error
	if b.ID == "" {
		errs = append(errs, errors.New("missing id"))
	}
	if !b.Status.Valid() {
		errs = append(errs, fmt.Errorf("invalid status %q", b.Status))
	}
	if b.Amount < 0 {
		errs = append(errs, fmt.Errorf("negative amount %d", b.Amount))
	}
	if b.Pct < 0 {
		errs = append(errs, fmt.Errorf("negative pct %d", b.Pct))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid bill %q: %w", b.ID, errors.Join(errs...))
	}
	return nil
}

// DisplayBill is a bill prepared for the list view
type DisplayBill struct {
	Bill
	DisplayDate   string `json:"displayDate"`
	StatusLabel   string `json:"statusLabel"`
	DisplayAmount string `json:"displayAmount"`
	// Formatted is false when the date could not be parsed and
	// DisplayDate holds the raw value.
	Formatted bool `json:"formatted"`
}
