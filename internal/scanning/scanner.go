package scanning

import "context"

// BillDraft holds the form values suggested from a proof file
type BillDraft struct {
	Type   string  `json:"type"`
	Name   string  `json:"name"`
	Date   string  `json:"date"` // YYYY-MM-DD
	Amount float64 `json:"amount"`
	VAT    string  `json:"vat"`
	Pct    int     `json:"pct"`
}

// Scanner reads a proof file (image or PDF) and suggests bill values
type Scanner interface {
	ScanBill(ctx context.Context, data []byte, contentType string) (*BillDraft, error)
	// Close releases the scanner's resources
	Close() error
}
