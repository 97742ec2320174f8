package events

import (
	"context"
	"encoding/json"
	"time"
)

// BillSubmitted is emitted once a new bill has been stored
type BillSubmitted struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Amount      int       `json:"amount"`
	Date        string    `json:"date"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// ToJSON converts the event to JSON bytes
func (e BillSubmitted) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers bill events to interested consumers
type Publisher interface {
	PublishBillSubmitted(ctx context.Context, e BillSubmitted) error
	Close() error
}

// Noop discards every event
type Noop struct{}

func (Noop) PublishBillSubmitted(context.Context, BillSubmitted) error { return nil }

func (Noop) Close() error { return nil }
