package bill

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Store is the data-access interface for the bills collection
type Store interface {
	// List returns every bill in store order
	List(ctx context.Context) ([]*Bill, error)

	// Get returns a bill by ID
	Get(ctx context.Context, id string) (*Bill, error)

	// Create stores a new bill and returns the stored record
	Create(ctx context.Context, b *Bill) (*Bill, error)

	// Update replaces an existing bill and returns the stored record
	Update(ctx context.Context, id string, b *Bill) (*Bill, error)

	// Close releases the store's resources
	Close() error
}

// StoreError is an HTTP-style failure reported by a store
type StoreError struct {
	Code int
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("Erreur %d", e.Code)
}

// Is matches any StoreError with the same code
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	return ok && t.Code == e.Code
}

// ErrNotFound is returned when a bill does not exist
var ErrNotFound = &StoreError{Code: http.StatusNotFound}

// StatusCode returns the HTTP status carried by err, or 500 when err is
// not a StoreError.
func StatusCode(err error) int {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code
	}
	return http.StatusInternalServerError
}
