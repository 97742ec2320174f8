package bill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// defaultPct is applied when the pct field is left empty
const defaultPct = 20

// ErrAlreadySubmitting is returned when Submit is called while a
// submission is in flight or has already succeeded.
var ErrAlreadySubmitting = errors.New("bill is already being submitted")

// FormError reports a form value that could not be used
type FormError struct {
	Field string
	Err   error
}

func (e *FormError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *FormError) Unwrap() error {
	return e.Err
}

// SubmissionState is the state of a new bill form
type SubmissionState string

const (
	StateEditing    SubmissionState = "editing"
	StateSubmitting SubmissionState = "submitting"
)

// Form holds the raw field values of the new bill form
type Form struct {
	Email      string
	Type       string
	Name       string
	Date       string
	Amount     string
	VAT        string
	Pct        string
	Commentary string
}

// Submission drives one new bill form from editing to submitting
type Submission struct {
	service  *Service
	navigate Navigator

	mu         sync.Mutex
	state      SubmissionState
	attachment *Attachment
}

// NewSubmission starts a submission in the editing state
func (s *Service) NewSubmission(navigate Navigator) *Submission {
	return &Submission{
		service:  s,
		navigate: navigate,
		state:    StateEditing,
	}
}

// State returns the current state
func (sub *Submission) State() SubmissionState {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.state
}

// Attachment returns the file picked so far, or nil
func (sub *Submission) Attachment() *Attachment {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.attachment
}

// ChangeFile stores the picked file and keeps its reference for Submit.
// Any file is accepted.
func (sub *Submission) ChangeFile(ctx context.Context, f FileUpload) error {
	sub.mu.Lock()
	if sub.state != StateEditing {
		sub.mu.Unlock()
		return ErrAlreadySubmitting
	}
	sub.mu.Unlock()

	a, err := sub.service.SaveAttachment(ctx, f)
	if err != nil {
		return err
	}

	sub.mu.Lock()
	previous := sub.attachment
	sub.attachment = a
	sub.mu.Unlock()

	if previous != nil {
		sub.removeAttachment(ctx, previous)
	}
	return nil
}

// Discard drops the picked file from storage. It is a no-op once the
// bill has been created or when no file was picked.
func (sub *Submission) Discard(ctx context.Context) {
	sub.mu.Lock()
	if sub.state != StateEditing || sub.attachment == nil {
		sub.mu.Unlock()
		return
	}
	a := sub.attachment
	sub.attachment = nil
	sub.mu.Unlock()

	sub.removeAttachment(ctx, a)
}

func (sub *Submission) removeAttachment(ctx context.Context, a *Attachment) {
	if err := sub.service.DeleteAttachment(ctx, a); err != nil {
		slog.Warn("Error removing unused attachment", "path", a.Path, "error", err)
	}
}

// Submit builds the bill from form, creates it in the store and
// navigates to the bill list. On failure the submission goes back to
// editing and the error is returned.
func (sub *Submission) Submit(ctx context.Context, form Form) (*Bill, error) {
	sub.mu.Lock()
	if sub.state != StateEditing {
		sub.mu.Unlock()
		return nil, ErrAlreadySubmitting
	}
	sub.state = StateSubmitting
	attachment := sub.attachment
	sub.mu.Unlock()

	created, err := sub.create(ctx, form, attachment)
	if err != nil {
		sub.mu.Lock()
		sub.state = StateEditing
		sub.mu.Unlock()
		return nil, err
	}

	sub.service.publishSubmitted(ctx, created)
	sub.navigate(RouteBills)
	return created, nil
}

func (sub *Submission) create(ctx context.Context, form Form, attachment *Attachment) (*Bill, error) {
	b, err := buildBill(form, attachment)
	if err != nil {
		return nil, err
	}
	return sub.service.CreateBill(ctx, b)
}

func buildBill(form Form, attachment *Attachment) (*Bill, error) {
	amount, err := parseWhole(form.Amount, 0)
	if err != nil {
		return nil, &FormError{Field: "amount", Err: err}
	}
	pct, err := parseWhole(form.Pct, defaultPct)
	if err != nil {
		return nil, &FormError{Field: "pct", Err: err}
	}

	vat := strings.TrimSpace(form.VAT)
	if vat != "" {
		d, err := decimal.NewFromString(vat)
		if err != nil {
			return nil, &FormError{Field: "vat", Err: err}
		}
		vat = d.String()
	}

	b := &Bill{
		Email:      strings.TrimSpace(form.Email),
		Type:       form.Type,
		Name:       strings.TrimSpace(form.Name),
		Date:       strings.TrimSpace(form.Date),
		Amount:     amount,
		VAT:        vat,
		Pct:        pct,
		Commentary: form.Commentary,
		Status:     StatusPending,
	}
	if attachment != nil {
		b.FileURL = attachment.FileURL
		b.FileName = attachment.FileName
	}
	return b, nil
}

// parseWhole parses a number and drops its fractional part.
// An empty value yields def.
func parseWhole(value string, def int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%s is negative", value)
	}
	return int(d.IntPart()), nil
}
