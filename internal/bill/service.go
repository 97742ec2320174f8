package bill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/billed/internal/events"
	"github.com/zombor/billed/internal/scanning"
)

// ErrScanningDisabled is returned by ScanAttachment when no scanner is configured
var ErrScanningDisabled = errors.New("attachment scanning is disabled")

// filesPrefix is the URL path attachments are served under
const filesPrefix = "/files/"

// IDGenerator generates unique IDs for bills
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// FileUpload is a file picked in the new bill form
type FileUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Attachment references a stored proof file
type Attachment struct {
	Path     string `json:"path"`
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
}

// Service handles bill operations
type Service struct {
	store       Store
	storage     Storage
	publisher   events.Publisher
	scanner     scanning.Scanner
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a Service with UUID ids and the system clock.
// publisher and scanner may be nil.
func NewService(store Store, storage Storage, publisher events.Publisher, scanner scanning.Scanner) *Service {
	return NewServiceWithDeps(store, storage, publisher, scanner, uuidGenerator{}, systemClock{})
}

// NewServiceWithDeps creates a Service with custom dependencies for testing
func NewServiceWithDeps(store Store, storage Storage, publisher events.Publisher, scanner scanning.Scanner, idGen IDGenerator, timeSrc TimeSource) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		store:       store,
		storage:     storage,
		publisher:   publisher,
		scanner:     scanner,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// GetBills lists the bills prepared for display, in store order.
// A bill whose date cannot be formatted is kept with its raw values.
// Store errors are returned as-is.
func (s *Service) GetBills(ctx context.Context) ([]DisplayBill, error) {
	raw, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	bills := make([]DisplayBill, 0, len(raw))
	for _, b := range raw {
		bills = append(bills, normalize(ctx, b))
	}
	return bills, nil
}

func normalize(ctx context.Context, b *Bill) DisplayBill {
	d := DisplayBill{
		Bill:          *b,
		DisplayDate:   b.Date,
		StatusLabel:   string(b.Status),
		DisplayAmount: FormatAmount(b.Amount),
	}

	formatted, err := FormatDate(b.Date)
	if err != nil {
		slog.WarnContext(ctx, "Failed to format bill, keeping raw values", "id", b.ID, "date", b.Date, "error", err)
		return d
	}

	d.DisplayDate = formatted
	d.StatusLabel = FormatStatus(b.Status)
	d.Formatted = true
	return d
}

// ListBills returns the stored bills without display formatting
func (s *Service) ListBills(ctx context.Context) ([]*Bill, error) {
	return s.store.List(ctx)
}

// GetBill retrieves a bill by ID
func (s *Service) GetBill(ctx context.Context, id string) (*Bill, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}
	return b, nil
}

// CreateBill stores a new bill. A missing ID is generated and a missing
// status defaults to pending.
func (s *Service) CreateBill(ctx context.Context, b *Bill) (*Bill, error) {
	if b.ID == "" {
		b.ID = s.idGenerator.Generate()
	}
	if b.Status == "" {
		b.Status = StatusPending
	}
	if err := b.Validate(); err != nil {
		return nil, &FormError{Field: "bill", Err: err}
	}
	return s.store.Create(ctx, b)
}

// UpdateBill replaces a stored bill
func (s *Service) UpdateBill(ctx context.Context, id string, b *Bill) (*Bill, error) {
	b.ID = id
	if err := b.Validate(); err != nil {
		return nil, &FormError{Field: "bill", Err: err}
	}
	return s.store.Update(ctx, id, b)
}

// SaveAttachment stores an uploaded proof file. No type or size check is
// done here.
func (s *Service) SaveAttachment(ctx context.Context, f FileUpload) (*Attachment, error) {
	name := fmt.Sprintf("%s_%s", s.idGenerator.Generate(), sanitizeFilename(f.Filename))

	path, err := s.storage.Save(ctx, name, f.Data, f.ContentType)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	return &Attachment{
		Path:     path,
		FileURL:  filesPrefix + url.PathEscape(path),
		FileName: f.Filename,
	}, nil
}

// DeleteAttachment removes a stored proof file
func (s *Service) DeleteAttachment(ctx context.Context, a *Attachment) error {
	if err := s.storage.Delete(ctx, a.Path); err != nil {
		return fmt.Errorf("deleting file %q: %w", a.Path, err)
	}
	return nil
}

// Attachment returns the bytes and content type of a stored proof file
func (s *Service) Attachment(ctx context.Context, path string) ([]byte, string, error) {
	data, err := s.storage.Get(ctx, path)
	if err != nil {
		return nil, "", fmt.Errorf("getting attachment: %w", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// ScanAttachment suggests form values read from a proof file
func (s *Service) ScanAttachment(ctx context.Context, f FileUpload) (*scanning.BillDraft, error) {
	if s.scanner == nil {
		return nil, ErrScanningDisabled
	}

	draft, err := s.scanner.ScanBill(ctx, f.Data, f.ContentType)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to scan attachment",
			"filename", f.Filename,
			"content_type", f.ContentType,
			"file_size", len(f.Data),
			"error", err,
		)
		return nil, fmt.Errorf("scanning attachment: %w", err)
	}
	return draft, nil
}

// publishSubmitted announces a new bill. Failures are logged only.
func (s *Service) publishSubmitted(ctx context.Context, b *Bill) {
	err := s.publisher.PublishBillSubmitted(ctx, events.BillSubmitted{
		ID:          b.ID,
		Email:       b.Email,
		Type:        b.Type,
		Name:        b.Name,
		Amount:      b.Amount,
		Date:        b.Date,
		SubmittedAt: s.timeSource.Now(),
	})
	if err != nil {
		slog.WarnContext(ctx, "Failed to publish bill submitted event", "id", b.ID, "error", err)
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename strips special characters and truncates the base name
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "justificatif"
	}
	return base + ext
}
