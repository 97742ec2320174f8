package bill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RESTStore implements Store against a remote bills API
// (GET/POST /api/bills, GET/PUT /api/bills/{id}).
type RESTStore struct {
	baseURL string
	client  *http.Client
}

// NewRESTStore creates a RESTStore for the API rooted at baseURL
func NewRESTStore(baseURL string) (*RESTStore, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing store url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid store url scheme %q", u.Scheme)
	}

	return &RESTStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// List returns every bill from the remote store
func (s *RESTStore) List(ctx context.Context) ([]*Bill, error) {
	var bills []*Bill
	if err := s.do(ctx, http.MethodGet, "/api/bills", nil, &bills); err != nil {
		return nil, err
	}
	for _, b := range bills {
		if err := b.Validate(); err != nil {
			return nil, err
		}
	}
	if bills == nil {
		bills = []*Bill{}
	}
	return bills, nil
}

// Get retrieves a bill by ID
func (s *RESTStore) Get(ctx context.Context, id string) (*Bill, error) {
	var b Bill
	if err := s.do(ctx, http.MethodGet, "/api/bills/"+url.PathEscape(id), nil, &b); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Create posts a new bill
func (s *RESTStore) Create(ctx context.Context, b *Bill) (*Bill, error) {
	var created Bill
	if err := s.do(ctx, http.MethodPost, "/api/bills", b, &created); err != nil {
		return nil, err
	}
	if err := created.Validate(); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces a remote bill
func (s *RESTStore) Update(ctx context.Context, id string, b *Bill) (*Bill, error) {
	var updated Bill
	if err := s.do(ctx, http.MethodPut, "/api/bills/"+url.PathEscape(id), b, &updated); err != nil {
		return nil, err
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Close releases idle connections
func (s *RESTStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// do sends a JSON request and decodes the JSON response into out.
// Non-2xx responses become a StoreError carrying the status code.
func (s *RESTStore) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling bills API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &StoreError{Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
