package bill

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// maxFormSize bounds multipart bodies (50MB covers phone photos)
const maxFormSize = int64(50 << 20)

// PageConfig holds the settings the HTML pages need
type PageConfig struct {
	// DefaultEmail is used when the form does not carry an email
	DefaultEmail string
	ExpenseTypes []string
}

// Server handles HTTP requests for bills
type Server struct {
	service *Service
	pages   PageConfig
	mux     *http.ServeMux
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, pages PageConfig) *Server {
	return NewServerWithMux(service, pages, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, pages PageConfig, mux *http.ServeMux) *Server {
	if len(pages.ExpenseTypes) == 0 {
		pages.ExpenseTypes = DefaultExpenseTypes
	}
	s := &Server{
		service: service,
		pages:   pages,
		mux:     mux,
	}
	s.registerRoutes()
	return s
}

// corsMiddleware adds CORS headers and answers preflight requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// registerRoutes registers all routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /static/app.css", s.handleStaticCSS)
	s.mux.HandleFunc("GET /files/{path...}", s.handleFile)

	// Employee pages
	s.mux.HandleFunc("GET /employee/bills/new", s.handleClickNewBill)
	s.mux.HandleFunc("GET /employee/bills/{id}/proof", s.handleProof)
	s.mux.HandleFunc("GET /employee/bills", s.handleBillsPage)
	s.mux.HandleFunc("GET /employee/bill/new", s.handleNewBillForm)
	s.mux.HandleFunc("POST /employee/bill/new", s.handleSubmitNewBill)

	// API endpoints
	s.mux.HandleFunc("POST /api/bills/scan", s.handleScanAttachment)
	s.mux.HandleFunc("GET /api/bills/{id}", s.handleGetBill)
	s.mux.HandleFunc("PUT /api/bills/{id}", s.handleUpdateBill)
	s.mux.HandleFunc("GET /api/bills", s.handleListBills)
	s.mux.HandleFunc("POST /api/bills", s.handleCreateBill)

	// catch-all last
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
}

// Handler returns the server's handler wrapped with CORS
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
