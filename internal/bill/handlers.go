package bill

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON encodes v with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeJSONError writes {"error": message}
func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

// errorStatus maps a service error to an HTTP status
func errorStatus(err error) int {
	var formErr *FormError
	if errors.As(err, &formErr) {
		return http.StatusBadRequest
	}
	return StatusCode(err)
}

// writeHTML renders a page into a buffer first so a template failure
// still yields a clean 500.
func writeHTML(w http.ResponseWriter, code int, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		slog.Error("Error rendering page", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	w.Write(buf.Bytes())
}

// redirectTo returns a Navigator answering the current request with a
// redirect to the route's page.
func redirectTo(w http.ResponseWriter, r *http.Request) Navigator {
	return func(route string) {
		http.Redirect(w, r, PathFor(route), http.StatusSeeOther)
	}
}

// readUpload reads the multipart file field "file". ok is false when no
// file was sent.
func readUpload(r *http.Request) (upload FileUpload, ok bool, err error) {
	f, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return FileUpload{}, false, nil
	}
	if err != nil {
		return FileUpload{}, false, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return FileUpload{}, false, err
	}

	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return FileUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, true, nil
}

// handleRoot sends visitors to their bill list
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	redirectTo(w, r)(RouteBills)
}

// handleStaticCSS serves the stylesheet
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleBillsPage renders the bill list, or the error page when the
// store fails
func (s *Server) handleBillsPage(w http.ResponseWriter, r *http.Request) {
	page := NewBillsPage(s.service, redirectTo(w, r))
	view, err := page.GetBills(r.Context())

	code := http.StatusOK
	if err != nil {
		slog.Error("Error listing bills", "error", err)
		code = StatusCode(err)
	}
	writeHTML(w, code, func(out io.Writer) error {
		return RenderBills(out, view)
	})
}

// handleClickNewBill is the "new bill" button of the list
func (s *Server) handleClickNewBill(w http.ResponseWriter, r *http.Request) {
	NewBillsPage(s.service, redirectTo(w, r)).HandleClickNewBill()
}

// handleProof renders the proof modal of a bill
func (s *Server) handleProof(w http.ResponseWriter, r *http.Request) {
	b, err := s.service.GetBill(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), StatusCode(err))
		return
	}

	modal := NewBillsPage(s.service, redirectTo(w, r)).HandleClickIconEye(b.FileURL)
	writeHTML(w, http.StatusOK, func(out io.Writer) error {
		return RenderModal(out, modal)
	})
}

// handleNewBillForm renders an empty new bill form
func (s *Server) handleNewBillForm(w http.ResponseWriter, r *http.Request) {
	view := NewBillView{
		ExpenseTypes: s.pages.ExpenseTypes,
		Email:        s.pages.DefaultEmail,
	}
	writeHTML(w, http.StatusOK, func(out io.Writer) error {
		return RenderNewBill(out, view)
	})
}

// handleSubmitNewBill stores the picked file, creates the bill and
// redirects to the list. Invalid values re-render the form; store
// failures show the error page.
func (s *Server) handleSubmitNewBill(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		s.renderFormError(w, http.StatusBadRequest, Form{}, "Error parsing form")
		return
	}

	form := Form{
		Email:      r.FormValue("email"),
		Type:       r.FormValue("type"),
		Name:       r.FormValue("name"),
		Date:       r.FormValue("date"),
		Amount:     r.FormValue("amount"),
		VAT:        r.FormValue("vat"),
		Pct:        r.FormValue("pct"),
		Commentary: r.FormValue("commentary"),
	}
	if form.Email == "" {
		form.Email = s.pages.DefaultEmail
	}

	sub := s.service.NewSubmission(redirectTo(w, r))

	upload, ok, err := readUpload(r)
	if err != nil {
		slog.Error("Error reading uploaded file", "error", err)
		s.renderFormError(w, http.StatusBadRequest, form, "Error reading file. Please try again.")
		return
	}
	if ok {
		if err := sub.ChangeFile(r.Context(), upload); err != nil {
			slog.Error("Error saving attachment", "filename", upload.Filename, "error", err)
			renderErrorView(w, err)
			return
		}
	}

	if _, err := sub.Submit(r.Context(), form); err != nil {
		slog.Error("Error submitting bill", "error", err)
		sub.Discard(r.Context())
		var formErr *FormError
		if errors.As(err, &formErr) {
			s.renderFormError(w, http.StatusBadRequest, form, err.Error())
			return
		}
		renderErrorView(w, err)
		return
	}
}

// renderErrorView shows err's message on the error page
func renderErrorView(w http.ResponseWriter, err error) {
	writeHTML(w, StatusCode(err), func(out io.Writer) error {
		return RenderBills(out, BillsView{Error: err.Error()})
	})
}

func (s *Server) renderFormError(w http.ResponseWriter, code int, form Form, message string) {
	view := NewBillView{
		ExpenseTypes: s.pages.ExpenseTypes,
		Email:        form.Email,
		Form:         form,
		Error:        message,
	}
	writeHTML(w, code, func(out io.Writer) error {
		return RenderNewBill(out, view)
	})
}

// handleFile serves a stored attachment
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.Attachment(r.Context(), r.PathValue("path"))
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleListBills returns the raw bills
func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.service.ListBills(r.Context())
	if err != nil {
		slog.Error("Error listing bills", "error", err)
		writeJSONError(w, StatusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, bills)
}

// handleGetBill returns one raw bill
func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	b, err := s.service.GetBill(r.Context(), r.PathValue("id"))
	if err != nil {
		writeJSONError(w, StatusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleCreateBill creates a bill from a JSON body
func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var b Bill
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := s.service.CreateBill(r.Context(), &b)
	if err != nil {
		slog.Error("Error creating bill", "error", err)
		writeJSONError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateBill replaces a bill from a JSON body
func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	var b Bill
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := s.service.UpdateBill(r.Context(), r.PathValue("id"), &b)
	if err != nil {
		slog.Error("Error updating bill", "error", err)
		writeJSONError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleScanAttachment suggests form values from an uploaded file
func (s *Server) handleScanAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	upload, ok, err := readUpload(r)
	if err != nil || !ok {
		writeJSONError(w, http.StatusBadRequest, "No file was selected. Please choose a file to scan.")
		return
	}

	draft, err := s.service.ScanAttachment(r.Context(), upload)
	if errors.Is(err, ErrScanningDisabled) {
		writeJSONError(w, http.StatusNotImplemented, err.Error())
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, draft)
}
