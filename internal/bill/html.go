package bill

import (
	"embed"
	"html/template"
	"io"
)

//go:embed static/templates/*.html
var templatesFS embed.FS

//go:embed static/app.css
var appCSS []byte

var templates = template.Must(template.ParseFS(templatesFS, "static/templates/*.html"))

const proofModalID = "modaleFile"

// BillsView is the state rendered by the bill list: either Data or Error
type BillsView struct {
	Data    []DisplayBill
	Error   string
	Loading bool
}

// NewBillView is the state rendered by the new bill form
type NewBillView struct {
	ExpenseTypes []string
	Email        string
	Form         Form
	Error        string
}

// ModalView is the proof modal opened from a bill row
type ModalView struct {
	ID       string
	Show     bool
	ImageURL string
}

// RenderBills writes the bill list page. Bills are shown most recent first.
func RenderBills(w io.Writer, v BillsView) error {
	switch {
	case v.Loading:
		return templates.ExecuteTemplate(w, "loading", v)
	case v.Error != "":
		return templates.ExecuteTemplate(w, "error", v)
	}

	sorted := make([]DisplayBill, len(v.Data))
	copy(sorted, v.Data)
	SortByDateDesc(sorted)
	v.Data = sorted

	return templates.ExecuteTemplate(w, "bills", v)
}

// RenderNewBill writes the new bill form page
func RenderNewBill(w io.Writer, v NewBillView) error {
	if len(v.ExpenseTypes) == 0 {
		v.ExpenseTypes = DefaultExpenseTypes
	}
	return templates.ExecuteTemplate(w, "newbill", v)
}

// RenderModal writes the proof modal fragment
func RenderModal(w io.Writer, v ModalView) error {
	return templates.ExecuteTemplate(w, "modal", v)
}
