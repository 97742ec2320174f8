package bill

import (
	"context"
	"strings"
)

// Routes of the employee pages
const (
	RouteLogin   = ""
	RouteBills   = "#employee/bills"
	RouteNewBill = "#employee/bill/new"
)

// Navigator changes the visible page to the given route
type Navigator func(route string)

// PathFor maps a route to the URL path serving it
func PathFor(route string) string {
	return "/" + strings.TrimPrefix(route, "#")
}

// BillsPage backs the employee bill list
type BillsPage struct {
	service  *Service
	navigate Navigator
}

// NewBillsPage creates the page
func NewBillsPage(service *Service, navigate Navigator) *BillsPage {
	return &BillsPage{
		service:  service,
		navigate: navigate,
	}
}

// HandleClickNewBill opens the new bill form
func (p *BillsPage) HandleClickNewBill() {
	p.navigate(RouteNewBill)
}

// HandleClickIconEye shows the proof modal for a bill's attachment
func (p *BillsPage) HandleClickIconEye(billURL string) ModalView {
	return ModalView{
		ID:       proofModalID,
		Show:     true,
		ImageURL: billURL,
	}
}

// GetBills loads the list view. The error, if any, is returned alongside
// a view carrying its message.
func (p *BillsPage) GetBills(ctx context.Context) (BillsView, error) {
	bills, err := p.service.GetBills(ctx)
	if err != nil {
		return BillsView{Error: err.Error()}, err
	}
	return BillsView{Data: bills}, nil
}
