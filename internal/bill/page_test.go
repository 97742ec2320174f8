package bill

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BillsPage", func() {
	var (
		store  *mockStore
		routes []string
		page   *BillsPage
	)

	BeforeEach(func() {
		store = newMockStore(
			&Bill{ID: "a", Status: StatusPending, Date: "2004-04-04", FileURL: "/files/a.jpg"},
		)
		routes = nil
		service := NewService(store, newMockStorage(), nil, nil)
		page = NewBillsPage(service, func(route string) {
			routes = append(routes, route)
		})
	})

	Describe("HandleClickNewBill", func() {
		It("should navigate to the new bill route exactly once", func() {
			page.HandleClickNewBill()
			Expect(routes).To(Equal([]string{"#employee/bill/new"}))
		})
	})

	Describe("HandleClickIconEye", func() {
		It("should open the proof modal on the bill's file", func() {
			modal := page.HandleClickIconEye("/files/a.jpg")
			Expect(modal.ID).To(Equal("modaleFile"))
			Expect(modal.Show).To(BeTrue())
			Expect(modal.ImageURL).To(Equal("/files/a.jpg"))
		})

		It("should not navigate", func() {
			page.HandleClickIconEye("/files/a.jpg")
			Expect(routes).To(BeEmpty())
		})
	})

	Describe("GetBills", func() {
		It("should return the data view", func() {
			view, err := page.GetBills(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(view.Data).To(HaveLen(1))
			Expect(view.Error).To(BeEmpty())
		})

		When("the store fails", func() {
			BeforeEach(func() {
				store.listErr = &StoreError{Code: 404}
			})

			It("should return the error view", func() {
				view, err := page.GetBills(context.Background())
				Expect(err).To(MatchError("Erreur 404"))
				Expect(view.Error).To(Equal("Erreur 404"))
				Expect(view.Data).To(BeNil())
			})
		})
	})
})

var _ = Describe("PathFor", func() {
	DescribeTable("maps routes to URL paths",
		func(route, path string) {
			Expect(PathFor(route)).To(Equal(path))
		},
		Entry("login", RouteLogin, "/"),
		Entry("bills", RouteBills, "/employee/bills"),
		Entry("new bill", RouteNewBill, "/employee/bill/new"),
	)
})
