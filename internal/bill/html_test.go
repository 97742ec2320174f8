package bill

import (
	"bytes"
	"regexp"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var billDates = regexp.MustCompile(`data-testid="bill-date" datetime="([^"]*)"`)

var _ = Describe("RenderBills", func() {
	var (
		view BillsView
		out  string
		err  error
	)

	JustBeforeEach(func() {
		var buf bytes.Buffer
		err = RenderBills(&buf, view)
		out = buf.String()
	})

	When("bills are loaded", func() {
		BeforeEach(func() {
			view = BillsView{Data: []DisplayBill{
				{Bill: Bill{ID: "b", Date: "2002-02-02", Type: "Transports", Name: "Train"}, DisplayDate: "2 Fév. 02", StatusLabel: "Refusé", DisplayAmount: "20 €"},
				{Bill: Bill{ID: "d", Date: "2004-04-04", Name: "Hôtel", FileURL: "/files/d.jpg"}, DisplayDate: "4 Avr. 04", StatusLabel: "En attente"},
				{Bill: Bill{ID: "a", Date: "2001-01-01", Name: "Taxi"}, DisplayDate: "1 Jan. 01", StatusLabel: "Accepté"},
				{Bill: Bill{ID: "c", Date: "2003-03-03", Name: "Repas"}, DisplayDate: "3 Mar. 03", StatusLabel: "En attente"},
			}}
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should list dates from latest to earliest", func() {
			var dates []string
			for _, m := range billDates.FindAllStringSubmatch(out, -1) {
				dates = append(dates, m[1])
			}
			Expect(dates).To(Equal([]string{"2004-04-04", "2003-03-03", "2002-02-02", "2001-01-01"}))
		})

		It("should not reorder the caller's slice", func() {
			Expect(view.Data[0].ID).To(Equal("b"))
		})

		It("should show the display values", func() {
			Expect(out).To(ContainSubstring("4 Avr. 04"))
			Expect(out).To(ContainSubstring("Refusé"))
			Expect(out).To(ContainSubstring("20 €"))
		})

		It("should highlight the bills icon only", func() {
			Expect(out).To(MatchRegexp(`data-testid="icon-window" class="active-icon"`))
			Expect(out).NotTo(MatchRegexp(`data-testid="icon-mail" class="active-icon"`))
		})

		It("should render an eye icon per bill carrying the file URL", func() {
			Expect(strings.Count(out, `data-testid="icon-eye"`)).To(Equal(4))
			Expect(out).To(ContainSubstring(`data-bill-url="/files/d.jpg"`))
		})

		It("should render the new bill button", func() {
			Expect(out).To(ContainSubstring(`data-testid="btn-new-bill"`))
		})
	})

	When("there are no bills", func() {
		BeforeEach(func() {
			view = BillsView{Data: []DisplayBill{}}
		})

		It("should show the empty message", func() {
			Expect(out).To(ContainSubstring("Aucune note de frais"))
		})
	})

	When("loading", func() {
		BeforeEach(func() {
			view = BillsView{Loading: true}
		})

		It("should render the loading page", func() {
			Expect(out).To(ContainSubstring("Loading..."))
			Expect(out).NotTo(ContainSubstring(`data-testid="tbody"`))
		})
	})

	When("the view carries an error", func() {
		BeforeEach(func() {
			view = BillsView{Error: "Erreur 404"}
		})

		It("should render the message on the error page", func() {
			Expect(out).To(ContainSubstring(`<div data-testid="error-message">Erreur 404</div>`))
		})

		It("should not render the table", func() {
			Expect(out).NotTo(ContainSubstring(`data-testid="tbody"`))
		})
	})
})

var _ = Describe("RenderNewBill", func() {
	var out string

	BeforeEach(func() {
		var buf bytes.Buffer
		Expect(RenderNewBill(&buf, NewBillView{Email: "employee@test.tld"})).To(Succeed())
		out = buf.String()
	})

	It("should render the form title", func() {
		Expect(out).To(ContainSubstring("Envoyer une note de frais"))
	})

	It("should render every form field", func() {
		for _, id := range []string{"form-new-bill", "expense-type", "expense-name", "datepicker", "amount", "vat", "pct", "commentary", "file"} {
			Expect(out).To(ContainSubstring(`data-testid="` + id + `"`))
		}
	})

	It("should offer the default expense types", func() {
		Expect(out).To(ContainSubstring("Transports"))
		Expect(out).To(ContainSubstring("Fournitures de bureau"))
	})

	It("should highlight the mail icon only", func() {
		Expect(out).To(MatchRegexp(`data-testid="icon-mail" class="active-icon"`))
		Expect(out).NotTo(MatchRegexp(`data-testid="icon-window" class="active-icon"`))
	})

	It("should carry the employee email", func() {
		Expect(out).To(ContainSubstring(`name="email" value="employee@test.tld"`))
	})
})

var _ = Describe("RenderModal", func() {
	It("should show the proof image", func() {
		var buf bytes.Buffer
		Expect(RenderModal(&buf, ModalView{ID: proofModalID, Show: true, ImageURL: "/files/a.jpg"})).To(Succeed())
		Expect(buf.String()).To(ContainSubstring(`class="modal fade show"`))
		Expect(buf.String()).To(ContainSubstring(`<img src="/files/a.jpg" alt="Bill"`))
	})
})
