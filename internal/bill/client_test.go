package bill

import (
	"context"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("RESTStore", func() {
	var (
		ctx    context.Context
		server *ghttp.Server
		store  *RESTStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = ghttp.NewServer()
		var err error
		store, err = NewRESTStore(server.URL() + "/")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		store.Close()
		server.Close()
	})

	Describe("NewRESTStore", func() {
		It("rejects a URL without an http scheme", func() {
			_, err := NewRESTStore("ftp://bills.example")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("List", func() {
		var (
			bills []*Bill
			err   error
		)

		JustBeforeEach(func() {
			bills, err = store.List(ctx)
		})

		When("the API answers with bills", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/api/bills"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, []*Bill{
						{ID: "a", Status: StatusPending, Date: "2004-04-04", Amount: 400},
						{ID: "b", Status: StatusRefused, Date: "2003-03-03", Amount: 300},
					}),
				))
			})

			It("should return them in order", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(bills).To(HaveLen(2))
				Expect(bills[0].ID).To(Equal("a"))
				Expect(bills[1].Status).To(Equal(StatusRefused))
			})
		})

		When("the API answers null", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusOK, "null"))
			})

			It("should return an empty list", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(bills).NotTo(BeNil())
				Expect(bills).To(BeEmpty())
			})
		})

		When("the API answers 404", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, "not found"))
			})

			It("returns Erreur 404", func() {
				Expect(err).To(MatchError("Erreur 404"))
				Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
			})
		})

		When("the API answers 500", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "boom"))
			})

			It("returns Erreur 500", func() {
				Expect(err).To(MatchError("Erreur 500"))
				Expect(StatusCode(err)).To(Equal(http.StatusInternalServerError))
			})
		})

		When("a record is invalid", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `[{"id":"a","status":"lost"}]`))
			})

			It("rejects the response", func() {
				Expect(err).To(MatchError(ContainSubstring(`invalid status "lost"`)))
			})
		})

		When("amounts are not whole numbers", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusOK,
					`[{"id":"a","status":"pending","amount":348.9,"pct":"20","date":"2004-04-04"}]`))
			})

			It("should keep the whole part", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(bills).To(HaveLen(1))
				Expect(bills[0].Amount).To(Equal(348))
				Expect(bills[0].Pct).To(Equal(20))
				Expect(bills[0].Date).To(Equal("2004-04-04"))
			})
		})

		When("an amount is a small negative value", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `[{"id":"a","status":"pending","amount":-0.5}]`))
			})

			It("rejects the response", func() {
				Expect(err).To(MatchError(ContainSubstring("negative amount")))
			})
		})

		When("the body is not JSON", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusOK, "<html>"))
			})

			It("returns a decoding error", func() {
				Expect(err).To(MatchError(ContainSubstring("decoding response")))
			})
		})
	})

	Describe("Get", func() {
		It("should escape the id in the path", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("GET", "/api/bills/a b"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, &Bill{ID: "a b", Status: StatusPending}),
			))
			b, err := store.Get(ctx, "a b")
			Expect(err).NotTo(HaveOccurred())
			Expect(b.ID).To(Equal("a b"))
		})
	})

	Describe("Create", func() {
		It("should post the bill as JSON", func() {
			bill := &Bill{ID: "new", Status: StatusPending, Amount: 348, Name: "Vol"}
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/api/bills"),
				ghttp.VerifyContentType("application/json"),
				ghttp.VerifyJSONRepresenting(bill),
				ghttp.RespondWithJSONEncoded(http.StatusCreated, bill),
			))
			created, err := store.Create(ctx, bill)
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(Equal(bill))
			Expect(server.ReceivedRequests()).To(HaveLen(1))
		})
	})

	Describe("Update", func() {
		It("returns the API status on failure", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("PUT", "/api/bills/a"),
				ghttp.RespondWith(http.StatusBadRequest, `{"error":"bad"}`),
			))
			_, err := store.Update(ctx, "a", &Bill{Status: StatusAccepted})
			Expect(StatusCode(err)).To(Equal(http.StatusBadRequest))
		})
	})
})
