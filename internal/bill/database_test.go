package bill

import (
	"context"
	"errors"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// describeStore runs the Store contract against the store open returns
func describeStore(name string, open func(dir string) (Store, error)) bool {
	return Describe(name, func() {
		var (
			ctx   context.Context
			store Store
		)

		BeforeEach(func() {
			ctx = context.Background()
			var err error
			store, err = open(GinkgoT().TempDir())
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			if store != nil {
				store.Close()
			}
		})

		Describe("Create", func() {
			var (
				bill    *Bill
				created *Bill
				err     error
			)

			BeforeEach(func() {
				bill = &Bill{
					ID:         "test-id",
					Status:     StatusPending,
					Amount:     348,
					Date:       "2004-04-04",
					Pct:        20,
					VAT:        "70",
					FileURL:    "/files/test-id_proof.jpg",
					FileName:   "proof.jpg",
					Email:      "employee@test.tld",
					Name:       "Vol Paris Londres",
					Commentary: "séminaire",
					Type:       "Transports",
				}
			})

			JustBeforeEach(func() {
				created, err = store.Create(ctx, bill)
			})

			When("saving succeeds", func() {
				It("should not return an error", func() {
					Expect(err).NotTo(HaveOccurred())
				})

				It("should return the stored bill", func() {
					Expect(created.ID).To(Equal("test-id"))
				})

				It("should keep every field", func() {
					saved, getErr := store.Get(ctx, "test-id")
					Expect(getErr).NotTo(HaveOccurred())
					Expect(saved).To(Equal(bill))
				})
			})

			When("the bill has no id", func() {
				BeforeEach(func() {
					bill.ID = ""
				})

				It("returns an error", func() {
					Expect(err).To(HaveOccurred())
				})
			})

			When("the id is taken", func() {
				It("rejects the second bill", func() {
					_, again := store.Create(ctx, &Bill{ID: "test-id", Status: StatusPending})
					Expect(again).To(HaveOccurred())
				})
			})
		})

		Describe("Get", func() {
			It("returns ErrNotFound for an unknown id", func() {
				_, err := store.Get(ctx, "nonexistent")
				Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
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

			When("bills exist", func() {
				BeforeEach(func() {
					for _, id := range []string{"id1", "id2", "id3"} {
						_, createErr := store.Create(ctx, &Bill{ID: id, Status: StatusPending, Date: "2004-04-04"})
						Expect(createErr).NotTo(HaveOccurred())
					}
				})

				It("should not return an error", func() {
					Expect(err).NotTo(HaveOccurred())
				})

				It("should return all bills in store order", func() {
					Expect(bills).To(HaveLen(3))
					Expect(bills[0].ID).To(Equal("id1"))
					Expect(bills[2].ID).To(Equal("id3"))
				})
			})

			When("no bills exist", func() {
				It("should return an empty, non-nil list", func() {
					Expect(err).NotTo(HaveOccurred())
					Expect(bills).NotTo(BeNil())
					Expect(bills).To(BeEmpty())
				})
			})
		})

		Describe("Update", func() {
			BeforeEach(func() {
				_, err := store.Create(ctx, &Bill{ID: "test-id", Status: StatusPending, Amount: 10})
				Expect(err).NotTo(HaveOccurred())
			})

			It("should replace the stored bill", func() {
				updated, err := store.Update(ctx, "test-id", &Bill{Status: StatusAccepted, Amount: 12, CommentAdmin: "ok"})
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.ID).To(Equal("test-id"))

				saved, err := store.Get(ctx, "test-id")
				Expect(err).NotTo(HaveOccurred())
				Expect(saved.Status).To(Equal(StatusAccepted))
				Expect(saved.Amount).To(Equal(12))
				Expect(saved.CommentAdmin).To(Equal("ok"))
			})

			It("returns ErrNotFound for an unknown id", func() {
				_, err := store.Update(ctx, "nonexistent", &Bill{Status: StatusAccepted})
				Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
			})
		})
	})
}

var _ = describeStore("BoltStore", func(dir string) (Store, error) {
	return NewBoltStore(filepath.Join(dir, "test.db"))
})
