package advance_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/payroll-advance/internal/advance"
)

var _ = Describe("Repayment allocator", func() {
	dec := func(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

	active := func(id int64, amount, deduction, repaid float64) *advance.AdvancePayment {
		return &advance.AdvancePayment{
			ID:               id,
			Amount:           dec(amount),
			MonthlyDeduction: dec(deduction),
			RepaidAmount:     dec(repaid),
			Status:           advance.StatusApproved,
		}
	}

	Describe("BoundsFor", func() {
		It("sums deductions and remaining balances", func() {
			bounds := advance.BoundsFor([]*advance.AdvancePayment{
				active(1, 100, 15, 40),
				active(2, 200, 25, 0),
			})
			Expect(bounds.MinimumDeduction.Equal(dec(40))).To(BeTrue())
			Expect(bounds.TotalRemainingBalance.Equal(dec(260))).To(BeTrue())
		})

		It("is zero for an empty set", func() {
			bounds := advance.BoundsFor(nil)
			Expect(bounds.MinimumDeduction.IsZero()).To(BeTrue())
			Expect(bounds.TotalRemainingBalance.IsZero()).To(BeTrue())
		})
	})

	Describe("Distribute", func() {
		It("caps every slice at the advance's remaining balance", func() {
			advances := []*advance.AdvancePayment{
				active(1, 30, 0, 0),
				active(2, 50, 0, 0),
				active(3, 100, 0, 0),
			}

			allocations := advance.Distribute(advances, dec(60))
			Expect(allocations).To(HaveLen(2))
			Expect(allocations[0].Advance.ID).To(Equal(int64(1)))
			Expect(allocations[0].Amount.Equal(dec(30))).To(BeTrue())
			Expect(allocations[1].Advance.ID).To(Equal(int64(2)))
			Expect(allocations[1].Amount.Equal(dec(30))).To(BeTrue())
		})

		It("conserves the amount exactly", func() {
			advances := []*advance.AdvancePayment{
				active(1, 33.33, 0, 0),
				active(2, 66.67, 0, 10.5),
			}

			allocations := advance.Distribute(advances, dec(75.25))
			total := decimal.Zero
			for _, alloc := range allocations {
				total = total.Add(alloc.Amount)
			}
			Expect(total.Equal(dec(75.25))).To(BeTrue())
		})

		It("does not mutate the advances", func() {
			adv := active(1, 100, 0, 0)
			advance.Distribute([]*advance.AdvancePayment{adv}, dec(40))
			Expect(adv.RepaidAmount.IsZero()).To(BeTrue())
		})

		It("skips advances with nothing outstanding", func() {
			advances := []*advance.AdvancePayment{
				active(1, 100, 0, 100),
				active(2, 50, 0, 0),
			}

			allocations := advance.Distribute(advances, dec(20))
			Expect(allocations).To(HaveLen(1))
			Expect(allocations[0].Advance.ID).To(Equal(int64(2)))
		})

		It("returns nothing for a zero amount", func() {
			Expect(advance.Distribute([]*advance.AdvancePayment{active(1, 100, 0, 0)}, decimal.Zero)).To(BeEmpty())
		})
	})

	Describe("StatusForRepaidAmount", func() {
		It("maps the repaid amount onto the status machine", func() {
			Expect(advance.StatusForRepaidAmount(dec(100), decimal.Zero)).To(Equal(advance.StatusApproved))
			Expect(advance.StatusForRepaidAmount(dec(100), dec(40))).To(Equal(advance.StatusPartiallyRepaid))
			Expect(advance.StatusForRepaidAmount(dec(100), dec(100))).To(Equal(advance.StatusFullyRepaid))
		})
	})

	Describe("GroupHistoryByMonth", func() {
		It("buckets records into month groups preserving order", func() {
			records := []*advance.PaymentHistory{
				{ID: 3, Amount: dec(120), PaymentDate: time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)},
				{ID: 2, Amount: dec(80), PaymentDate: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)},
				{ID: 1, Amount: dec(100), PaymentDate: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)},
			}

			groups := advance.GroupHistoryByMonth(records)
			Expect(groups).To(HaveLen(2))
			Expect(groups[0].Month).To(Equal("March 2025"))
			Expect(groups[0].TotalAmount.Equal(dec(200))).To(BeTrue())
			Expect(groups[0].Payments[0].ID).To(Equal(int64(3)))
			Expect(groups[1].Month).To(Equal("February 2025"))
			Expect(groups[1].TotalAmount.Equal(dec(100))).To(BeTrue())
		})

		It("returns an empty slice for no records", func() {
			Expect(advance.GroupHistoryByMonth(nil)).To(BeEmpty())
		})
	})
})
