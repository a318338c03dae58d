package advance_test

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/payroll-advance/internal"
	"github.com/frahmantamala/payroll-advance/internal/advance"
)

// Mock repository for testing
type mockAdvanceRepository struct {
	advances      map[int64]*advance.AdvancePayment
	histories     map[int64]*advance.PaymentHistory
	balances      map[int64]decimal.Decimal
	nextAdvanceID int64
	nextHistoryID int64
	createError   error
	saveError     error
}

func newMockAdvanceRepository() *mockAdvanceRepository {
	return &mockAdvanceRepository{
		advances:      make(map[int64]*advance.AdvancePayment),
		histories:     make(map[int64]*advance.PaymentHistory),
		balances:      make(map[int64]decimal.Decimal),
		nextAdvanceID: 1,
		nextHistoryID: 1,
	}
}

func (m *mockAdvanceRepository) Transaction(fn func(tx advance.Repository) error) error {
	return fn(m)
}

func (m *mockAdvanceRepository) Create(adv *advance.AdvancePayment) error {
	if m.createError != nil {
		return m.createError
	}
	adv.ID = m.nextAdvanceID
	m.nextAdvanceID++
	copied := *adv
	m.advances[adv.ID] = &copied
	return nil
}

func (m *mockAdvanceRepository) GetByID(id int64) (*advance.AdvancePayment, error) {
	adv, exists := m.advances[id]
	if !exists {
		return nil, advance.ErrAdvanceNotFound
	}
	copied := *adv
	return &copied, nil
}

func (m *mockAdvanceRepository) GetByIDForUpdate(id int64) (*advance.AdvancePayment, error) {
	return m.GetByID(id)
}

func (m *mockAdvanceRepository) ActiveByEmployee(employeeID int64, lock bool) ([]*advance.AdvancePayment, error) {
	var active []*advance.AdvancePayment
	for _, adv := range m.advances {
		if adv.EmployeeID == employeeID && adv.IsActive() {
			copied := *adv
			active = append(active, &copied)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		ri, rj := active[i].RemainingBalance(), active[j].RemainingBalance()
		if ri.Equal(rj) {
			return active[i].ID < active[j].ID
		}
		return ri.LessThan(rj)
	})
	return active, nil
}

func (m *mockAdvanceRepository) ListByEmployee(employeeID int64) ([]*advance.AdvancePayment, error) {
	var result []*advance.AdvancePayment
	for _, adv := range m.advances {
		if adv.EmployeeID == employeeID {
			copied := *adv
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (m *mockAdvanceRepository) ListAll(limit, offset int) ([]*advance.AdvancePayment, error) {
	var result []*advance.AdvancePayment
	for _, adv := range m.advances {
		copied := *adv
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if offset >= len(result) {
		return nil, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (m *mockAdvanceRepository) Save(adv *advance.AdvancePayment) error {
	if m.saveError != nil {
		return m.saveError
	}
	if _, exists := m.advances[adv.ID]; !exists {
		return advance.ErrAdvanceNotFound
	}
	copied := *adv
	m.advances[adv.ID] = &copied
	return nil
}

func (m *mockAdvanceRepository) Delete(id int64) error {
	delete(m.advances, id)
	return nil
}

func (m *mockAdvanceRepository) CreateHistory(h *advance.PaymentHistory) error {
	h.ID = m.nextHistoryID
	m.nextHistoryID++
	copied := *h
	m.histories[h.ID] = &copied
	return nil
}

func (m *mockAdvanceRepository) GetHistoryByID(id int64) (*advance.PaymentHistory, error) {
	h, exists := m.histories[id]
	if !exists {
		return nil, advance.ErrHistoryNotFound
	}
	copied := *h
	return &copied, nil
}

func (m *mockAdvanceRepository) ListHistoryByEmployee(employeeID int64, limit, offset int) ([]*advance.PaymentHistory, error) {
	var result []*advance.PaymentHistory
	for _, h := range m.histories {
		if h.EmployeeID == employeeID {
			copied := *h
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].PaymentDate.Equal(result[j].PaymentDate) {
			return result[i].ID > result[j].ID
		}
		return result[i].PaymentDate.After(result[j].PaymentDate)
	})
	if offset >= len(result) {
		return nil, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (m *mockAdvanceRepository) CountHistoryByEmployee(employeeID int64) (int64, error) {
	var count int64
	for _, h := range m.histories {
		if h.EmployeeID == employeeID {
			count++
		}
	}
	return count, nil
}

func (m *mockAdvanceRepository) DeleteHistory(id int64) error {
	if _, exists := m.histories[id]; !exists {
		return advance.ErrHistoryNotFound
	}
	delete(m.histories, id)
	return nil
}

func (m *mockAdvanceRepository) DeleteHistoryByAdvance(advanceID int64) error {
	for id, h := range m.histories {
		if h.AdvancePaymentID == advanceID {
			delete(m.histories, id)
		}
	}
	return nil
}

func (m *mockAdvanceRepository) SyncEmployeeBalance(employeeID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, adv := range m.advances {
		if adv.EmployeeID == employeeID {
			total = total.Add(adv.RemainingBalance())
		}
	}
	m.balances[employeeID] = total
	return total, nil
}

// historiesForAdvance returns the stored history rows for one advance.
func (m *mockAdvanceRepository) historiesForAdvance(advanceID int64) []*advance.PaymentHistory {
	var result []*advance.PaymentHistory
	for _, h := range m.histories {
		if h.AdvancePaymentID == advanceID {
			result = append(result, h)
		}
	}
	return result
}

type mockEmployeeDirectory struct {
	employees map[int64]*advance.EmployeeInfo
}

func (m *mockEmployeeDirectory) GetEmployeeInfo(id int64) (*advance.EmployeeInfo, error) {
	emp, exists := m.employees[id]
	if !exists {
		return nil, errors.New("employee not found")
	}
	return emp, nil
}

var _ = Describe("Advance Service", func() {
	var (
		repo      *mockAdvanceRepository
		directory *mockEmployeeDirectory
		service   *advance.Service
	)

	const employeeID = int64(7)

	dec := func(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

	seedAdvance := func(amount, deduction, repaid float64, status string) *advance.AdvancePayment {
		adv := &advance.AdvancePayment{
			EmployeeID:       employeeID,
			Amount:           dec(amount),
			MonthlyDeduction: dec(deduction),
			RepaidAmount:     dec(repaid),
			Status:           status,
			Reason:           "medical expenses",
			PaymentDate:      time.Now().AddDate(0, -2, 0),
			EstimatedMonths:  6,
		}
		Expect(repo.Create(adv)).To(Succeed())
		return adv
	}

	repay := func(refID int64, amount float64) (*advance.RepaymentResult, error) {
		return service.RecordRepayment(refID, advance.RecordRepaymentDTO{
			Amount:      dec(amount),
			PaymentDate: time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC),
		}, 99)
	}

	BeforeEach(func() {
		repo = newMockAdvanceRepository()
		directory = &mockEmployeeDirectory{
			employees: map[int64]*advance.EmployeeInfo{
				employeeID: {ID: employeeID, Name: "Amira Hassan", Designation: "Accountant", EmployeeNum: "EMP-007"},
			},
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		service = advance.NewService(repo, directory, nil, logger, "")
	})

	Describe("RecordRepayment", func() {
		It("distributes across active advances smallest remaining balance first", func() {
			a50 := seedAdvance(50, 0, 0, advance.StatusApproved)
			a100 := seedAdvance(100, 0, 0, advance.StatusApproved)
			a30 := seedAdvance(30, 0, 0, advance.StatusApproved)

			result, err := repay(a50.ID, 60)
			Expect(err).NotTo(HaveOccurred())

			updated30, _ := repo.GetByID(a30.ID)
			updated50, _ := repo.GetByID(a50.ID)
			updated100, _ := repo.GetByID(a100.ID)

			Expect(updated30.RepaidAmount.Equal(dec(30))).To(BeTrue())
			Expect(updated30.Status).To(Equal(advance.StatusFullyRepaid))
			Expect(updated50.RepaidAmount.Equal(dec(30))).To(BeTrue())
			Expect(updated50.Status).To(Equal(advance.StatusPartiallyRepaid))
			Expect(updated100.RepaidAmount.IsZero()).To(BeTrue())
			Expect(updated100.Status).To(Equal(advance.StatusApproved))

			// 180 total - 60 repaid
			Expect(result.NewBalance.Equal(dec(120))).To(BeTrue())
		})

		It("writes one history row per touched advance summing to the amount", func() {
			a50 := seedAdvance(50, 0, 0, advance.StatusApproved)
			seedAdvance(100, 0, 0, advance.StatusApproved)
			a30 := seedAdvance(30, 0, 0, advance.StatusApproved)

			_, err := repay(a50.ID, 60)
			Expect(err).NotTo(HaveOccurred())

			Expect(repo.histories).To(HaveLen(2))
			total := decimal.Zero
			for _, h := range repo.histories {
				Expect(h.EmployeeID).To(Equal(employeeID))
				Expect(h.Amount.IsPositive()).To(BeTrue())
				total = total.Add(h.Amount)
			}
			Expect(total.Equal(dec(60))).To(BeTrue())

			Expect(repo.historiesForAdvance(a30.ID)).To(HaveLen(1))
			Expect(repo.historiesForAdvance(a30.ID)[0].Amount.Equal(dec(30))).To(BeTrue())
		})

		It("treats the reference advance only as an employee lookup", func() {
			// repayment posted against the largest advance still clears the
			// smallest one first
			a200 := seedAdvance(200, 0, 0, advance.StatusApproved)
			a10 := seedAdvance(10, 0, 0, advance.StatusApproved)

			_, err := repay(a200.ID, 10)
			Expect(err).NotTo(HaveOccurred())

			updated10, _ := repo.GetByID(a10.ID)
			updated200, _ := repo.GetByID(a200.ID)
			Expect(updated10.Status).To(Equal(advance.StatusFullyRepaid))
			Expect(updated200.RepaidAmount.IsZero()).To(BeTrue())
		})

		It("marks everything fully repaid when the amount equals the total balance", func() {
			a1 := seedAdvance(50, 10, 0, advance.StatusApproved)
			a2 := seedAdvance(150, 20, 100, advance.StatusPartiallyRepaid)

			result, err := repay(a1.ID, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NewBalance.IsZero()).To(BeTrue())

			for _, id := range []int64{a1.ID, a2.ID} {
				updated, _ := repo.GetByID(id)
				Expect(updated.Status).To(Equal(advance.StatusFullyRepaid))
				Expect(updated.RemainingBalance().IsZero()).To(BeTrue())
			}
		})

		It("ignores pending and rejected advances during distribution", func() {
			pending := seedAdvance(500, 0, 0, advance.StatusPending)
			active := seedAdvance(80, 0, 0, advance.StatusApproved)

			_, err := repay(active.ID, 80)
			Expect(err).NotTo(HaveOccurred())

			updatedPending, _ := repo.GetByID(pending.ID)
			Expect(updatedPending.RepaidAmount.IsZero()).To(BeTrue())
			Expect(updatedPending.Status).To(Equal(advance.StatusPending))
		})

		It("stores the default note when none is given", func() {
			a := seedAdvance(100, 0, 0, advance.StatusApproved)

			_, err := repay(a.ID, 50)
			Expect(err).NotTo(HaveOccurred())

			for _, h := range repo.histories {
				Expect(h.Notes).To(Equal("Payment recorded manually"))
			}
		})

		It("keeps caller supplied notes", func() {
			a := seedAdvance(100, 0, 0, advance.StatusApproved)
			notes := "deducted from April payroll"

			_, err := service.RecordRepayment(a.ID, advance.RecordRepaymentDTO{
				Amount:      dec(50),
				PaymentDate: time.Now(),
				Notes:       &notes,
			}, 99)
			Expect(err).NotTo(HaveOccurred())

			for _, h := range repo.histories {
				Expect(h.Notes).To(Equal(notes))
			}
		})

		It("returns not found for an unknown reference advance", func() {
			_, err := repay(424242, 50)
			Expect(errors.Is(err, advance.ErrAdvanceNotFound)).To(BeTrue())
		})

		It("rejects a non positive amount", func() {
			a := seedAdvance(100, 0, 0, advance.StatusApproved)

			_, err := repay(a.ID, 0)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		Context("bounds validation", func() {
			// two active advances: deductions 15 + 25 = 40, balances 60 + 40 = 100
			var ref *advance.AdvancePayment

			BeforeEach(func() {
				ref = seedAdvance(80, 15, 20, advance.StatusPartiallyRepaid)
				seedAdvance(40, 25, 0, advance.StatusApproved)
			})

			It("rejects an amount below the summed monthly deductions", func() {
				_, err := repay(ref.ID, 30)
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeAmountBelowMinimumDeduction))

				// nothing written
				Expect(repo.histories).To(BeEmpty())
				unchanged, _ := repo.GetByID(ref.ID)
				Expect(unchanged.RepaidAmount.Equal(dec(20))).To(BeTrue())
			})

			It("rejects an amount above the total outstanding balance", func() {
				_, err := repay(ref.ID, 150)
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeAmountExceedsBalance))
				Expect(repo.histories).To(BeEmpty())
			})

			It("accepts an amount between the bounds", func() {
				result, err := repay(ref.ID, 70)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.NewBalance.Equal(dec(30))).To(BeTrue())
			})

			It("accepts an amount equal to the minimum deduction", func() {
				_, err := repay(ref.ID, 40)
				Expect(err).NotTo(HaveOccurred())
			})

			It("accepts an amount equal to the total balance", func() {
				result, err := repay(ref.ID, 100)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.NewBalance.IsZero()).To(BeTrue())
			})
		})

		It("skips the minimum bound when no advance carries a deduction schedule", func() {
			a := seedAdvance(100, 0, 0, advance.StatusApproved)

			_, err := repay(a.ID, 5)
			Expect(err).NotTo(HaveOccurred())
		})

		It("re-validates bounds against committed state for back to back repayments", func() {
			a := seedAdvance(100, 0, 0, advance.StatusApproved)

			_, err := repay(a.ID, 60)
			Expect(err).NotTo(HaveOccurred())

			// second payment sees the post-commit balance of 40
			_, err = repay(a.ID, 60)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeAmountExceedsBalance))

			unchanged, _ := repo.GetByID(a.ID)
			Expect(unchanged.RepaidAmount.Equal(dec(60))).To(BeTrue())
			Expect(unchanged.Status).To(Equal(advance.StatusPartiallyRepaid))
			Expect(repo.histories).To(HaveLen(1))
		})

		It("surfaces distribution conflicts as retryable 409s", func() {
			appErr, ok := internal.IsAppError(advance.ErrRepaymentConflict)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeConflict))
			Expect(appErr.Code).To(Equal(internal.ErrCodeRepaymentConflict))
			Expect(appErr.StatusCode).To(Equal(http.StatusConflict))
		})

		It("counts pending advances in the synced balance but never repays them", func() {
			active := seedAdvance(100, 0, 0, advance.StatusApproved)
			seedAdvance(300, 0, 0, advance.StatusPending)

			result, err := repay(active.ID, 100)
			Expect(err).NotTo(HaveOccurred())
			// 100 active fully repaid, 300 pending still outstanding
			Expect(result.NewBalance.Equal(dec(300))).To(BeTrue())
		})
	})

	Describe("DeletePaymentHistory", func() {
		var (
			adv   *advance.AdvancePayment
			hist  *advance.PaymentHistory
			perms = []string{"advances.delete_history"}
		)

		BeforeEach(func() {
			adv = seedAdvance(100, 0, 0, advance.StatusApproved)
			_, err := repay(adv.ID, 60)
			Expect(err).NotTo(HaveOccurred())

			rows := repo.historiesForAdvance(adv.ID)
			Expect(rows).To(HaveLen(1))
			hist = rows[0]
		})

		It("reverses the allocation and recomputes the status", func() {
			err := service.DeletePaymentHistory(employeeID, hist.ID, perms)
			Expect(err).NotTo(HaveOccurred())

			updated, _ := repo.GetByID(adv.ID)
			Expect(updated.RepaidAmount.IsZero()).To(BeTrue())
			Expect(updated.Status).To(Equal(advance.StatusApproved))
			Expect(repo.histories).To(BeEmpty())
			Expect(repo.balances[employeeID].Equal(dec(100))).To(BeTrue())
		})

		It("walks a fully repaid advance back to partially repaid", func() {
			_, err := repay(adv.ID, 40)
			Expect(err).NotTo(HaveOccurred())

			full, _ := repo.GetByID(adv.ID)
			Expect(full.Status).To(Equal(advance.StatusFullyRepaid))

			err = service.DeletePaymentHistory(employeeID, hist.ID, perms)
			Expect(err).NotTo(HaveOccurred())

			updated, _ := repo.GetByID(adv.ID)
			Expect(updated.RepaidAmount.Equal(dec(40))).To(BeTrue())
			Expect(updated.Status).To(Equal(advance.StatusPartiallyRepaid))
		})

		It("denies callers without the capability", func() {
			err := service.DeletePaymentHistory(employeeID, hist.ID, []string{"advances.view"})
			Expect(errors.Is(err, advance.ErrUnauthorizedAccess)).To(BeTrue())

			// untouched
			updated, _ := repo.GetByID(adv.ID)
			Expect(updated.RepaidAmount.Equal(dec(60))).To(BeTrue())
		})

		It("allows admins", func() {
			err := service.DeletePaymentHistory(employeeID, hist.ID, []string{"admin"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a history row belonging to another employee", func() {
			err := service.DeletePaymentHistory(employeeID+1, hist.ID, perms)
			Expect(errors.Is(err, advance.ErrHistoryWrongEmployee)).To(BeTrue())
		})

		It("returns not found for a missing history row", func() {
			err := service.DeletePaymentHistory(employeeID, 424242, perms)
			Expect(errors.Is(err, advance.ErrHistoryNotFound)).To(BeTrue())
		})

		It("flags an orphaned history row as an integrity violation", func() {
			Expect(repo.Delete(adv.ID)).To(Succeed())

			err := service.DeletePaymentHistory(employeeID, hist.ID, perms)
			Expect(errors.Is(err, advance.ErrOrphanedHistory)).To(BeTrue())
		})

		It("refuses a reversal that would drive repaid amount negative", func() {
			stored, _ := repo.GetByID(adv.ID)
			stored.RepaidAmount = dec(10)
			stored.Status = advance.StatusPartiallyRepaid
			Expect(repo.Save(stored)).To(Succeed())

			err := service.DeletePaymentHistory(employeeID, hist.ID, perms)
			Expect(errors.Is(err, advance.ErrNegativeRepaidAmount)).To(BeTrue())

			// history row survives the failed reversal
			Expect(repo.histories).To(HaveLen(1))
		})
	})

	Describe("advance lifecycle", func() {
		It("creates a pending advance and syncs the balance", func() {
			adv, err := service.CreateAdvance(employeeID, advance.CreateAdvanceDTO{
				Amount:           dec(1200),
				MonthlyDeduction: dec(100),
				Reason:           "school fees",
				PaymentDate:      time.Now(),
				EstimatedMonths:  12,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(adv.Status).To(Equal(advance.StatusPending))
			Expect(adv.RepaidAmount.IsZero()).To(BeTrue())
			Expect(repo.balances[employeeID].Equal(dec(1200))).To(BeTrue())
		})

		It("rejects creation for an unknown employee", func() {
			_, err := service.CreateAdvance(4242, advance.CreateAdvanceDTO{
				Amount:           dec(1200),
				MonthlyDeduction: dec(100),
				Reason:           "school fees",
				PaymentDate:      time.Now(),
				EstimatedMonths:  12,
			})
			Expect(errors.Is(err, advance.ErrEmployeeNotFound)).To(BeTrue())
		})

		It("approves a pending advance", func() {
			adv := seedAdvance(500, 50, 0, advance.StatusPending)

			approved, err := service.ApproveAdvance(adv.ID, 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(approved.Status).To(Equal(advance.StatusApproved))
			Expect(*approved.ApprovedBy).To(Equal(int64(42)))
			Expect(approved.ApprovedAt).NotTo(BeNil())
		})

		It("refuses to approve a non pending advance", func() {
			adv := seedAdvance(500, 50, 0, advance.StatusApproved)

			_, err := service.ApproveAdvance(adv.ID, 42)
			Expect(errors.Is(err, advance.ErrInvalidAdvanceStatus)).To(BeTrue())
		})

		It("rejects a pending advance with a reason", func() {
			adv := seedAdvance(500, 50, 0, advance.StatusPending)

			rejected, err := service.RejectAdvance(adv.ID, 42, advance.RejectAdvanceDTO{
				RejectionReason: "exceeds policy limit",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(rejected.Status).To(Equal(advance.StatusRejected))
			Expect(*rejected.RejectionReason).To(Equal("exceeds policy limit"))
		})

		It("requires a rejection reason", func() {
			adv := seedAdvance(500, 50, 0, advance.StatusPending)

			_, err := service.RejectAdvance(adv.ID, 42, advance.RejectAdvanceDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("deletes a pending advance with no repayments", func() {
			adv := seedAdvance(500, 50, 0, advance.StatusPending)

			Expect(service.DeleteAdvance(adv.ID, nil)).To(Succeed())
			_, err := repo.GetByID(adv.ID)
			Expect(errors.Is(err, advance.ErrAdvanceNotFound)).To(BeTrue())
		})

		It("refuses to delete an advance with repayments recorded", func() {
			adv := seedAdvance(500, 0, 0, advance.StatusApproved)
			_, err := repay(adv.ID, 100)
			Expect(err).NotTo(HaveOccurred())

			err = service.DeleteAdvance(adv.ID, []string{"admin"})
			Expect(errors.Is(err, advance.ErrAdvanceHasRepayments)).To(BeTrue())
		})
	})

	Describe("UpdateMonthlyDeductions", func() {
		It("updates deductions on the employee's active advances only", func() {
			active := seedAdvance(500, 50, 0, advance.StatusApproved)
			pending := seedAdvance(300, 30, 0, advance.StatusPending)

			err := service.UpdateMonthlyDeductions(employeeID, advance.UpdateMonthlyDeductionDTO{
				Advances: []advance.MonthlyDeductionUpdate{
					{ID: active.ID, MonthlyDeduction: dec(75)},
					{ID: pending.ID, MonthlyDeduction: dec(99)},
				},
			})
			Expect(err).NotTo(HaveOccurred())

			updatedActive, _ := repo.GetByID(active.ID)
			Expect(updatedActive.MonthlyDeduction.Equal(dec(75))).To(BeTrue())

			// pending advances are out of scope for the bulk update
			updatedPending, _ := repo.GetByID(pending.ID)
			Expect(updatedPending.MonthlyDeduction.Equal(dec(30))).To(BeTrue())
		})
	})

	Describe("GetMonthlyHistory", func() {
		BeforeEach(func() {
			adv := seedAdvance(1000, 0, 0, advance.StatusApproved)
			for _, d := range []time.Time{
				time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
				time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC),
				time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
			} {
				_, err := service.RecordRepayment(adv.ID, advance.RecordRepaymentDTO{
					Amount:      dec(100),
					PaymentDate: d,
				}, 99)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("groups records by month, newest month first", func() {
			page, err := service.GetMonthlyHistory(employeeID, 1, 10, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Total).To(Equal(int64(3)))
			Expect(page.Months).To(HaveLen(2))

			Expect(page.Months[0].Month).To(Equal("March 2025"))
			Expect(page.Months[0].TotalAmount.Equal(dec(200))).To(BeTrue())
			Expect(page.Months[0].Payments).To(HaveLen(2))

			Expect(page.Months[1].Month).To(Equal("February 2025"))
			Expect(page.Months[1].TotalAmount.Equal(dec(100))).To(BeTrue())
		})

		It("narrows to the latest record when asked", func() {
			page, err := service.GetMonthlyHistory(employeeID, 3, 50, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Page).To(Equal(1))
			Expect(page.PerPage).To(Equal(1))
			Expect(page.Months).To(HaveLen(1))
			Expect(page.Months[0].Payments).To(HaveLen(1))
			Expect(page.Months[0].Payments[0].PaymentDate).To(Equal("2025-03-20"))
		})
	})

	Describe("GetReceipt", func() {
		It("assembles payment, advance and employee data", func() {
			adv := seedAdvance(100, 0, 0, advance.StatusApproved)
			_, err := repay(adv.ID, 40)
			Expect(err).NotTo(HaveOccurred())

			hist := repo.historiesForAdvance(adv.ID)[0]

			receipt, err := service.GetReceipt(employeeID, hist.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(receipt.Payment.Amount.Equal(dec(40))).To(BeTrue())
			Expect(receipt.Advance.ID).To(Equal(adv.ID))
			Expect(receipt.Employee.Name).To(Equal("Amira Hassan"))
		})

		It("rejects a receipt request for another employee's record", func() {
			adv := seedAdvance(100, 0, 0, advance.StatusApproved)
			_, err := repay(adv.ID, 40)
			Expect(err).NotTo(HaveOccurred())

			hist := repo.historiesForAdvance(adv.ID)[0]

			_, err = service.GetReceipt(employeeID+1, hist.ID)
			Expect(errors.Is(err, advance.ErrHistoryWrongEmployee)).To(BeTrue())
		})
	})
})
