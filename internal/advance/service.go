package advance

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/payroll-advance/internal"
	"github.com/frahmantamala/payroll-advance/internal/core/events"
)

// Repository defines the data access methods for advances and their repayment
// history. Transaction yields a repository bound to a single database
// transaction; every mutation inside the closure commits or rolls back as one.
type Repository interface {
	Transaction(fn func(tx Repository) error) error

	Create(adv *AdvancePayment) error
	GetByID(id int64) (*AdvancePayment, error)
	// GetByIDForUpdate acquires a row lock on the advance for the duration of
	// the enclosing transaction.
	GetByIDForUpdate(id int64) (*AdvancePayment, error)
	// ActiveByEmployee returns approved and partially repaid advances ordered
	// by ascending remaining balance, ties in creation order. With lock set,
	// the rows stay locked until the enclosing transaction ends.
	ActiveByEmployee(employeeID int64, lock bool) ([]*AdvancePayment, error)
	ListByEmployee(employeeID int64) ([]*AdvancePayment, error)
	ListAll(limit, offset int) ([]*AdvancePayment, error)
	Save(adv *AdvancePayment) error
	Delete(id int64) error

	CreateHistory(h *PaymentHistory) error
	GetHistoryByID(id int64) (*PaymentHistory, error)
	ListHistoryByEmployee(employeeID int64, limit, offset int) ([]*PaymentHistory, error)
	CountHistoryByEmployee(employeeID int64) (int64, error)
	DeleteHistory(id int64) error
	DeleteHistoryByAdvance(advanceID int64) error

	// SyncEmployeeBalance recomputes the employee's cached advance_payment
	// field as the sum of remaining balances over all their advances and
	// persists it, returning the new balance.
	SyncEmployeeBalance(employeeID int64) (decimal.Decimal, error)
}

// EmployeeDirectory resolves employee display data for receipts.
type EmployeeDirectory interface {
	GetEmployeeInfo(id int64) (*EmployeeInfo, error)
}

type EmployeeInfo struct {
	ID          int64
	Name        string
	Designation string
	EmployeeNum string
}

// Service handles the advance lifecycle and the repayment allocator.
type Service struct {
	repo        Repository
	directory   EmployeeDirectory
	events      *events.EventBus
	logger      *slog.Logger
	defaultNote string
}

func NewService(repo Repository, directory EmployeeDirectory, bus *events.EventBus, logger *slog.Logger, defaultNote string) *Service {
	if defaultNote == "" {
		defaultNote = internal.DefaultPaymentNote
	}
	return &Service{
		repo:        repo,
		directory:   directory,
		events:      bus,
		logger:      logger,
		defaultNote: defaultNote,
	}
}

// CreateAdvance records a new advance request in pending status and refreshes
// the employee's cached balance.
func (s *Service) CreateAdvance(employeeID int64, dto CreateAdvanceDTO) (*AdvancePayment, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("advance validation failed", "error", err, "employee_id", employeeID)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	if _, err := s.directory.GetEmployeeInfo(employeeID); err != nil {
		return nil, ErrEmployeeNotFound
	}

	now := time.Now()
	adv := &AdvancePayment{
		EmployeeID:       employeeID,
		Amount:           dto.Amount,
		MonthlyDeduction: dto.MonthlyDeduction,
		RepaidAmount:     decimal.Zero,
		Status:           StatusPending,
		Reason:           dto.Reason,
		PaymentDate:      dto.PaymentDate,
		EstimatedMonths:  dto.EstimatedMonths,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := s.repo.Transaction(func(tx Repository) error {
		if err := tx.Create(adv); err != nil {
			return err
		}
		_, err := tx.SyncEmployeeBalance(employeeID)
		return err
	})
	if err != nil {
		s.logger.Error("failed to create advance", "error", err, "employee_id", employeeID)
		return nil, err
	}

	s.logger.Info("advance created",
		"advance_id", adv.ID,
		"employee_id", employeeID,
		"amount", adv.Amount)

	return adv, nil
}

func (s *Service) GetAdvance(id int64) (*AdvancePayment, error) {
	adv, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get advance", "error", err, "advance_id", id)
		return nil, ErrAdvanceNotFound
	}
	return adv, nil
}

// GetEmployeeAdvances lists all advances for one employee, newest first.
func (s *Service) GetEmployeeAdvances(employeeID int64) ([]*AdvancePayment, error) {
	advances, err := s.repo.ListByEmployee(employeeID)
	if err != nil {
		s.logger.Error("failed to list employee advances", "error", err, "employee_id", employeeID)
		return nil, err
	}
	return advances, nil
}

// GetAllAdvances lists advances across all employees for the company-wide view.
func (s *Service) GetAllAdvances(limit, offset int) ([]*AdvancePayment, error) {
	advances, err := s.repo.ListAll(limit, offset)
	if err != nil {
		s.logger.Error("failed to list advances", "error", err)
		return nil, err
	}
	return advances, nil
}

func (s *Service) ApproveAdvance(advanceID, approverID int64) (*AdvancePayment, error) {
	adv, err := s.repo.GetByID(advanceID)
	if err != nil {
		return nil, ErrAdvanceNotFound
	}

	if !adv.CanBeApproved() {
		s.logger.Warn("cannot approve advance in current status",
			"advance_id", advanceID, "status", adv.Status)
		return nil, ErrInvalidAdvanceStatus
	}

	adv.Approve(approverID)
	err = s.repo.Transaction(func(tx Repository) error {
		if err := tx.Save(adv); err != nil {
			return err
		}
		_, err := tx.SyncEmployeeBalance(adv.EmployeeID)
		return err
	})
	if err != nil {
		s.logger.Error("failed to approve advance", "error", err, "advance_id", advanceID)
		return nil, err
	}

	s.logger.Info("advance approved", "advance_id", advanceID, "approver_id", approverID)
	s.publish(events.NewAdvanceApprovedEvent(adv.ID, adv.EmployeeID, approverID, adv.Amount.String()))

	return adv, nil
}

func (s *Service) RejectAdvance(advanceID, rejecterID int64, dto RejectAdvanceDTO) (*AdvancePayment, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	adv, err := s.repo.GetByID(advanceID)
	if err != nil {
		return nil, ErrAdvanceNotFound
	}

	if !adv.CanBeRejected() {
		s.logger.Warn("cannot reject advance in current status",
			"advance_id", advanceID, "status", adv.Status)
		return nil, ErrInvalidAdvanceStatus
	}

	adv.Reject(rejecterID, dto.RejectionReason)
	if err := s.repo.Save(adv); err != nil {
		s.logger.Error("failed to reject advance", "error", err, "advance_id", advanceID)
		return nil, err
	}

	s.logger.Info("advance rejected",
		"advance_id", advanceID,
		"rejecter_id", rejecterID,
		"reason", dto.RejectionReason)
	s.publish(events.NewAdvanceRejectedEvent(adv.ID, adv.EmployeeID, rejecterID, dto.RejectionReason))

	return adv, nil
}

// UpdateAdvance edits a pending advance. Admins may edit past pending.
func (s *Service) UpdateAdvance(advanceID int64, dto UpdateAdvanceDTO, userPermissions []string) (*AdvancePayment, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	adv, err := s.repo.GetByID(advanceID)
	if err != nil {
		return nil, ErrAdvanceNotFound
	}

	if adv.Status != StatusPending && !hasPermission(userPermissions, "admin") {
		return nil, ErrInvalidAdvanceStatus
	}

	adv.Amount = dto.Amount
	adv.MonthlyDeduction = dto.MonthlyDeduction
	adv.Reason = dto.Reason
	adv.PaymentDate = dto.PaymentDate
	adv.EstimatedMonths = dto.EstimatedMonths
	adv.UpdatedAt = time.Now()

	err = s.repo.Transaction(func(tx Repository) error {
		if err := tx.Save(adv); err != nil {
			return err
		}
		_, err := tx.SyncEmployeeBalance(adv.EmployeeID)
		return err
	})
	if err != nil {
		s.logger.Error("failed to update advance", "error", err, "advance_id", advanceID)
		return nil, err
	}

	return adv, nil
}

// DeleteAdvance removes a pending, unrepaid advance along with any dependent
// history rows, then refreshes the employee balance.
func (s *Service) DeleteAdvance(advanceID int64, userPermissions []string) error {
	adv, err := s.repo.GetByID(advanceID)
	if err != nil {
		return ErrAdvanceNotFound
	}

	if adv.Status != StatusPending && !hasPermission(userPermissions, "admin") {
		return ErrInvalidAdvanceStatus
	}
	if adv.RepaidAmount.IsPositive() {
		return ErrAdvanceHasRepayments
	}

	err = s.repo.Transaction(func(tx Repository) error {
		if err := tx.DeleteHistoryByAdvance(adv.ID); err != nil {
			return err
		}
		if err := tx.Delete(adv.ID); err != nil {
			return err
		}
		_, err := tx.SyncEmployeeBalance(adv.EmployeeID)
		return err
	})
	if err != nil {
		s.logger.Error("failed to delete advance", "error", err, "advance_id", advanceID)
		return err
	}

	s.logger.Info("advance deleted", "advance_id", advanceID)
	return nil
}

// UpdateMonthlyDeductions applies a bulk deduction change across an employee's
// active advances. Entries referencing inactive or foreign advances are
// skipped, matching the scoped query they would not match.
func (s *Service) UpdateMonthlyDeductions(employeeID int64, dto UpdateMonthlyDeductionDTO) error {
	if err := dto.Validate(); err != nil {
		return internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	byID := make(map[int64]decimal.Decimal, len(dto.Advances))
	for _, entry := range dto.Advances {
		byID[entry.ID] = entry.MonthlyDeduction
	}

	return s.repo.Transaction(func(tx Repository) error {
		active, err := tx.ActiveByEmployee(employeeID, true)
		if err != nil {
			return err
		}
		for _, adv := range active {
			deduction, ok := byID[adv.ID]
			if !ok {
				continue
			}
			adv.MonthlyDeduction = deduction
			adv.UpdatedAt = time.Now()
			if err := tx.Save(adv); err != nil {
				return err
			}
		}
		return nil
	})
}

// RecordRepayment distributes one lump-sum repayment across the employee's
// active advances, smallest remaining balance first. The reference advance
// only resolves the employee; the full active set participates.
//
// The active set is read under row locks inside the transaction and the
// bounds are validated against those locked rows, so two concurrent
// repayments against the same employee serialize: the second sees the state
// the first committed.
func (s *Service) RecordRepayment(referenceAdvanceID int64, dto RecordRepaymentDTO, actorID int64) (*RepaymentResult, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("repayment validation failed", "error", err, "advance_id", referenceAdvanceID)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	ref, err := s.repo.GetByID(referenceAdvanceID)
	if err != nil {
		return nil, ErrAdvanceNotFound
	}

	notes := s.defaultNote
	if dto.Notes != nil && *dto.Notes != "" {
		notes = *dto.Notes
	}

	s.logger.Info("processing repayment",
		"advance_id", ref.ID,
		"employee_id", ref.EmployeeID,
		"amount", dto.Amount)

	var newBalance decimal.Decimal
	err = s.repo.Transaction(func(tx Repository) error {
		active, err := tx.ActiveByEmployee(ref.EmployeeID, true)
		if err != nil {
			return err
		}

		bounds := BoundsFor(active)
		if err := bounds.ValidateAmount(dto.Amount); err != nil {
			return err
		}

		allocations := Distribute(active, dto.Amount)

		allocated := decimal.Zero
		for _, alloc := range allocations {
			alloc.Advance.ApplyRepayment(alloc.Amount)
			if err := tx.Save(alloc.Advance); err != nil {
				return err
			}
			if err := tx.CreateHistory(&PaymentHistory{
				EmployeeID:       ref.EmployeeID,
				AdvancePaymentID: alloc.Advance.ID,
				Amount:           alloc.Amount,
				PaymentDate:      dto.PaymentDate,
				Notes:            notes,
				RecordedBy:       actorID,
				CreatedAt:        time.Now(),
			}); err != nil {
				return err
			}
			allocated = allocated.Add(alloc.Amount)
		}

		// Conservation: validation guaranteed amount <= total remaining, so
		// the distribution must exhaust the amount exactly. A shortfall means
		// the locked rows changed underneath us.
		if !allocated.Equal(dto.Amount) {
			return ErrRepaymentConflict
		}

		newBalance, err = tx.SyncEmployeeBalance(ref.EmployeeID)
		return err
	})
	if err != nil {
		s.logger.Error("repayment failed", "error", err,
			"advance_id", referenceAdvanceID,
			"employee_id", ref.EmployeeID,
			"amount", dto.Amount)
		return nil, err
	}

	s.logger.Info("repayment recorded",
		"employee_id", ref.EmployeeID,
		"amount", dto.Amount,
		"new_balance", newBalance)
	s.publish(events.NewRepaymentRecordedEvent(ref.EmployeeID, actorID, dto.Amount.String(), newBalance.String()))

	return &RepaymentResult{NewBalance: newBalance}, nil
}

// DeletePaymentHistory reverses one recorded allocation. Requires the history
// delete capability; the owning advance's repaid amount and status are walked
// back and the employee balance re-synced, all in one transaction.
func (s *Service) DeletePaymentHistory(employeeID, historyID int64, userPermissions []string) error {
	if !hasPermission(userPermissions, "advances.delete_history", "admin") {
		s.logger.Warn("delete payment history denied: insufficient permissions",
			"employee_id", employeeID, "history_id", historyID)
		return ErrUnauthorizedAccess
	}

	var reversed decimal.Decimal
	err := s.repo.Transaction(func(tx Repository) error {
		h, err := tx.GetHistoryByID(historyID)
		if err != nil {
			return ErrHistoryNotFound
		}
		if h.EmployeeID != employeeID {
			return ErrHistoryWrongEmployee
		}

		adv, err := tx.GetByIDForUpdate(h.AdvancePaymentID)
		if err != nil {
			return ErrOrphanedHistory
		}

		if err := adv.ReverseRepayment(h.Amount); err != nil {
			return err
		}
		if err := tx.Save(adv); err != nil {
			return err
		}
		if err := tx.DeleteHistory(h.ID); err != nil {
			return err
		}

		reversed = h.Amount
		_, err = tx.SyncEmployeeBalance(employeeID)
		return err
	})
	if err != nil {
		s.logger.Error("failed to delete payment history", "error", err,
			"employee_id", employeeID, "history_id", historyID)
		return err
	}

	s.logger.Info("payment history deleted",
		"employee_id", employeeID,
		"history_id", historyID,
		"reversed_amount", reversed)
	s.publish(events.NewRepaymentReversedEvent(employeeID, historyID, reversed.String()))

	return nil
}

// GetMonthlyHistory returns the employee's repayment history grouped by
// payment month, newest month first. showOnlyLast narrows the page to the
// most recent record.
func (s *Service) GetMonthlyHistory(employeeID int64, page, perPage int, showOnlyLast bool) (*MonthlyHistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if showOnlyLast {
		page = 1
		perPage = 1
	}

	records, err := s.repo.ListHistoryByEmployee(employeeID, perPage, (page-1)*perPage)
	if err != nil {
		s.logger.Error("failed to list payment history", "error", err, "employee_id", employeeID)
		return nil, err
	}

	total, err := s.repo.CountHistoryByEmployee(employeeID)
	if err != nil {
		return nil, err
	}

	return &MonthlyHistoryPage{
		Months:  GroupHistoryByMonth(records),
		Page:    page,
		PerPage: perPage,
		Total:   total,
	}, nil
}

// GetReceipt assembles the snapshot for one repayment receipt.
func (s *Service) GetReceipt(employeeID, historyID int64) (*ReceiptData, error) {
	h, err := s.repo.GetHistoryByID(historyID)
	if err != nil {
		return nil, ErrHistoryNotFound
	}
	if h.EmployeeID != employeeID {
		return nil, ErrHistoryWrongEmployee
	}

	adv, err := s.repo.GetByID(h.AdvancePaymentID)
	if err != nil {
		return nil, ErrOrphanedHistory
	}

	emp, err := s.directory.GetEmployeeInfo(employeeID)
	if err != nil {
		return nil, ErrEmployeeNotFound
	}

	return &ReceiptData{
		Payment: HistoryPayment{
			ID:               h.ID,
			AdvancePaymentID: h.AdvancePaymentID,
			Amount:           h.Amount,
			PaymentDate:      h.PaymentDate.Format("2006-01-02"),
			Notes:            h.Notes,
			RecordedBy:       h.RecordedBy,
		},
		Advance: adv,
		Employee: ReceiptEmployee{
			ID:          emp.ID,
			Name:        emp.Name,
			Designation: emp.Designation,
			EmployeeNum: emp.EmployeeNum,
		},
	}, nil
}

func (s *Service) publish(event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(context.Background(), event); err != nil {
		s.logger.Error("failed to publish event", "error", err, "event_type", event.EventType())
	}
}

func hasPermission(userPermissions []string, required ...string) bool {
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range required {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}
