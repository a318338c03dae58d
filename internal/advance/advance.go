package advance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/payroll-advance/internal"
)

// AdvancePayment is a salary advance extended to an employee, repaid over time
// through lump-sum repayments distributed by the allocator.
type AdvancePayment struct {
	ID               int64           `json:"id" gorm:"primaryKey"`
	EmployeeID       int64           `json:"employee_id" gorm:"column:employee_id;not null;index"`
	Amount           decimal.Decimal `json:"amount" gorm:"column:amount;type:numeric(12,2);not null"`
	MonthlyDeduction decimal.Decimal `json:"monthly_deduction" gorm:"column:monthly_deduction;type:numeric(12,2)"`
	RepaidAmount     decimal.Decimal `json:"repaid_amount" gorm:"column:repaid_amount;type:numeric(12,2)"`
	Status           string          `json:"status" gorm:"column:status;default:pending"`
	Reason           string          `json:"reason" gorm:"column:reason"`
	PaymentDate      time.Time       `json:"payment_date" gorm:"column:payment_date;type:date"`
	RepaymentDate    *time.Time      `json:"repayment_date,omitempty" gorm:"column:repayment_date;type:date"`
	EstimatedMonths  int             `json:"estimated_months" gorm:"column:estimated_months"`
	ApprovedBy       *int64          `json:"approved_by,omitempty" gorm:"column:approved_by"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty" gorm:"column:approved_at"`
	RejectedBy       *int64          `json:"rejected_by,omitempty" gorm:"column:rejected_by"`
	RejectedAt       *time.Time      `json:"rejected_at,omitempty" gorm:"column:rejected_at"`
	RejectionReason  *string         `json:"rejection_reason,omitempty" gorm:"column:rejection_reason"`
	CreatedAt        time.Time       `json:"created_at" gorm:"column:created_at"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"column:updated_at"`
}

func (AdvancePayment) TableName() string {
	return "advance_payments"
}

const (
	StatusPending         = "pending"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusPartiallyRepaid = "partially_repaid"
	StatusFullyRepaid     = "fully_repaid"
)

// RemainingBalance is amount - repaid_amount. It must never go negative.
func (a *AdvancePayment) RemainingBalance() decimal.Decimal {
	return a.Amount.Sub(a.RepaidAmount)
}

// IsActive reports whether the advance can still receive repayments.
func (a *AdvancePayment) IsActive() bool {
	return a.Status == StatusApproved || a.Status == StatusPartiallyRepaid
}

func (a *AdvancePayment) CanBeApproved() bool {
	return a.Status == StatusPending
}

func (a *AdvancePayment) CanBeRejected() bool {
	return a.Status == StatusPending
}

// CanBeDeleted: only a pending advance with nothing repaid may be removed
// outright.
func (a *AdvancePayment) CanBeDeleted() bool {
	return a.Status == StatusPending && a.RepaidAmount.IsZero()
}

func (a *AdvancePayment) Approve(approverID int64) {
	now := time.Now()
	a.Status = StatusApproved
	a.ApprovedBy = &approverID
	a.ApprovedAt = &now
	a.UpdatedAt = now
}

func (a *AdvancePayment) Reject(rejecterID int64, reason string) {
	now := time.Now()
	a.Status = StatusRejected
	a.RejectedBy = &rejecterID
	a.RejectedAt = &now
	a.RejectionReason = &reason
	a.UpdatedAt = now
}

// StatusForRepaidAmount is the single source of truth mapping the two numeric
// fields onto the repayment leg of the state machine. Stored status must always
// agree with this function for any advance past approval.
func StatusForRepaidAmount(amount, repaid decimal.Decimal) string {
	switch {
	case repaid.GreaterThanOrEqual(amount):
		return StatusFullyRepaid
	case repaid.GreaterThan(decimal.Zero):
		return StatusPartiallyRepaid
	default:
		return StatusApproved
	}
}

// ApplyRepayment adds an allocation to the advance and recomputes status.
// Callers must have already capped allocation at RemainingBalance.
func (a *AdvancePayment) ApplyRepayment(allocation decimal.Decimal) {
	a.RepaidAmount = a.RepaidAmount.Add(allocation)
	a.Status = StatusForRepaidAmount(a.Amount, a.RepaidAmount)
	a.UpdatedAt = time.Now()
}

// ReverseRepayment removes a previously recorded allocation and recomputes
// status. Driving repaid_amount negative is an integrity violation, not a
// clamp: it means a double deletion or out-of-order reversal slipped through.
func (a *AdvancePayment) ReverseRepayment(allocation decimal.Decimal) error {
	newRepaid := a.RepaidAmount.Sub(allocation)
	if newRepaid.IsNegative() {
		return ErrNegativeRepaidAmount
	}
	a.RepaidAmount = newRepaid
	a.Status = StatusForRepaidAmount(a.Amount, a.RepaidAmount)
	a.UpdatedAt = time.Now()
	return nil
}

// Domain errors
var (
	ErrAdvanceNotFound      = internal.NewNotFoundError("Advance payment not found", internal.ErrCodeAdvanceNotFound)
	ErrEmployeeNotFound     = internal.NewNotFoundError("Employee not found", internal.ErrCodeEmployeeNotFound)
	ErrHistoryNotFound      = internal.NewNotFoundError("Repayment record not found", internal.ErrCodeHistoryNotFound)
	ErrHistoryWrongEmployee = internal.NewNotFoundError("Repayment record does not belong to this employee", internal.ErrCodeHistoryWrongEmployee)
	ErrInvalidAdvanceStatus = internal.NewValidationError("invalid advance status for this operation", internal.ErrCodeInvalidAdvanceStatus)
	ErrAdvanceHasRepayments = internal.NewValidationError("advance has repayments recorded against it and cannot be deleted", internal.ErrCodeAdvanceHasRepayments)
	ErrUnauthorizedAccess   = internal.NewForbiddenError("unauthorized access to advance payment", internal.ErrCodeUnauthorizedAccess)
	ErrOrphanedHistory      = internal.NewIntegrityError("associated advance payment not found for repayment record", internal.ErrCodeOrphanedHistory)
	ErrNegativeRepaidAmount = internal.NewIntegrityError("reversal would drive repaid amount below zero", internal.ErrCodeNegativeRepaidAmount)
	ErrRepaymentConflict    = internal.NewConflictError("concurrent repayment detected, retry with fresh state", internal.ErrCodeRepaymentConflict)
)
