package advance

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// CreateAdvanceDTO is the request payload for a new advance request.
type CreateAdvanceDTO struct {
	Amount           decimal.Decimal `json:"amount"`
	MonthlyDeduction decimal.Decimal `json:"monthly_deduction"`
	Reason           string          `json:"reason"`
	PaymentDate      time.Time       `json:"payment_date"`
	EstimatedMonths  int             `json:"estimated_months"`
}

func (dto CreateAdvanceDTO) Validate() error {
	if dto.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("amount must be greater than 0")
	}
	if dto.MonthlyDeduction.IsNegative() {
		return errors.New("monthly deduction cannot be negative")
	}
	if dto.Reason == "" {
		return errors.New("reason is required")
	}
	if len(dto.Reason) > 255 {
		return errors.New("reason must be less than 255 characters")
	}
	if dto.PaymentDate.IsZero() {
		return errors.New("payment date is required")
	}
	if dto.EstimatedMonths < 1 {
		return errors.New("estimated months must be at least 1")
	}
	return nil
}

// UpdateAdvanceDTO mirrors CreateAdvanceDTO; only pending advances accept it
// unless the caller is an admin.
type UpdateAdvanceDTO struct {
	Amount           decimal.Decimal `json:"amount"`
	MonthlyDeduction decimal.Decimal `json:"monthly_deduction"`
	Reason           string          `json:"reason"`
	PaymentDate      time.Time       `json:"payment_date"`
	EstimatedMonths  int             `json:"estimated_months"`
}

func (dto UpdateAdvanceDTO) Validate() error {
	return CreateAdvanceDTO(dto).Validate()
}

// RejectAdvanceDTO carries the mandatory rejection reason.
type RejectAdvanceDTO struct {
	RejectionReason string `json:"rejection_reason"`
}

func (dto RejectAdvanceDTO) Validate() error {
	if dto.RejectionReason == "" {
		return errors.New("rejection reason is required")
	}
	if len(dto.RejectionReason) > 255 {
		return errors.New("rejection reason must be less than 255 characters")
	}
	return nil
}

// RecordRepaymentDTO is the lump-sum repayment request. Notes are optional and
// default to the configured placeholder.
type RecordRepaymentDTO struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
	Notes       *string         `json:"notes,omitempty"`
}

func (dto RecordRepaymentDTO) Validate() error {
	if dto.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("repayment amount must be greater than zero")
	}
	if dto.PaymentDate.IsZero() {
		return errors.New("payment date is required")
	}
	if dto.Notes != nil && len(*dto.Notes) > 500 {
		return errors.New("notes must be less than 500 characters")
	}
	return nil
}

// MonthlyDeductionUpdate is one entry of the bulk deduction update.
type MonthlyDeductionUpdate struct {
	ID               int64           `json:"id"`
	MonthlyDeduction decimal.Decimal `json:"monthly_deduction"`
}

type UpdateMonthlyDeductionDTO struct {
	Advances []MonthlyDeductionUpdate `json:"advances"`
}

func (dto UpdateMonthlyDeductionDTO) Validate() error {
	if len(dto.Advances) == 0 {
		return errors.New("advances is required")
	}
	for _, adv := range dto.Advances {
		if adv.ID <= 0 {
			return errors.New("advance id is required")
		}
		if adv.MonthlyDeduction.IsNegative() {
			return errors.New("monthly deduction cannot be negative")
		}
	}
	return nil
}

// RepaymentResult is returned by RecordRepayment.
type RepaymentResult struct {
	NewBalance decimal.Decimal `json:"new_balance"`
}

// MonthlyHistoryPage is the paginated, month-grouped history projection.
type MonthlyHistoryPage struct {
	Months  []MonthlyGroup `json:"months"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
	Total   int64          `json:"total"`
}

// ReceiptData is the snapshot rendered for one repayment receipt.
type ReceiptData struct {
	Payment  HistoryPayment  `json:"payment"`
	Advance  *AdvancePayment `json:"advance"`
	Employee ReceiptEmployee `json:"employee"`
}

type ReceiptEmployee struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
	EmployeeNum string `json:"employee_number"`
}
