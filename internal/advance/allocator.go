package advance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/payroll-advance/internal"
)

// RepaymentBounds are the two validation bounds computed over an employee's
// active advances. Both values are attached to bound-violation errors so the
// caller can render exact numbers.
type RepaymentBounds struct {
	MinimumDeduction      decimal.Decimal `json:"minimum_deduction"`
	TotalRemainingBalance decimal.Decimal `json:"total_remaining_balance"`
}

// BoundsFor sums monthly deductions and remaining balances over the given
// active advances.
func BoundsFor(active []*AdvancePayment) RepaymentBounds {
	bounds := RepaymentBounds{
		MinimumDeduction:      decimal.Zero,
		TotalRemainingBalance: decimal.Zero,
	}
	for _, adv := range active {
		bounds.MinimumDeduction = bounds.MinimumDeduction.Add(adv.MonthlyDeduction)
		bounds.TotalRemainingBalance = bounds.TotalRemainingBalance.Add(adv.RemainingBalance())
	}
	return bounds
}

type boundsDetails struct {
	Amount decimal.Decimal `json:"amount"`
	RepaymentBounds
}

// ValidateAmount checks a repayment amount against the bounds. The minimum
// bound only applies when a deduction schedule exists.
func (b RepaymentBounds) ValidateAmount(amount decimal.Decimal) error {
	details := boundsDetails{Amount: amount, RepaymentBounds: b}

	if b.MinimumDeduction.IsPositive() && amount.LessThan(b.MinimumDeduction) {
		msg := fmt.Sprintf("repayment amount %s is below the required minimum deduction of %s",
			amount.StringFixed(2), b.MinimumDeduction.StringFixed(2))
		return internal.NewValidationError(msg, internal.ErrCodeAmountBelowMinimumDeduction).
			WithDetails(details)
	}

	if amount.GreaterThan(b.TotalRemainingBalance) {
		msg := fmt.Sprintf("repayment amount %s exceeds the total outstanding balance of %s",
			amount.StringFixed(2), b.TotalRemainingBalance.StringFixed(2))
		return internal.NewValidationError(msg, internal.ErrCodeAmountExceedsBalance).
			WithDetails(details)
	}

	return nil
}

// Allocation is one slice of a lump-sum repayment assigned to one advance.
type Allocation struct {
	Advance *AdvancePayment
	Amount  decimal.Decimal
}

// Distribute splits amount across the advances in the order given, capping
// each slice at the advance's remaining balance. Callers pass advances ordered
// by ascending remaining balance (ties in creation order), which clears small
// debts first and keeps the count of open advances down.
//
// The function only plans; it does not mutate the advances. Conservation
// holds by construction: the returned allocations sum to amount exactly,
// provided amount does not exceed the total remaining balance.
func Distribute(advances []*AdvancePayment, amount decimal.Decimal) []Allocation {
	var allocations []Allocation
	remaining := amount

	for _, adv := range advances {
		if !remaining.IsPositive() {
			break
		}
		slice := decimal.Min(remaining, adv.RemainingBalance())
		if !slice.IsPositive() {
			continue
		}
		allocations = append(allocations, Allocation{Advance: adv, Amount: slice})
		remaining = remaining.Sub(slice)
	}

	return allocations
}
