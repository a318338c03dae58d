package advance

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentHistory is one allocation of one repayment to one advance. Rows are
// immutable after creation; deleting one reverses the allocation on the owning
// advance.
type PaymentHistory struct {
	ID               int64           `json:"id" gorm:"primaryKey"`
	EmployeeID       int64           `json:"employee_id" gorm:"column:employee_id;not null;index"`
	AdvancePaymentID int64           `json:"advance_payment_id" gorm:"column:advance_payment_id;not null;index"`
	Amount           decimal.Decimal `json:"amount" gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentDate      time.Time       `json:"payment_date" gorm:"column:payment_date;type:date;not null"`
	Notes            string          `json:"notes" gorm:"column:notes"`
	RecordedBy       int64           `json:"recorded_by" gorm:"column:recorded_by"`
	CreatedAt        time.Time       `json:"created_at" gorm:"column:created_at"`
}

func (PaymentHistory) TableName() string {
	return "advance_payment_histories"
}

// MonthlyGroup is one month of repayment history. TotalAmount always equals the
// sum of its payments' amounts.
type MonthlyGroup struct {
	Month       string           `json:"month"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Payments    []HistoryPayment `json:"payments"`
}

type HistoryPayment struct {
	ID               int64           `json:"id"`
	AdvancePaymentID int64           `json:"advance_payment_id"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentDate      string          `json:"payment_date"`
	Notes            string          `json:"notes"`
	RecordedBy       int64           `json:"recorded_by"`
}

// GroupHistoryByMonth folds an already payment-date-descending history slice
// into per-month buckets, newest month first.
func GroupHistoryByMonth(records []*PaymentHistory) []MonthlyGroup {
	var groups []MonthlyGroup
	index := make(map[string]int)

	for _, rec := range records {
		key := rec.PaymentDate.Format("2006-01")

		i, ok := index[key]
		if !ok {
			groups = append(groups, MonthlyGroup{
				Month:       rec.PaymentDate.Format("January 2006"),
				TotalAmount: decimal.Zero,
			})
			i = len(groups) - 1
			index[key] = i
		}

		groups[i].TotalAmount = groups[i].TotalAmount.Add(rec.Amount)
		groups[i].Payments = append(groups[i].Payments, HistoryPayment{
			ID:               rec.ID,
			AdvancePaymentID: rec.AdvancePaymentID,
			Amount:           rec.Amount,
			PaymentDate:      rec.PaymentDate.Format("2006-01-02"),
			Notes:            rec.Notes,
			RecordedBy:       rec.RecordedBy,
		})
	}

	return groups
}
