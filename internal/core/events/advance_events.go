package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeAdvanceApproved   = "advance.approved"
	EventTypeAdvanceRejected   = "advance.rejected"
	EventTypeRepaymentRecorded = "repayment.recorded"
	EventTypeRepaymentReversed = "repayment.reversed"
)

type AdvanceApprovedEvent struct {
	BaseEvent
	AdvanceID  int64  `json:"advance_id"`
	EmployeeID int64  `json:"employee_id"`
	ApprovedBy int64  `json:"approved_by"`
	Amount     string `json:"amount"`
}

func NewAdvanceApprovedEvent(advanceID, employeeID, approvedBy int64, amount string) *AdvanceApprovedEvent {
	return &AdvanceApprovedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeAdvanceApproved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"advance_id":  advanceID,
				"employee_id": employeeID,
				"approved_by": approvedBy,
				"amount":      amount,
			},
		},
		AdvanceID:  advanceID,
		EmployeeID: employeeID,
		ApprovedBy: approvedBy,
		Amount:     amount,
	}
}

type AdvanceRejectedEvent struct {
	BaseEvent
	AdvanceID  int64  `json:"advance_id"`
	EmployeeID int64  `json:"employee_id"`
	RejectedBy int64  `json:"rejected_by"`
	Reason     string `json:"reason"`
}

func NewAdvanceRejectedEvent(advanceID, employeeID, rejectedBy int64, reason string) *AdvanceRejectedEvent {
	return &AdvanceRejectedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeAdvanceRejected,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"advance_id":  advanceID,
				"employee_id": employeeID,
				"rejected_by": rejectedBy,
				"reason":      reason,
			},
		},
		AdvanceID:  advanceID,
		EmployeeID: employeeID,
		RejectedBy: rejectedBy,
		Reason:     reason,
	}
}

type RepaymentRecordedEvent struct {
	BaseEvent
	EmployeeID int64  `json:"employee_id"`
	RecordedBy int64  `json:"recorded_by"`
	Amount     string `json:"amount"`
	NewBalance string `json:"new_balance"`
}

func NewRepaymentRecordedEvent(employeeID, recordedBy int64, amount, newBalance string) *RepaymentRecordedEvent {
	return &RepaymentRecordedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRepaymentRecorded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"employee_id": employeeID,
				"recorded_by": recordedBy,
				"amount":      amount,
				"new_balance": newBalance,
			},
		},
		EmployeeID: employeeID,
		RecordedBy: recordedBy,
		Amount:     amount,
		NewBalance: newBalance,
	}
}

type RepaymentReversedEvent struct {
	BaseEvent
	EmployeeID int64  `json:"employee_id"`
	HistoryID  int64  `json:"history_id"`
	Amount     string `json:"amount"`
}

func NewRepaymentReversedEvent(employeeID, historyID int64, amount string) *RepaymentReversedEvent {
	return &RepaymentReversedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRepaymentReversed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"employee_id": employeeID,
				"history_id":  historyID,
				"amount":      amount,
			},
		},
		EmployeeID: employeeID,
		HistoryID:  historyID,
		Amount:     amount,
	}
}
