package employee

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/payroll-advance/internal"
)

// Employee is the HR directory record. AdvancePayment is a cached aggregate
// kept in sync by the advance package: the sum of remaining balances over all
// of the employee's advances.
type Employee struct {
	ID             int64           `json:"id" gorm:"primaryKey"`
	Name           string          `json:"name" gorm:"column:name;not null"`
	EmployeeNumber string          `json:"employee_number" gorm:"column:employee_number;uniqueIndex"`
	Email          string          `json:"email" gorm:"column:email"`
	Designation    string          `json:"designation" gorm:"column:designation"`
	Department     string          `json:"department" gorm:"column:department"`
	BasicSalary    decimal.Decimal `json:"basic_salary" gorm:"column:basic_salary;type:numeric(12,2)"`
	AdvancePayment decimal.Decimal `json:"advance_payment" gorm:"column:advance_payment;type:numeric(12,2)"`
	IsActive       bool            `json:"is_active" gorm:"column:is_active;default:true"`
	HiredAt        *time.Time      `json:"hired_at,omitempty" gorm:"column:hired_at;type:date"`
	CreatedAt      time.Time       `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"column:updated_at"`
}

func (Employee) TableName() string {
	return "employees"
}

var ErrEmployeeNotFound = internal.NewNotFoundError("Employee not found", internal.ErrCodeEmployeeNotFound)
