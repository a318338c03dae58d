package postgres

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/payroll-advance/internal/advance"
)

// AdvanceRepository implements the advance.Repository interface using GORM.
type AdvanceRepository struct {
	db *gorm.DB
}

func NewAdvanceRepository(db *gorm.DB) advance.Repository {
	return &AdvanceRepository{db: db}
}

// Transaction runs fn against a repository bound to one database transaction.
func (r *AdvanceRepository) Transaction(fn func(tx advance.Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&AdvanceRepository{db: tx})
	})
}

// forUpdate appends FOR UPDATE on dialects that support it. SQLite serializes
// writers at the file level, so the clause is unnecessary there and the
// in-memory test databases keep working.
func (r *AdvanceRepository) forUpdate(q *gorm.DB) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (r *AdvanceRepository) Create(adv *advance.AdvancePayment) error {
	return r.db.Create(adv).Error
}

func (r *AdvanceRepository) GetByID(id int64) (*advance.AdvancePayment, error) {
	var adv advance.AdvancePayment
	err := r.db.Where("id = ?", id).First(&adv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, advance.ErrAdvanceNotFound
		}
		return nil, err
	}
	return &adv, nil
}

func (r *AdvanceRepository) GetByIDForUpdate(id int64) (*advance.AdvancePayment, error) {
	var adv advance.AdvancePayment
	err := r.forUpdate(r.db.Where("id = ?", id)).First(&adv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, advance.ErrAdvanceNotFound
		}
		return nil, err
	}
	return &adv, nil
}

// ActiveByEmployee returns the repayment-eligible advances ordered for the
// allocator: smallest remaining balance first, ties broken by creation order.
func (r *AdvanceRepository) ActiveByEmployee(employeeID int64, lock bool) ([]*advance.AdvancePayment, error) {
	var advances []*advance.AdvancePayment
	q := r.db.
		Where("employee_id = ? AND status IN ?", employeeID,
			[]string{advance.StatusApproved, advance.StatusPartiallyRepaid}).
		Order("(amount - repaid_amount) ASC, id ASC")
	if lock {
		q = r.forUpdate(q)
	}
	err := q.Find(&advances).Error
	return advances, err
}

func (r *AdvanceRepository) ListByEmployee(employeeID int64) ([]*advance.AdvancePayment, error) {
	var advances []*advance.AdvancePayment
	err := r.db.Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&advances).Error
	return advances, err
}

func (r *AdvanceRepository) ListAll(limit, offset int) ([]*advance.AdvancePayment, error) {
	var advances []*advance.AdvancePayment
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&advances).Error
	return advances, err
}

func (r *AdvanceRepository) Save(adv *advance.AdvancePayment) error {
	return r.db.Save(adv).Error
}

func (r *AdvanceRepository) Delete(id int64) error {
	return r.db.Delete(&advance.AdvancePayment{}, id).Error
}

func (r *AdvanceRepository) CreateHistory(h *advance.PaymentHistory) error {
	return r.db.Create(h).Error
}

func (r *AdvanceRepository) GetHistoryByID(id int64) (*advance.PaymentHistory, error) {
	var h advance.PaymentHistory
	err := r.db.Where("id = ?", id).First(&h).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, advance.ErrHistoryNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (r *AdvanceRepository) ListHistoryByEmployee(employeeID int64, limit, offset int) ([]*advance.PaymentHistory, error) {
	var records []*advance.PaymentHistory
	err := r.db.Where("employee_id = ?", employeeID).
		Order("payment_date DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	return records, err
}

func (r *AdvanceRepository) CountHistoryByEmployee(employeeID int64) (int64, error) {
	var count int64
	err := r.db.Model(&advance.PaymentHistory{}).
		Where("employee_id = ?", employeeID).
		Count(&count).Error
	return count, err
}

func (r *AdvanceRepository) DeleteHistory(id int64) error {
	return r.db.Delete(&advance.PaymentHistory{}, id).Error
}

func (r *AdvanceRepository) DeleteHistoryByAdvance(advanceID int64) error {
	return r.db.Where("advance_payment_id = ?", advanceID).
		Delete(&advance.PaymentHistory{}).Error
}

// SyncEmployeeBalance recomputes the cached advance_payment column on the
// employee row as the sum of amount - repaid_amount over every advance the
// employee has, regardless of status, and returns the new value.
func (r *AdvanceRepository) SyncEmployeeBalance(employeeID int64) (decimal.Decimal, error) {
	var balance decimal.NullDecimal
	err := r.db.Model(&advance.AdvancePayment{}).
		Select("COALESCE(SUM(amount - repaid_amount), 0)").
		Where("employee_id = ?", employeeID).
		Scan(&balance).Error
	if err != nil {
		return decimal.Zero, err
	}

	newBalance := decimal.Zero
	if balance.Valid {
		newBalance = balance.Decimal
	}

	err = r.db.Table("employees").
		Where("id = ?", employeeID).
		Update("advance_payment", newBalance).Error
	if err != nil {
		return decimal.Zero, err
	}

	return newBalance, nil
}
