package postgres

import (
	"gorm.io/gorm"

	"github.com/frahmantamala/payroll-advance/internal/employee"
)

// EmployeeRepository implements the employee.Repository interface using GORM.
type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) employee.Repository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) GetByID(id int64) (*employee.Employee, error) {
	var emp employee.Employee
	err := r.db.Where("id = ?", id).First(&emp).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (r *EmployeeRepository) searchScope(q *gorm.DB, search string) *gorm.DB {
	if search == "" {
		return q
	}
	pattern := "%" + search + "%"
	return q.Where("name LIKE ? OR employee_number LIKE ?", pattern, pattern)
}

func (r *EmployeeRepository) List(search string, limit, offset int) ([]*employee.Employee, error) {
	var employees []*employee.Employee
	err := r.searchScope(r.db, search).
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&employees).Error
	return employees, err
}

func (r *EmployeeRepository) Count(search string) (int64, error) {
	var count int64
	err := r.searchScope(r.db.Model(&employee.Employee{}), search).
		Count(&count).Error
	return count, err
}
