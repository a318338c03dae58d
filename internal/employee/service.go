package employee

import (
	"log/slog"
)

type Repository interface {
	GetByID(id int64) (*Employee, error)
	List(search string, limit, offset int) ([]*Employee, error)
	Count(search string) (int64, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetEmployee(id int64) (*Employee, error) {
	emp, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get employee", "error", err, "employee_id", id)
		return nil, ErrEmployeeNotFound
	}
	return emp, nil
}

// ListEmployees pages through the directory, optionally filtering by a
// case-insensitive match on name or employee number.
func (s *Service) ListEmployees(search string, limit, offset int) ([]*Employee, int64, error) {
	employees, err := s.repo.List(search, limit, offset)
	if err != nil {
		s.logger.Error("failed to list employees", "error", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(search)
	if err != nil {
		return nil, 0, err
	}

	return employees, total, nil
}
