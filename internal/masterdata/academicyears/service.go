// Package academicyears provides CRUD for the academic year reference data.
package academicyears

import (
	"context"

	"github.com/google/uuid"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/masterdata/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, schoolID uuid.UUID, filters shared.ListFilters) ([]AcademicYear, int, error) {
	return s.repo.List(ctx, schoolID, filters.Normalized())
}

func (s *Service) Get(ctx context.Context, schoolID, id uuid.UUID) (AcademicYear, error) {
	return s.repo.Get(ctx, schoolID, id)
}

func (s *Service) Create(ctx context.Context, year AcademicYear) (AcademicYear, error) {
	if err := s.validate(year); err != nil {
		return AcademicYear{}, err
	}
	year.ID = uuid.New()
	return s.repo.Create(ctx, year)
}

func (s *Service) Update(ctx context.Context, schoolID, id uuid.UUID, year AcademicYear) (AcademicYear, error) {
	existing, err := s.repo.Get(ctx, schoolID, id)
	if err != nil {
		return AcademicYear{}, err
	}
	existing.Name = year.Name
	existing.StartDate = year.StartDate
	existing.EndDate = year.EndDate
	if err := s.validate(existing); err != nil {
		return AcademicYear{}, err
	}
	return s.repo.Update(ctx, existing)
}

func (s *Service) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	return s.repo.Delete(ctx, schoolID, id)
}
