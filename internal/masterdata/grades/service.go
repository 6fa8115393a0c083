// Package grades provides CRUD for the grade reference data.
package grades

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/masterdata/shared"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, schoolID uuid.UUID, filters shared.ListFilters) ([]Grade, int, error) {
	return s.repo.List(ctx, schoolID, filters.Normalized())
}

func (s *Service) Get(ctx context.Context, schoolID, id uuid.UUID) (Grade, error) {
	return s.repo.Get(ctx, schoolID, id)
}

func (s *Service) Create(ctx context.Context, grade Grade) (Grade, error) {
	if err := s.validate(grade); err != nil {
		return Grade{}, err
	}
	grade.ID = uuid.New()
	return s.repo.Create(ctx, grade)
}

func (s *Service) Update(ctx context.Context, schoolID, id uuid.UUID, grade Grade) (Grade, error) {
	existing, err := s.repo.Get(ctx, schoolID, id)
	if err != nil {
		return Grade{}, err
	}
	existing.Name = grade.Name
	existing.Level = grade.Level
	if err := s.validate(existing); err != nil {
		return Grade{}, err
	}
	return s.repo.Update(ctx, existing)
}

// Delete refuses to remove a grade that still has fee structures attached.
func (s *Service) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	inUse, err := s.repo.HasFeeStructures(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: grade has fee structures attached", httpx.ErrConflict)
	}
	return s.repo.Delete(ctx, schoolID, id)
}
