// Package feecategories provides CRUD for the fee category reference data.
package feecategories

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

func (s *Service) List(ctx context.Context, schoolID uuid.UUID, filters shared.ListFilters) ([]FeeCategory, int, error) {
	return s.repo.List(ctx, schoolID, filters.Normalized())
}

func (s *Service) Get(ctx context.Context, schoolID, id uuid.UUID) (FeeCategory, error) {
	return s.repo.Get(ctx, schoolID, id)
}

func (s *Service) Create(ctx context.Context, category FeeCategory) (FeeCategory, error) {
	if err := s.validate(category); err != nil {
		return FeeCategory{}, err
	}
	category.ID = uuid.New()
	return s.repo.Create(ctx, category)
}

func (s *Service) Update(ctx context.Context, schoolID, id uuid.UUID, category FeeCategory) (FeeCategory, error) {
	existing, err := s.repo.Get(ctx, schoolID, id)
	if err != nil {
		return FeeCategory{}, err
	}
	existing.Code = category.Code
	existing.Name = category.Name
	existing.Description = category.Description
	if err := s.validate(existing); err != nil {
		return FeeCategory{}, err
	}
	return s.repo.Update(ctx, existing)
}

func (s *Service) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	return s.repo.Delete(ctx, schoolID, id)
}
