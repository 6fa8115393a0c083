package grades

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/masterdata/shared"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/platform/httpx"
)

type memoryGradeRepo struct {
	grades     map[uuid.UUID]Grade
	structures map[uuid.UUID]int
}

func newMemoryGradeRepo() *memoryGradeRepo {
	return &memoryGradeRepo{
		grades:     make(map[uuid.UUID]Grade),
		structures: make(map[uuid.UUID]int),
	}
}

func (r *memoryGradeRepo) List(ctx context.Context, schoolID uuid.UUID, filters shared.ListFilters) ([]Grade, int, error) {
	var out []Grade
	for _, g := range r.grades {
		if g.SchoolID == schoolID {
			out = append(out, g)
		}
	}
	return out, len(out), nil
}

func (r *memoryGradeRepo) Get(ctx context.Context, schoolID, id uuid.UUID) (Grade, error) {
	g, ok := r.grades[id]
	if !ok || g.SchoolID != schoolID {
		return Grade{}, httpx.ErrNotFound
	}
	return g, nil
}

func (r *memoryGradeRepo) Create(ctx context.Context, grade Grade) (Grade, error) {
	grade.CreatedAt = time.Now()
	grade.UpdatedAt = time.Now()
	r.grades[grade.ID] = grade
	return grade, nil
}

func (r *memoryGradeRepo) Update(ctx context.Context, grade Grade) (Grade, error) {
	if _, ok := r.grades[grade.ID]; !ok {
		return Grade{}, httpx.ErrNotFound
	}
	grade.UpdatedAt = time.Now()
	r.grades[grade.ID] = grade
	return grade, nil
}

func (r *memoryGradeRepo) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	g, ok := r.grades[id]
	if !ok || g.SchoolID != schoolID {
		return httpx.ErrNotFound
	}
	if r.structures[id] > 0 {
		return httpx.ErrConflict
	}
	delete(r.grades, id)
	return nil
}

func (r *memoryGradeRepo) HasFeeStructures(ctx context.Context, schoolID, id uuid.UUID) (bool, error) {
	return r.structures[id] > 0, nil
}

func TestCreateGradeValidation(t *testing.T) {
	service := NewService(newMemoryGradeRepo())
	schoolID := uuid.New()
	ctx := context.Background()

	_, err := service.Create(ctx, Grade{SchoolID: schoolID, Name: "  "})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = service.Create(ctx, Grade{SchoolID: schoolID, Name: "Grade 1", Level: -1})
	require.ErrorIs(t, err, httpx.ErrValidation)

	created, err := service.Create(ctx, Grade{SchoolID: schoolID, Name: "Grade 1", Level: 1})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
}

func TestDeleteGradeWithDependentStructures(t *testing.T) {
	repo := newMemoryGradeRepo()
	service := NewService(repo)
	schoolID := uuid.New()
	ctx := context.Background()

	created, err := service.Create(ctx, Grade{SchoolID: schoolID, Name: "Grade 3", Level: 3})
	require.NoError(t, err)

	repo.structures[created.ID] = 2
	err = service.Delete(ctx, schoolID, created.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)

	repo.structures[created.ID] = 0
	require.NoError(t, service.Delete(ctx, schoolID, created.ID))

	_, err = service.Get(ctx, schoolID, created.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdateGradeScopedToSchool(t *testing.T) {
	repo := newMemoryGradeRepo()
	service := NewService(repo)
	ctx := context.Background()

	created, err := service.Create(ctx, Grade{SchoolID: uuid.New(), Name: "Grade 2", Level: 2})
	require.NoError(t, err)

	_, err = service.Update(ctx, uuid.New(), created.ID, Grade{Name: "Renamed", Level: 2})
	require.ErrorIs(t, err, httpx.ErrNotFound)

	updated, err := service.Update(ctx, created.SchoolID, created.ID, Grade{Name: "Renamed", Level: 2})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
}
