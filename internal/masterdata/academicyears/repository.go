package academicyears

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/masterdata/shared"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/platform/httpx"
)

type Repository interface {
	List(ctx context.Context, schoolID uuid.UUID, filters shared.ListFilters) ([]AcademicYear, int, error)
	Get(ctx context.Context, schoolID, id uuid.UUID) (AcademicYear, error)
	Create(ctx context.Context, year AcademicYear) (AcademicYear, error)
	Update(ctx context.Context, year AcademicYear) (AcademicYear, error)
	Delete(ctx context.Context, schoolID, id uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id, school_id, name, start_date, end_date, created_at, updated_at`

func (r *repository) List(ctx context.Context, schoolID uuid.UUID, filters shared.ListFilters) ([]AcademicYear, int, error) {
	query := `SELECT ` + columns + ` FROM academic_years WHERE school_id = $1`
	args := []any{schoolID}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		query += ` AND name ILIKE $` + strconv.Itoa(len(args))
	}

	countQuery := `SELECT COUNT(*) FROM (` + query + `) c`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("academicyears: count: %w", err)
	}

	query += ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)
	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("academicyears: list: %w", err)
	}
	defer rows.Close()

	var years []AcademicYear
	for rows.Next() {
		var y AcademicYear
		if err := rows.Scan(&y.ID, &y.SchoolID, &y.Name, &y.StartDate, &y.EndDate, &y.CreatedAt, &y.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("academicyears: scan: %w", err)
		}
		years = append(years, y)
	}
	return years, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, schoolID, id uuid.UUID) (AcademicYear, error) {
	var y AcademicYear
	err := r.pool.QueryRow(ctx,
		`SELECT `+columns+` FROM academic_years WHERE school_id = $1 AND id = $2`,
		schoolID, id,
	).Scan(&y.ID, &y.SchoolID, &y.Name, &y.StartDate, &y.EndDate, &y.CreatedAt, &y.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return AcademicYear{}, fmt.Errorf("%w: academic year %s", httpx.ErrNotFound, id)
	}
	if err != nil {
		return AcademicYear{}, fmt.Errorf("academicyears: get: %w", err)
	}
	return y, nil
}

func (r *repository) Create(ctx context.Context, year AcademicYear) (AcademicYear, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO academic_years (id, school_id, name, start_date, end_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now(), now())
		 RETURNING created_at, updated_at`,
		year.ID, year.SchoolID, year.Name, year.StartDate, year.EndDate,
	).Scan(&year.CreatedAt, &year.UpdatedAt)
	if err != nil {
		return AcademicYear{}, fmt.Errorf("academicyears: create: %w", err)
	}
	return year, nil
}

func (r *repository) Update(ctx context.Context, year AcademicYear) (AcademicYear, error) {
	err := r.pool.QueryRow(ctx,
		`UPDATE academic_years SET name = $1, start_date = $2, end_date = $3, updated_at = now()
		 WHERE school_id = $4 AND id = $5
		 RETURNING updated_at`,
		year.Name, year.StartDate, year.EndDate, year.SchoolID, year.ID,
	).Scan(&year.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return AcademicYear{}, fmt.Errorf("%w: academic year %s", httpx.ErrNotFound, year.ID)
	}
	if err != nil {
		return AcademicYear{}, fmt.Errorf("academicyears: update: %w", err)
	}
	return year, nil
}

func (r *repository) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM academic_years WHERE school_id = $1 AND id = $2`, schoolID, id)
	if err != nil {
		return fmt.Errorf("academicyears: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: academic year %s", httpx.ErrNotFound, id)
	}
	return nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "name":
		return "name " + dir
	case "start_date":
		return "start_date " + dir
	default:
		return "start_date DESC"
	}
}
