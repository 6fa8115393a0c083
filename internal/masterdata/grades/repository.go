package grades

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/masterdata/shared"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/platform/db"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/platform/httpx"
)

type Repository interface {
	List(ctx context.Context, schoolID uuid.UUID, filters shared.ListFilters) ([]Grade, int, error)
	Get(ctx context.Context, schoolID, id uuid.UUID) (Grade, error)
	Create(ctx context.Context, grade Grade) (Grade, error)
	Update(ctx context.Context, grade Grade) (Grade, error)
	Delete(ctx context.Context, schoolID, id uuid.UUID) error
	HasFeeStructures(ctx context.Context, schoolID, id uuid.UUID) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id, school_id, name, level, created_at, updated_at`

func (r *repository) List(ctx context.Context, schoolID uuid.UUID, filters shared.ListFilters) ([]Grade, int, error) {
	query := `SELECT ` + columns + ` FROM grades WHERE school_id = $1`
	args := []any{schoolID}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		query += ` AND name ILIKE $` + strconv.Itoa(len(args))
	}

	countQuery := `SELECT COUNT(*) FROM (` + query + `) c`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("grades: count: %w", err)
	}

	query += ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)
	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("grades: list: %w", err)
	}
	defer rows.Close()

	var grades []Grade
	for rows.Next() {
		var g Grade
		if err := rows.Scan(&g.ID, &g.SchoolID, &g.Name, &g.Level, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("grades: scan: %w", err)
		}
		grades = append(grades, g)
	}
	return grades, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, schoolID, id uuid.UUID) (Grade, error) {
	var g Grade
	err := r.pool.QueryRow(ctx,
		`SELECT `+columns+` FROM grades WHERE school_id = $1 AND id = $2`,
		schoolID, id,
	).Scan(&g.ID, &g.SchoolID, &g.Name, &g.Level, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Grade{}, fmt.Errorf("%w: grade %s", httpx.ErrNotFound, id)
	}
	if err != nil {
		return Grade{}, fmt.Errorf("grades: get: %w", err)
	}
	return g, nil
}

func (r *repository) Create(ctx context.Context, grade Grade) (Grade, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO grades (id, school_id, name, level, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())
		 RETURNING created_at, updated_at`,
		grade.ID, grade.SchoolID, grade.Name, grade.Level,
	).Scan(&grade.CreatedAt, &grade.UpdatedAt)
	if err != nil {
		return Grade{}, fmt.Errorf("grades: create: %w", err)
	}
	return grade, nil
}

func (r *repository) Update(ctx context.Context, grade Grade) (Grade, error) {
	err := r.pool.QueryRow(ctx,
		`UPDATE grades SET name = $1, level = $2, updated_at = now()
		 WHERE school_id = $3 AND id = $4
		 RETURNING updated_at`,
		grade.Name, grade.Level, grade.SchoolID, grade.ID,
	).Scan(&grade.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Grade{}, fmt.Errorf("%w: grade %s", httpx.ErrNotFound, grade.ID)
	}
	if err != nil {
		return Grade{}, fmt.Errorf("grades: update: %w", err)
	}
	return grade, nil
}

// Delete re-checks for dependent fee structures inside the transaction so the
// service-level check cannot race a concurrent structure insert.
func (r *repository) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var dependents int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM fee_structures WHERE school_id = $1 AND grade_id = $2`,
			schoolID, id,
		).Scan(&dependents); err != nil {
			return fmt.Errorf("grades: dependents: %w", err)
		}
		if dependents > 0 {
			return fmt.Errorf("%w: grade has fee structures attached", httpx.ErrConflict)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM grades WHERE school_id = $1 AND id = $2`, schoolID, id)
		if err != nil {
			return fmt.Errorf("grades: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: grade %s", httpx.ErrNotFound, id)
		}
		return nil
	})
}

func (r *repository) HasFeeStructures(ctx context.Context, schoolID, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM fee_structures WHERE school_id = $1 AND grade_id = $2)`,
		schoolID, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("grades: has fee structures: %w", err)
	}
	return exists, nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "name":
		return "name " + dir
	case "level":
		return "level " + dir
	default:
		return "level ASC"
	}
}
