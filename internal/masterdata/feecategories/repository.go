package feecategories

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/masterdata/shared"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/platform/httpx"
)

type Repository interface {
	List(ctx context.Context, schoolID uuid.UUID, filters shared.ListFilters) ([]FeeCategory, int, error)
	Get(ctx context.Context, schoolID, id uuid.UUID) (FeeCategory, error)
	Create(ctx context.Context, category FeeCategory) (FeeCategory, error)
	Update(ctx context.Context, category FeeCategory) (FeeCategory, error)
	Delete(ctx context.Context, schoolID, id uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id, school_id, code, name, description, created_at, updated_at`

func (r *repository) List(ctx context.Context, schoolID uuid.UUID, filters shared.ListFilters) ([]FeeCategory, int, error) {
	query := `SELECT ` + columns + ` FROM fee_categories WHERE school_id = $1`
	args := []any{schoolID}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		placeholder := strconv.Itoa(len(args))
		query += ` AND (name ILIKE $` + placeholder + ` OR code ILIKE $` + placeholder + `)`
	}

	countQuery := `SELECT COUNT(*) FROM (` + query + `) c`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("feecategories: count: %w", err)
	}

	query += ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)
	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("feecategories: list: %w", err)
	}
	defer rows.Close()

	var categories []FeeCategory
	for rows.Next() {
		var c FeeCategory
		if err := rows.Scan(&c.ID, &c.SchoolID, &c.Code, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("feecategories: scan: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, schoolID, id uuid.UUID) (FeeCategory, error) {
	var c FeeCategory
	err := r.pool.QueryRow(ctx,
		`SELECT `+columns+` FROM fee_categories WHERE school_id = $1 AND id = $2`,
		schoolID, id,
	).Scan(&c.ID, &c.SchoolID, &c.Code, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return FeeCategory{}, fmt.Errorf("%w: fee category %s", httpx.ErrNotFound, id)
	}
	if err != nil {
		return FeeCategory{}, fmt.Errorf("feecategories: get: %w", err)
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, category FeeCategory) (FeeCategory, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO fee_categories (id, school_id, code, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now(), now())
		 RETURNING created_at, updated_at`,
		category.ID, category.SchoolID, category.Code, category.Name, category.Description,
	).Scan(&category.CreatedAt, &category.UpdatedAt)
	if isUniqueViolation(err) {
		return FeeCategory{}, fmt.Errorf("%w: category code %s already exists", httpx.ErrDuplicate, category.Code)
	}
	if err != nil {
		return FeeCategory{}, fmt.Errorf("feecategories: create: %w", err)
	}
	return category, nil
}

func (r *repository) Update(ctx context.Context, category FeeCategory) (FeeCategory, error) {
	err := r.pool.QueryRow(ctx,
		`UPDATE fee_categories SET code = $1, name = $2, description = $3, updated_at = now()
		 WHERE school_id = $4 AND id = $5
		 RETURNING updated_at`,
		category.Code, category.Name, category.Description, category.SchoolID, category.ID,
	).Scan(&category.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return FeeCategory{}, fmt.Errorf("%w: fee category %s", httpx.ErrNotFound, category.ID)
	}
	if isUniqueViolation(err) {
		return FeeCategory{}, fmt.Errorf("%w: category code %s already exists", httpx.ErrDuplicate, category.Code)
	}
	if err != nil {
		return FeeCategory{}, fmt.Errorf("feecategories: update: %w", err)
	}
	return category, nil
}

func (r *repository) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM fee_categories WHERE school_id = $1 AND id = $2`, schoolID, id)
	if err != nil {
		return fmt.Errorf("feecategories: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: fee category %s", httpx.ErrNotFound, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "code":
		return "code " + dir
	case "name":
		return "name " + dir
	default:
		return "name " + dir
	}
}
