package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/repository"
)

var _ repository.CourseRepository = (*courseRepo)(nil)

// courseRepo reads the catalog the rest of the platform writes. This
// subsystem never mutates courses.
type courseRepo struct{ pool *pgxpool.Pool }

func NewCourseRepo(pool *pgxpool.Pool) *courseRepo {
	return &courseRepo{pool: pool}
}

func (r *courseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	const q = `SELECT id, title, price_clp, created_at FROM courses WHERE id=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	c := &model.Course{}
	if err := row.Scan(&c.ID, &c.Title, &c.PriceCLP, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

func (r *courseRepo) Exists(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM courses WHERE id=$1);`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}
