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

var _ repository.EnrollmentRepository = (*enrollmentRepo)(nil)

type enrollmentRepo struct{ pool *pgxpool.Pool }

func NewEnrollmentRepo(pool *pgxpool.Pool) *enrollmentRepo {
	return &enrollmentRepo{pool: pool}
}

const enrollmentColumns = `id, user_id, course_id, active, progress, enrolled_at, expires_at`

func (r *enrollmentRepo) FindByUserAndCourse(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Enrollment, error) {
	const q = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id=$1 AND course_id=$2 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, courseID)
	if err != nil {
		return nil, err
	}
	e := &model.Enrollment{}
	if err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.Active, &e.Progress, &e.EnrolledAt, &e.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return e, nil
}

// Upsert keys on (user_id, course_id). The conflict branch deliberately
// touches only expiry and active: progress and enrolled_at belong to the
// learning side and to the first grant respectively.
func (r *enrollmentRepo) Upsert(ctx context.Context, tx repository.Tx, e *model.Enrollment) error {
	const q = `
INSERT INTO enrollments (` + enrollmentColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (user_id, course_id) DO UPDATE SET
  active=$4, expires_at=$7;`

	_, err := execSQL(ctx, r.pool, tx, q,
		e.ID, e.UserID, e.CourseID, e.Active, e.Progress, e.EnrolledAt, e.ExpiresAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *enrollmentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Enrollment, error) {
	const q = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id=$1 ORDER BY enrolled_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Enrollment
	for rows.Next() {
		e := new(model.Enrollment)
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.Active, &e.Progress, &e.EnrolledAt, &e.ExpiresAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
