package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/repository"
)

var _ repository.PendingEntitlementRepository = (*outboxRepo)(nil)

type outboxRepo struct{ pool *pgxpool.Pool }

func NewOutboxRepo(pool *pgxpool.Pool) *outboxRepo {
	return &outboxRepo{pool: pool}
}

const outboxColumns = `id, user_id, course_id, months, attempts, next_attempt_at, created_at, last_error`

func (r *outboxRepo) Save(ctx context.Context, tx repository.Tx, pe *model.PendingEntitlement) error {
	const q = `
INSERT INTO pending_entitlements (` + outboxColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`

	_, err := execSQL(ctx, r.pool, tx, q,
		pe.ID, pe.UserID, pe.CourseID, pe.Months, pe.Attempts, pe.NextAttemptAt, pe.CreatedAt, pe.LastError)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// ListDue locks the returned rows for the draining worker. SKIP LOCKED keeps
// concurrent workers from double-applying the same grant.
func (r *outboxRepo) ListDue(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.PendingEntitlement, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + outboxColumns + ` FROM pending_entitlements WHERE next_attempt_at <= $1 ORDER BY next_attempt_at ASC LIMIT $2`
	if _, ok := tx.(pgx.Tx); ok {
		q += ` FOR UPDATE SKIP LOCKED`
	}
	q += `;`

	rows, err := queryRows(ctx, r.pool, tx, q, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PendingEntitlement
	for rows.Next() {
		pe := new(model.PendingEntitlement)
		if err := rows.Scan(&pe.ID, &pe.UserID, &pe.CourseID, &pe.Months, &pe.Attempts, &pe.NextAttemptAt, &pe.CreatedAt, &pe.LastError); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, pe)
	}
	return out, rows.Err()
}

func (r *outboxRepo) Reschedule(ctx context.Context, tx repository.Tx, id string, attempts int, nextAttemptAt time.Time, lastError string) error {
	const q = `UPDATE pending_entitlements SET attempts=$2, next_attempt_at=$3, last_error=$4 WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, attempts, nextAttemptAt, lastError)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *outboxRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM pending_entitlements WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *outboxRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	const q = `SELECT COUNT(*) FROM pending_entitlements;`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
