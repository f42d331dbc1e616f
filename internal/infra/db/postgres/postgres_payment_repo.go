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

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, external_id, user_id, course_id, amount, currency, status, method, gateway, created_at`

// Save appends one ledger row. The ledger is append-only: there is no upsert
// and no update path; a conflicting external_id means a duplicate delivery
// and surfaces as domain.ErrAlreadyExists.
func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (` + paymentColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.ExternalID, p.UserID, p.CourseID, p.Amount, p.Currency, p.Status, p.Method, p.Gateway, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) ExistsByExternalID(ctx context.Context, tx repository.Tx, externalID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM payments WHERE external_id=$1);`
	row, err := pickRow(ctx, r.pool, tx, q, externalID)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *paymentRepo) FindByExternalID(ctx context.Context, tx repository.Tx, externalID string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE external_id=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, externalID)
	if err != nil {
		return nil, err
	}
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.ExternalID, &p.UserID, &p.CourseID, &p.Amount, &p.Currency, &p.Status, &p.Method, &p.Gateway, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE user_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p := new(model.Payment)
		if err := rows.Scan(&p.ID, &p.ExternalID, &p.UserID, &p.CourseID, &p.Amount, &p.Currency, &p.Status, &p.Method, &p.Gateway, &p.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
