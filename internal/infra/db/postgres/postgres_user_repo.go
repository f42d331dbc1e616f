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

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

const userColumns = `id, email, first_name, last_name, created_at`

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (` + userColumns + `)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET
  email=$2, first_name=$3, last_name=$4;`

	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Email, u.FirstName, u.LastName, u.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=$1 LIMIT 1;`
	return r.findOne(ctx, tx, q, id)
}

func (r *userRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE lower(email)=lower($1) LIMIT 1;`
	return r.findOne(ctx, tx, q, email)
}

func (r *userRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return u, nil
}
