package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. The concrete type is infra-defined
// (pgx.Tx for Postgres). Repositories MUST gracefully accept nil (the
// non-transactional path runs against the pool).
type Tx interface{}

// NoTX is passed by callers that explicitly want the non-transactional path.
var NoTX Tx

// TransactionManager executes a function inside a database transaction,
// passing the transaction handle via tx. It keeps use-case signatures free of
// storage types while still letting repositories detect a tx and use
// SELECT ... FOR UPDATE where needed.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
