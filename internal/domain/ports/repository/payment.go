package repository

import (
	"context"

	"course-payments/internal/domain/model"
)

// PaymentRepository is the append-only ledger of gateway verdicts.
// Save must fail with domain.ErrAlreadyExists when a row for the same
// external id is already present; the handlers treat that as a duplicate
// delivery, not an error.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	ExistsByExternalID(ctx context.Context, tx Tx, externalID string) (bool, error)
	FindByExternalID(ctx context.Context, tx Tx, externalID string) (*model.Payment, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Payment, error)
}
