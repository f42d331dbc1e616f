package repository

import (
	"context"

	"course-payments/internal/domain/model"
)

// IntentRepository is the short-lived pending-transaction store used by the
// redirect-style gateway, which cannot echo caller metadata back.
type IntentRepository interface {
	// Put stores the intent under its buy order. At most one live intent may
	// exist per buy order; storing over a live one fails with
	// domain.ErrAlreadyExists.
	Put(ctx context.Context, intent *model.PurchaseIntent) error
	// Consume atomically fetches and deletes the intent. A second call for
	// the same buy order fails with domain.ErrIntentNotFound; so does a call
	// after the TTL evicted the record. Callers must treat that as "do not
	// guess the purchase".
	Consume(ctx context.Context, buyOrder string) (*model.PurchaseIntent, error)
}
