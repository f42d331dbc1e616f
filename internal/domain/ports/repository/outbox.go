package repository

import (
	"context"
	"time"

	"course-payments/internal/domain/model"
)

// PendingEntitlementRepository is the durable outbox of grants that failed
// after their payment was already ledgered.
type PendingEntitlementRepository interface {
	Save(ctx context.Context, tx Tx, pe *model.PendingEntitlement) error
	// ListDue returns rows whose next_attempt_at is at or before now,
	// oldest first, bounded by limit.
	ListDue(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.PendingEntitlement, error)
	// Reschedule bumps the attempt counter and next attempt time after a
	// failed drain.
	Reschedule(ctx context.Context, tx Tx, id string, attempts int, nextAttemptAt time.Time, lastError string) error
	Delete(ctx context.Context, tx Tx, id string) error
	Count(ctx context.Context, tx Tx) (int, error)
}
