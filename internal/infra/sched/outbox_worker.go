package sched

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/adapter"
	"course-payments/internal/domain/ports/repository"
	"course-payments/internal/infra/metrics"
	"course-payments/internal/usecase"
)

// maxBackoff caps the reschedule delay; attempts are never given up on, a row
// leaves the outbox only by succeeding or by operator intervention.
const maxBackoff = 6 * time.Hour

// OutboxWorker drains pending entitlements: grants that failed after their
// payment was already confirmed. Each due row is replayed through the regular
// extension path and rescheduled with exponential backoff on failure.
type OutboxWorker struct {
	interval    time.Duration
	batchSize   int
	txm         repository.TransactionManager
	outbox      repository.PendingEntitlementRepository
	enrollments usecase.EnrollmentUseCase
	clock       adapter.Clock
	log         *zerolog.Logger
}

func NewOutboxWorker(
	interval time.Duration,
	batchSize int,
	txm repository.TransactionManager,
	outbox repository.PendingEntitlementRepository,
	enrollments usecase.EnrollmentUseCase,
	clock adapter.Clock,
	logger *zerolog.Logger,
) *OutboxWorker {
	wLog := logger.With().Str("component", "OutboxWorker").Logger()
	return &OutboxWorker{
		interval:    interval,
		batchSize:   batchSize,
		txm:         txm,
		outbox:      outbox,
		enrollments: enrollments,
		clock:       clock,
		log:         &wLog,
	}
}

func (w *OutboxWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting outbox worker")
	// Drain once on startup so a restart does not delay healing.
	w.drain(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping outbox worker")
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *OutboxWorker) drain(ctx context.Context) {
	now := w.clock.Now()

	// The batch is claimed inside one transaction so SKIP LOCKED keeps a
	// second worker instance from replaying the same rows concurrently.
	err := w.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		due, err := w.outbox.ListDue(ctx, tx, now, w.batchSize)
		if err != nil {
			return err
		}
		for _, pe := range due {
			// Extend is idempotent enough for replays: the worst case of a
			// competing grant is a longer expiry, never a lost one.
			if _, _, err := w.enrollments.Extend(ctx, pe.UserID, pe.CourseID, pe.Months); err != nil {
				w.reschedule(ctx, tx, pe, err)
				continue
			}
			if err := w.outbox.Delete(ctx, tx, pe.ID); err != nil {
				// The grant landed but the row stayed; the next drain replays
				// it harmlessly.
				w.log.Warn().Err(err).Str("id", pe.ID).Msg("drained row not deleted")
				continue
			}
			metrics.IncEntitlementRetryDrained("applied")
			w.log.Info().Str("user_id", pe.UserID).Str("course_id", pe.CourseID).
				Int("attempts", pe.Attempts).Msg("pending entitlement healed")
		}
		return nil
	})
	if err != nil {
		w.log.Error().Err(err).Msg("outbox drain failed")
	}

	if n, err := w.outbox.Count(ctx, nil); err == nil {
		metrics.SetEntitlementOutboxDepth(n)
	}
}

func (w *OutboxWorker) reschedule(ctx context.Context, tx repository.Tx, pe *model.PendingEntitlement, cause error) {
	attempts := pe.Attempts + 1
	next := w.clock.Now().Add(backoff(attempts))
	if err := w.outbox.Reschedule(ctx, tx, pe.ID, attempts, next, cause.Error()); err != nil {
		w.log.Error().Err(err).Str("id", pe.ID).Msg("outbox reschedule failed")
		return
	}
	metrics.IncEntitlementRetryDrained("rescheduled")
	w.log.Warn().Err(cause).Str("user_id", pe.UserID).Str("course_id", pe.CourseID).
		Int("attempts", attempts).Time("next_attempt_at", next).
		Msg("pending entitlement still failing")
}

// backoff doubles per attempt starting at one minute: 1m, 2m, 4m, ... capped
// at maxBackoff.
func backoff(attempts int) time.Duration {
	d := time.Minute
	for i := 1; i < attempts && d < maxBackoff; i++ {
		d *= 2
	}
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}
