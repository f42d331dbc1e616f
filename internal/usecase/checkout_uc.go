package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/adapter"
	"course-payments/internal/domain/ports/repository"
	"course-payments/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// ApplyResult reports what a single gateway verdict did to the ledger and
// the entitlements.
type ApplyResult struct {
	Payment       *model.Payment
	Enrollment    *model.Enrollment
	NewEnrollment bool
	// Duplicate is set when the external id was already ledgered; nothing
	// was re-run.
	Duplicate bool
}

// CheckoutUseCase turns a gateway verdict into durable state. Both ingestion
// handlers (MercadoPago webhook, Webpay return) feed the same AppliedPurchase
// command here, so ledger + extension + cascade logic exists exactly once.
type CheckoutUseCase interface {
	// AlreadyProcessed reports whether a verdict for the external id is
	// already ledgered. Handlers use it to acknowledge retries before
	// touching metadata.
	AlreadyProcessed(ctx context.Context, externalID string) (bool, error)
	// Apply ledgers the verdict and, for approved payments, extends the
	// primary enrollment, cascades the add-ons and dispatches notifications.
	Apply(ctx context.Context, cmd *model.AppliedPurchase) (*ApplyResult, error)
}

type checkoutUC struct {
	payments    repository.PaymentRepository
	courses     repository.CourseRepository
	users       repository.UserRepository
	outbox      repository.PendingEntitlementRepository
	enrollments EnrollmentUseCase
	mailer      adapter.Mailer
	clock       adapter.Clock
	log         *zerolog.Logger

	// notifyTimeout bounds the detached notification dispatch.
	notifyTimeout time.Duration
}

func NewCheckoutUseCase(
	payments repository.PaymentRepository,
	courses repository.CourseRepository,
	users repository.UserRepository,
	outbox repository.PendingEntitlementRepository,
	enrollments EnrollmentUseCase,
	mailer adapter.Mailer,
	clock adapter.Clock,
	logger *zerolog.Logger,
) *checkoutUC {
	ucLog := logger.With().Str("component", "CheckoutUC").Logger()
	return &checkoutUC{
		payments:      payments,
		courses:       courses,
		users:         users,
		outbox:        outbox,
		enrollments:   enrollments,
		mailer:        mailer,
		clock:         clock,
		log:           &ucLog,
		notifyTimeout: 15 * time.Second,
	}
}

func (uc *checkoutUC) AlreadyProcessed(ctx context.Context, externalID string) (bool, error) {
	if externalID == "" {
		return false, domain.ErrInvalidArgument
	}
	return uc.payments.ExistsByExternalID(ctx, nil, externalID)
}

func (uc *checkoutUC) Apply(ctx context.Context, cmd *model.AppliedPurchase) (*ApplyResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := uc.clock.Now()

	// Idempotency gate. The unique constraint on external_id is the
	// correctness backstop for concurrent duplicates; this check handles the
	// common retry case without burning an insert.
	if exists, err := uc.payments.ExistsByExternalID(ctx, nil, cmd.ExternalID); err != nil {
		return nil, err
	} else if exists {
		uc.log.Info().Str("external_id", cmd.ExternalID).Str("gateway", string(cmd.Gateway)).
			Msg("duplicate delivery ignored")
		metrics.IncWebhookOutcome(string(cmd.Gateway), "duplicate")
		p, err := uc.payments.FindByExternalID(ctx, nil, cmd.ExternalID)
		if err != nil {
			return nil, err
		}
		return &ApplyResult{Payment: p, Duplicate: true}, nil
	}

	p, err := model.NewPayment(
		uuid.NewString(), cmd.ExternalID, cmd.UserID, cmd.CourseID,
		cmd.Amount, cmd.Currency, cmd.Status, cmd.Method, cmd.Gateway, now,
	)
	if err != nil {
		return nil, err
	}
	if err := uc.payments.Save(ctx, nil, p); err != nil {
		if err == domain.ErrAlreadyExists {
			// Lost the race against a concurrent duplicate; same outcome as
			// the existence check above.
			metrics.IncWebhookOutcome(string(cmd.Gateway), "duplicate")
			return &ApplyResult{Payment: p, Duplicate: true}, nil
		}
		return nil, err
	}
	metrics.IncPayment(string(cmd.Gateway), string(cmd.Status))
	if cmd.Status == model.PaymentStatusApproved {
		metrics.AddPaymentRevenue(p.Currency, p.Amount)
	}

	res := &ApplyResult{Payment: p}

	// Non-approved verdicts are ledgered for audit and stop here.
	if cmd.Status != model.PaymentStatusApproved {
		uc.log.Info().Str("external_id", cmd.ExternalID).Str("status", string(cmd.Status)).
			Msg("non-approved payment ledgered, no entitlement granted")
		return res, nil
	}

	enr, created, err := uc.enrollments.Extend(ctx, cmd.UserID, cmd.CourseID, cmd.Months)
	if err != nil {
		// Money moved but the grant failed. Park it in the outbox so the
		// drain worker heals it; the caller still acknowledges the gateway.
		uc.log.Error().Err(err).Str("external_id", cmd.ExternalID).
			Str("user_id", cmd.UserID).Str("course_id", cmd.CourseID).
			Msg("entitlement write failed after confirmed payment; queued for retry")
		uc.enqueueRetry(ctx, cmd.UserID, cmd.CourseID, cmd.Months, err)
	} else {
		res.Enrollment = enr
		res.NewEnrollment = created
	}

	uc.cascadeAddons(ctx, cmd)
	go uc.dispatchNotifications(cmd.UserID, cmd.CourseID, res.NewEnrollment)

	return res, nil
}

// cascadeAddons replays the extension for each bundled course. One add-on's
// failure never blocks the others; the primary grant is already committed.
func (uc *checkoutUC) cascadeAddons(ctx context.Context, cmd *model.AppliedPurchase) {
	for _, addonID := range cmd.AddonCourseIDs {
		if addonID == "" || addonID == cmd.CourseID {
			continue
		}
		ok, err := uc.courses.Exists(ctx, nil, addonID)
		if err != nil {
			uc.log.Error().Err(err).Str("course_id", addonID).Msg("addon course lookup failed; queued for retry")
			uc.enqueueRetry(ctx, cmd.UserID, addonID, cmd.Months, err)
			continue
		}
		if !ok {
			uc.log.Warn().Str("course_id", addonID).Str("external_id", cmd.ExternalID).
				Msg("addon course does not exist, skipping")
			continue
		}
		if _, _, err := uc.enrollments.Extend(ctx, cmd.UserID, addonID, cmd.Months); err != nil {
			uc.log.Error().Err(err).Str("course_id", addonID).
				Msg("addon entitlement write failed; queued for retry")
			uc.enqueueRetry(ctx, cmd.UserID, addonID, cmd.Months, err)
		}
	}
}

func (uc *checkoutUC) enqueueRetry(ctx context.Context, userID, courseID string, months int, cause error) {
	pe := &model.PendingEntitlement{
		ID:            uuid.NewString(),
		UserID:        userID,
		CourseID:      courseID,
		Months:        months,
		Attempts:      0,
		NextAttemptAt: uc.clock.Now(),
		CreatedAt:     uc.clock.Now(),
		LastError:     cause.Error(),
	}
	if err := uc.outbox.Save(ctx, nil, pe); err != nil {
		// Worst case: paid without access and without a retry record. This
		// is the one state that needs a human, hence the loud log.
		uc.log.Error().Err(err).Str("user_id", userID).Str("course_id", courseID).
			Msg("CRITICAL: failed to queue entitlement retry after confirmed payment")
		return
	}
	metrics.IncEntitlementRetryQueued()
}

// dispatchNotifications runs detached from the request path: the gateway ack
// or browser redirect never waits on SMTP.
func (uc *checkoutUC) dispatchNotifications(userID, courseID string, newEnrollment bool) {
	ctx, cancel := context.WithTimeout(context.Background(), uc.notifyTimeout)
	defer cancel()

	u, err := uc.users.FindByID(ctx, nil, userID)
	if err != nil {
		uc.log.Warn().Err(err).Str("user_id", userID).Msg("skipping purchase emails, buyer lookup failed")
		return
	}

	title := courseID
	if c, err := uc.courses.FindByID(ctx, nil, courseID); err == nil {
		title = c.Title
	}

	if err := uc.mailer.SendPurchaseConfirmation(ctx, u.Email, title); err != nil {
		uc.log.Warn().Err(err).Str("email", u.Email).Msg("purchase confirmation email failed")
	}
	if newEnrollment {
		if err := uc.mailer.SendWelcome(ctx, u.Email); err != nil {
			uc.log.Warn().Err(err).Str("email", u.Email).Msg("welcome email failed")
		}
	}
}
