package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/adapter"
	"course-payments/internal/domain/ports/repository"
	"course-payments/internal/infra/metrics"
)

// Compile-time check
var _ EnrollmentUseCase = (*enrollmentUC)(nil)

// EnrollmentUseCase owns the entitlement extension algorithm. Every
// successful payment, whether primary purchase, renewal or add-on cascade,
// funnels through Extend.
type EnrollmentUseCase interface {
	// Extend grants or stacks access for (userID, courseID). months == 0
	// means lifetime (see model.ParseMonths). The bool result reports
	// whether the enrollment was newly created in this call.
	Extend(ctx context.Context, userID, courseID string, months int) (*model.Enrollment, bool, error)
	// ListByUser returns all grants of a buyer, for the account page.
	ListByUser(ctx context.Context, userID string) ([]*model.Enrollment, error)
}

type enrollmentUC struct {
	enrollments repository.EnrollmentRepository
	clock       adapter.Clock
	log         *zerolog.Logger
}

func NewEnrollmentUseCase(enrollments repository.EnrollmentRepository, clock adapter.Clock, logger *zerolog.Logger) *enrollmentUC {
	ucLog := logger.With().Str("component", "EnrollmentUC").Logger()
	return &enrollmentUC{enrollments: enrollments, clock: clock, log: &ucLog}
}

func (uc *enrollmentUC) Extend(ctx context.Context, userID, courseID string, months int) (*model.Enrollment, bool, error) {
	if userID == "" || courseID == "" || months < 0 {
		return nil, false, domain.ErrInvalidArgument
	}

	now := uc.clock.Now()

	existing, err := uc.enrollments.FindByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil && err != domain.ErrNotFound {
		return nil, false, err
	}

	// Base date: stack on a still-live expiry, otherwise start fresh from
	// now (covers both first-time grants and expired renewals).
	base := now
	if existing != nil && existing.ExpiresAt.After(now) {
		base = existing.ExpiresAt
	}

	newExpiry := base.AddDate(0, months, 0)
	if months == 0 {
		// Lifetime purchase: always materialize the far-future sentinel,
		// never a NULL, so access checks stay one comparison.
		newExpiry = model.LifetimeExpiry(now)
	}

	if existing == nil {
		e := &model.Enrollment{
			ID:         uuid.NewString(),
			UserID:     userID,
			CourseID:   courseID,
			Active:     true,
			Progress:   0,
			EnrolledAt: now,
			ExpiresAt:  newExpiry,
		}
		if err := uc.enrollments.Upsert(ctx, nil, e); err != nil {
			return nil, false, err
		}
		metrics.IncEnrollmentGranted("new")
		uc.log.Info().Str("user_id", userID).Str("course_id", courseID).
			Int("months", months).Time("expires_at", newExpiry).Msg("enrollment created")
		return e, true, nil
	}

	// Renewal/extension: touch only expiry and active; progress and the rest
	// of the learning state stay as-is.
	existing.ExpiresAt = newExpiry
	existing.Active = true
	if err := uc.enrollments.Upsert(ctx, nil, existing); err != nil {
		return nil, false, err
	}
	metrics.IncEnrollmentGranted("extended")
	uc.log.Info().Str("user_id", userID).Str("course_id", courseID).
		Int("months", months).Time("expires_at", newExpiry).Msg("enrollment extended")
	return existing, false, nil
}

func (uc *enrollmentUC) ListByUser(ctx context.Context, userID string) ([]*model.Enrollment, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return uc.enrollments.ListByUser(ctx, nil, userID)
}
