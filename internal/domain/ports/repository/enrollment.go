package repository

import (
	"context"

	"course-payments/internal/domain/model"
)

// EnrollmentRepository persists course access grants.
// Upsert keys on (user_id, course_id); on conflict it must update only
// expiry/active (learning state such as progress is owned elsewhere).
type EnrollmentRepository interface {
	FindByUserAndCourse(ctx context.Context, tx Tx, userID, courseID string) (*model.Enrollment, error)
	Upsert(ctx context.Context, tx Tx, e *model.Enrollment) error
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Enrollment, error)
}
