package repository

import (
	"context"

	"course-payments/internal/domain/model"
)

type CourseRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Course, error)
	Exists(ctx context.Context, tx Tx, id string) (bool, error)
}
