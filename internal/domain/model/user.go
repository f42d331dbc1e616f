package model

import (
	"time"

	"course-payments/internal/domain"
)

// User mirrors the buyer identity held by the external identity provider.
// Only the fields the checkout flow needs are kept locally.
type User struct {
	ID        string // UUID, identical to the identity provider's subject id
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

func NewUser(id, email, firstName, lastName string) (*User, error) {
	if id == "" || email == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:        id,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: time.Now(),
	}, nil
}
