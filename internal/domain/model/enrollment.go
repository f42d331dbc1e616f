package model

import "time"

// LifetimeYears is the horizon used to materialize "never expires".
// A concrete far-future timestamp is stored instead of NULL so that every
// read-side access check stays a single comparison against now.
const LifetimeYears = 100

// Enrollment is a buyer's time-bounded access grant to one course.
// Exactly one row exists per (UserID, CourseID); it is upserted on every
// successful payment and never deleted by this subsystem.
type Enrollment struct {
	ID         string // UUID
	UserID     string
	CourseID   string
	Active     bool
	Progress   int // percent of lessons completed; owned by the learning side, preserved on renewals
	EnrolledAt time.Time
	ExpiresAt  time.Time
}

// HasAccess reports whether the grant is usable at the given instant.
func (e *Enrollment) HasAccess(now time.Time) bool {
	return e != nil && e.Active && e.ExpiresAt.After(now)
}

// Lifetime reports whether the stored expiry encodes unlimited access.
func (e *Enrollment) Lifetime(now time.Time) bool {
	return e != nil && e.ExpiresAt.After(now.AddDate(LifetimeYears-1, 0, 0))
}

// LifetimeExpiry returns the sentinel expiry for unlimited access grants.
func LifetimeExpiry(now time.Time) time.Time {
	return now.AddDate(LifetimeYears, 0, 0)
}
