package model

import "time"

// PendingEntitlement is one row of the durable outbox for grants that could
// not be written after a payment was already confirmed. The outbox worker
// drains these with backoff so a paid-but-unprovisioned state self-heals
// instead of waiting for manual support intervention.
type PendingEntitlement struct {
	ID            string // UUID
	UserID        string
	CourseID      string
	Months        int
	Attempts      int
	NextAttemptAt time.Time
	CreatedAt     time.Time
	LastError     string
}
