package model

import "time"

// Course is a read-only projection of the catalog entry this subsystem
// grants access to. Content, modules and lessons live elsewhere.
type Course struct {
	ID        string
	Title     string
	PriceCLP  int64
	CreatedAt time.Time
}

func (c *Course) IsZero() bool { return c == nil || c.ID == "" }
