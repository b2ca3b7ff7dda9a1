package domain

import (
	"slices"
	"time"
)

type Event struct {
	ID        string
	CreatorID string
	Name      string
	Attendees []AttendeeRecord
	VisibleTo []string // account ids; grows only
	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanView reports whether accountID may read the event.
func (e Event) CanView(accountID string) bool {
	return accountID == e.CreatorID || slices.Contains(e.VisibleTo, accountID)
}

// Clone returns a deep copy, safe to hand to a mutation func.
func (e Event) Clone() Event {
	e.Attendees = slices.Clone(e.Attendees)
	e.VisibleTo = slices.Clone(e.VisibleTo)
	return e
}
