package domain

import (
	"fmt"
	"time"
)

type RsvpStatus string

const (
	StatusPending   RsvpStatus = "pending"
	StatusConfirmed RsvpStatus = "confirmed"
	StatusMaybe     RsvpStatus = "maybe"
	StatusDeclined  RsvpStatus = "declined"
)

// ParseRsvpStatus accepts the wire form of a status.
func ParseRsvpStatus(s string) (RsvpStatus, error) {
	switch st := RsvpStatus(s); st {
	case StatusPending, StatusConfirmed, StatusMaybe, StatusDeclined:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// IsResponse reports whether s is something a participant can answer with.
func (s RsvpStatus) IsResponse() bool {
	return s == StatusConfirmed || s == StatusMaybe || s == StatusDeclined
}

// GrantsVisibility reports whether responding with s lists the event for the
// responder.
func (s RsvpStatus) GrantsVisibility() bool {
	return s == StatusConfirmed || s == StatusMaybe
}

type Source string

const (
	SourceCreatorAdded  Source = "creator_added"
	SourceSelfResponse  Source = "self_response"
	SourceContactImport Source = "contact_import"
)

type AttendeeRecord struct {
	Identity    IdentityKey
	DisplayName string
	Status      RsvpStatus
	Source      Source
	UpdatedAt   time.Time
}
