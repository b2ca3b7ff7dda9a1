package domain

import (
	"errors"
	"fmt"
)

var (
	ErrIdentityRequired   = errors.New("identity required")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidStatus      = errors.New("invalid rsvp status")
	ErrInvalidContact     = errors.New("contact has no phone or account")
	ErrCreatorNotAttendee = errors.New("creator cannot be an attendee")
	ErrConflict           = errors.New("revision conflict")
	ErrUnavailable        = errors.New("store unavailable")
	ErrLinkExpired        = errors.New("invite link expired or used")
	ErrAmbiguousIdentity  = errors.New("identity matches more than one attendee")
)

// ConflictError reports a write based on a stale read of an event.
type ConflictError struct {
	EventID  string
	Expected int64
	Current  int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("event %s: expected revision %d, current %d", e.EventID, e.Expected, e.Current)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NetworkError wraps a failed store read, write or subscription. Callers may
// retry it.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrUnavailable }
