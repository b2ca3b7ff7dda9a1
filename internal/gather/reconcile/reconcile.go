// Package reconcile applies RSVP transitions to attendee lists and events.
//
// The list-level functions are the state machine: creator adds create a
// pending record when nobody matches, and any self response overwrites the
// responder's record unconditionally. The Reconciler methods lift those onto
// an Event and enforce who may do what.
package reconcile

import (
	"slices"
	"time"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/internal/gather/registry"
)

type Reconciler struct {
	Registry registry.Registry
}

// Default uses registry.Default.
var Default = Reconciler{Registry: registry.Default}

// ApplyCreatorAdd adds contact as a pending attendee unless someone already
// matches it.
func (r Reconciler) ApplyCreatorAdd(list []domain.AttendeeRecord, contact domain.Contact, now time.Time) ([]domain.AttendeeRecord, error) {
	key, err := r.Registry.Normalizer.FromContact(contact)
	if err != nil {
		return list, err
	}
	if _, ok := r.Registry.Find(list, key); ok {
		return list, nil
	}

	src := domain.SourceContactImport
	if key.Phone == "" {
		src = domain.SourceCreatorAdded
	}

	return r.Registry.Upsert(list, domain.AttendeeRecord{
		Identity:    key,
		DisplayName: contact.DisplayName,
		Status:      domain.StatusPending,
		Source:      src,
		UpdatedAt:   now,
	}), nil
}

// ApplySelfResponse records acting's answer, replacing whatever record
// previously matched them.
func (r Reconciler) ApplySelfResponse(list []domain.AttendeeRecord, acting domain.ActingIdentity, status domain.RsvpStatus, now time.Time) ([]domain.AttendeeRecord, error) {
	if !status.IsResponse() {
		return list, domain.ErrInvalidStatus
	}
	key, err := r.Registry.Normalizer.Resolve(acting)
	if err != nil {
		return list, err
	}

	name := acting.DisplayName
	if prev, ok := r.Registry.Find(list, key); ok && name == "" {
		name = prev.DisplayName
	}

	return r.Registry.Upsert(list, domain.AttendeeRecord{
		Identity:    key,
		DisplayName: name,
		Status:      status,
		Source:      domain.SourceSelfResponse,
		UpdatedAt:   now,
	}), nil
}

// SelfRespond applies acting's answer to ev. Confirmed and maybe answers also
// list the event for acting's account.
func (r Reconciler) SelfRespond(ev domain.Event, acting domain.ActingIdentity, status domain.RsvpStatus, now time.Time) (domain.Event, error) {
	if acting.AccountID != "" && acting.AccountID == ev.CreatorID {
		return ev, domain.ErrCreatorNotAttendee
	}

	attendees, err := r.ApplySelfResponse(ev.Attendees, acting, status, now)
	if err != nil {
		return ev, err
	}

	out := ev.Clone()
	out.Attendees = attendees
	if status.GrantsVisibility() && acting.AccountID != "" {
		out.VisibleTo = union(out.VisibleTo, acting.AccountID)
	}
	return out, nil
}

// CreatorAdd imports contacts as pending attendees. Only the creator may call
// it. Contacts that resolve to the creator are skipped. Either every contact
// is valid and the import applies, or nothing changes.
func (r Reconciler) CreatorAdd(ev domain.Event, acting domain.ActingIdentity, contacts []domain.Contact, now time.Time) (domain.Event, int, error) {
	if acting.AccountID == "" || acting.AccountID != ev.CreatorID {
		return ev, 0, domain.ErrForbidden
	}

	creator := r.Registry.Normalizer.NormalizeAccount(acting.AccountID, acting.Phone)
	list := ev.Attendees
	added := 0
	for _, c := range contacts {
		key, err := r.Registry.Normalizer.FromContact(c)
		if err != nil {
			return ev, 0, err
		}
		if r.Registry.Normalizer.Match(key, creator) {
			continue
		}

		next, err := r.ApplyCreatorAdd(list, c, now)
		if err != nil {
			return ev, 0, err
		}
		if len(next) != len(list) {
			added++
		}
		list = next
	}

	out := ev.Clone()
	out.Attendees = list
	return out, added, nil
}

// CreatorRemove drops the attendee matching key. Only the creator may call
// it. A key matching several records, such as a phone number shared by two
// accounts, removes nothing and yields ErrAmbiguousIdentity.
func (r Reconciler) CreatorRemove(ev domain.Event, acting domain.ActingIdentity, key domain.IdentityKey) (domain.Event, error) {
	if acting.AccountID == "" || acting.AccountID != ev.CreatorID {
		return ev, domain.ErrForbidden
	}
	switch r.Registry.Count(ev.Attendees, key) {
	case 0:
		return ev, domain.ErrNotFound
	case 1:
	default:
		return ev, domain.ErrAmbiguousIdentity
	}

	out := ev.Clone()
	out.Attendees = r.Registry.Remove(ev.Attendees, key)
	return out, nil
}

func union(set []string, v string) []string {
	if slices.Contains(set, v) {
		return set
	}
	return append(set, v)
}

func ApplyCreatorAdd(list []domain.AttendeeRecord, contact domain.Contact, now time.Time) ([]domain.AttendeeRecord, error) {
	return Default.ApplyCreatorAdd(list, contact, now)
}

func ApplySelfResponse(list []domain.AttendeeRecord, acting domain.ActingIdentity, status domain.RsvpStatus, now time.Time) ([]domain.AttendeeRecord, error) {
	return Default.ApplySelfResponse(list, acting, status, now)
}
