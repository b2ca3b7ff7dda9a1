package service

import (
	"context"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/internal/gather/identity"
	"github.com/aussiebroadwan/gather/internal/gather/livesync"
	"github.com/aussiebroadwan/gather/internal/gather/reconcile"
	"github.com/aussiebroadwan/gather/internal/gather/store"
	"github.com/aussiebroadwan/gather/pkg/idx"
	"github.com/aussiebroadwan/gather/pkg/slogx"
)

type EventService struct {
	Store      store.Store
	Sync       *livesync.Adapter
	Reconciler reconcile.Reconciler
	NewID      func() string
	Now        func() time.Time
}

// Create starts an event owned by acting. The creator is never an attendee.
func (s *EventService) Create(ctx context.Context, acting domain.ActingIdentity, name string) (domain.Event, error) {
	log := slogx.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Event{}, ErrInvalidRequest
	}
	if acting.AccountID == "" {
		return domain.Event{}, domain.ErrIdentityRequired
	}

	now := s.Now()
	ev := domain.Event{
		ID:        s.NewID(),
		CreatorID: acting.AccountID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Events().CreateEvent(ctx, ev); err != nil {
		log.Error("failed to create event", slog.Any("error", err))
		return domain.Event{}, err
	}

	log.Info("event created", slog.String("event_id", ev.ID))
	return ev, nil
}

// canView lets the creator, accounts in VisibleTo, and anyone already on the
// attendee list read an event.
func (s *EventService) canView(ev domain.Event, acting domain.ActingIdentity) bool {
	if ev.CanView(acting.AccountID) {
		return true
	}
	key, err := s.Reconciler.Registry.Normalizer.Resolve(acting)
	if err != nil {
		return false
	}
	_, ok := s.Reconciler.Registry.Find(ev.Attendees, key)
	return ok
}

func (s *EventService) Get(ctx context.Context, acting domain.ActingIdentity, eventID string) (domain.Event, error) {
	ev, err := s.Sync.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, err
	}
	if !s.canView(ev, acting) {
		// Hide the event's existence from outsiders.
		return domain.Event{}, domain.ErrNotFound
	}
	return ev, nil
}

// List returns events acting created or has said yes or maybe to.
func (s *EventService) List(ctx context.Context, acting domain.ActingIdentity) ([]domain.Event, error) {
	if acting.AccountID == "" {
		return nil, domain.ErrIdentityRequired
	}
	events, err := s.Store.Events().ListEventsForAccount(ctx, acting.AccountID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return events, nil
}

// Watch authorises acting and returns the event's snapshot sequence. The
// sequence ends with ErrNotFound if acting loses access, for example after
// being removed by the creator.
func (s *EventService) Watch(ctx context.Context, acting domain.ActingIdentity, eventID string) (iter.Seq2[domain.Event, error], error) {
	if _, err := s.Get(ctx, acting, eventID); err != nil {
		return nil, err
	}

	return func(yield func(domain.Event, error) bool) {
		for ev, err := range s.Sync.EventSnapshots(ctx, eventID) {
			if err == nil && !s.canView(ev, acting) {
				yield(domain.Event{}, domain.ErrNotFound)
				return
			}
			if !yield(ev, err) {
				return
			}
		}
	}, nil
}

// AddContacts imports picked contacts as pending attendees.
func (s *EventService) AddContacts(ctx context.Context, acting domain.ActingIdentity, eventID string, contacts []domain.Contact) (domain.Event, int, error) {
	ctx = slogx.WithEvent(ctx, eventID)
	log := slogx.FromContext(ctx)

	if len(contacts) == 0 {
		return domain.Event{}, 0, ErrInvalidRequest
	}

	var added int
	ev, err := s.Sync.Mutate(ctx, eventID, func(ev domain.Event) (domain.Event, error) {
		next, n, err := s.Reconciler.CreatorAdd(ev, acting, contacts, s.Now())
		added = n
		return next, err
	})
	if err != nil {
		log.Warn("contact import rejected", slog.Any("error", err))
		return domain.Event{}, 0, err
	}

	log.Info("contacts imported", slog.Int("candidates", len(contacts)), slog.Int("added", added))
	return ev, added, nil
}

// RemoveAttendee drops one attendee. identityRef is an account id or a phone
// number in any spelling.
func (s *EventService) RemoveAttendee(ctx context.Context, acting domain.ActingIdentity, eventID, identityRef string) (domain.Event, error) {
	ctx = slogx.WithEvent(ctx, eventID)

	key := ParseIdentityRef(s.Reconciler.Registry.Normalizer, identityRef)
	if key.IsZero() {
		return domain.Event{}, ErrInvalidRequest
	}

	ev, err := s.Sync.Mutate(ctx, eventID, func(ev domain.Event) (domain.Event, error) {
		return s.Reconciler.CreatorRemove(ev, acting, key)
	})
	if err != nil {
		return domain.Event{}, err
	}

	slogx.FromContext(ctx).Info("attendee removed", slog.String("identity", key.Canonical()))
	return ev, nil
}

// ParseIdentityRef reads an account id or a phone number.
func ParseIdentityRef(n identity.Normalizer, ref string) domain.IdentityKey {
	if id, err := idx.ParseKind(ref, idx.KindAccount); err == nil {
		return n.NormalizeAccount(id.String(), "")
	}
	return n.NormalizePhone(ref)
}
