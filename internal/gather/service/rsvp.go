package service

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/internal/gather/livesync"
	"github.com/aussiebroadwan/gather/internal/gather/reconcile"
	"github.com/aussiebroadwan/gather/pkg/slogx"
)

// RsvpService handles every way a participant answers: the status buttons
// on an event and accepting or declining an invitation.
type RsvpService struct {
	Sync       *livesync.Adapter
	Reconciler reconcile.Reconciler
	Now        func() time.Time
}

// Respond records acting's answer on an event.
func (s *RsvpService) Respond(ctx context.Context, acting domain.ActingIdentity, eventID string, status domain.RsvpStatus) (domain.Event, error) {
	ctx = slogx.WithEvent(ctx, eventID)
	log := slogx.FromContext(ctx)

	ev, err := s.Sync.Mutate(ctx, eventID, func(ev domain.Event) (domain.Event, error) {
		return s.Reconciler.SelfRespond(ev, acting, status, s.Now())
	})
	if err != nil {
		log.Warn("rsvp rejected", slog.String("status", string(status)), slog.Any("error", err))
		return domain.Event{}, err
	}

	log.Info("rsvp recorded", slog.String("status", string(status)))
	return ev, nil
}

// RespondToNotification answers an invitation, then resolves and deletes
// it. status defaults to confirmed. Responding to an invitation whose event
// is gone clears the invitation and reports ErrNotFound.
func (s *RsvpService) RespondToNotification(ctx context.Context, acting domain.ActingIdentity, notificationID string, status domain.RsvpStatus) (domain.Event, error) {
	log := slogx.FromContext(ctx)

	// 1. Only the recipient may answer.
	n, err := s.Sync.GetNotification(ctx, notificationID)
	if err != nil {
		return domain.Event{}, err
	}
	if acting.AccountID == "" || n.RecipientID != acting.AccountID {
		return domain.Event{}, domain.ErrNotFound
	}
	if status == "" {
		status = domain.StatusConfirmed
	}

	// 2. Apply the answer through the same path as the status buttons.
	ev, err := s.Respond(ctx, acting, n.EventID, status)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.Event{}, err
	}

	// 3. Consume the invitation.
	if rerr := s.Sync.ResolveNotification(ctx, n); rerr != nil {
		log.Error("failed to resolve notification", slog.String("notification_id", n.ID), slog.Any("error", rerr))
		if err == nil {
			err = rerr
		}
	}
	return ev, err
}

func (s *RsvpService) Notifications(ctx context.Context, acting domain.ActingIdentity) ([]domain.Notification, error) {
	if acting.AccountID == "" {
		return nil, domain.ErrIdentityRequired
	}
	return s.Sync.Notifications(ctx, acting.AccountID)
}

// WatchNotifications returns acting's queue snapshot sequence.
func (s *RsvpService) WatchNotifications(ctx context.Context, acting domain.ActingIdentity) (iter.Seq2[[]domain.Notification, error], error) {
	if acting.AccountID == "" {
		return nil, domain.ErrIdentityRequired
	}
	return s.Sync.NotificationSnapshots(ctx, acting.AccountID), nil
}
