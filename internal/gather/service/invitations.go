package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gather/internal/gather/dispatch"
	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/internal/gather/store"
	"github.com/aussiebroadwan/gather/pkg/cryptox"
	"github.com/aussiebroadwan/gather/pkg/slogx"
)

// DefaultLinkTTL is how long a shareable link stays redeemable.
const DefaultLinkTTL = 7 * 24 * time.Hour

// InvitationService invites people into an event: contact import with
// in-app notifications, and shareable links.
type InvitationService struct {
	Store      store.Store
	Events     *EventService
	Rsvp       *RsvpService
	Dispatcher *dispatch.Dispatcher
	NewID      func() string
	Now        func() time.Time

	// LinkTTL applies when MintLink is given no ttl. Defaults to
	// DefaultLinkTTL.
	LinkTTL time.Duration
}

// Invite adds contacts as pending attendees and notifies those who have
// accounts. Unmatched results are left for the caller to reach by other
// means.
func (s *InvitationService) Invite(ctx context.Context, acting domain.ActingIdentity, eventID string, contacts []domain.Contact) (domain.Event, []domain.DispatchResult, error) {
	ctx = slogx.WithEvent(ctx, eventID)
	log := slogx.FromContext(ctx)

	// 1. Import contacts; this also enforces creator-only access.
	ev, _, err := s.Events.AddContacts(ctx, acting, eventID, contacts)
	if err != nil {
		return domain.Event{}, nil, err
	}

	// 2. Dispatch per candidate.
	results := s.Dispatcher.Dispatch(ctx, contacts, ev, acting)

	tally := dispatch.Tally(results)
	log.Info("invitations dispatched",
		slog.Int("matched", tally[domain.DispatchMatched]),
		slog.Int("unmatched", tally[domain.DispatchUnmatched]),
		slog.Int("skipped", tally[domain.DispatchSkipped]),
		slog.Int("failed", tally[domain.DispatchFailed]),
	)
	return ev, results, nil
}

// MintLink creates a shareable link and returns its raw token once.
func (s *InvitationService) MintLink(ctx context.Context, acting domain.ActingIdentity, eventID string, ttl time.Duration, reusable bool) (string, domain.InviteLink, error) {
	log := slogx.FromContext(slogx.WithEvent(ctx, eventID))

	// 1. Only the creator mints links.
	ev, err := s.Events.Get(ctx, acting, eventID)
	if err != nil {
		return "", domain.InviteLink{}, err
	}
	if ev.CreatorID != acting.AccountID {
		return "", domain.InviteLink{}, domain.ErrForbidden
	}

	if ttl <= 0 {
		ttl = s.LinkTTL
	}
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}

	// 2. Generate the token; only its fingerprint is stored.
	token, fingerprint, err := cryptox.NewLinkToken()
	if err != nil {
		log.Error("failed to generate link token", slog.Any("error", err))
		return "", domain.InviteLink{}, err
	}

	now := s.Now()
	link := domain.InviteLink{
		ID:        s.NewID(),
		EventID:   eventID,
		TokenHash: fingerprint,
		CreatedBy: acting.AccountID,
		ExpiresAt: now.Add(ttl),
		Reusable:  reusable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Links().CreateLink(ctx, link); err != nil {
		log.Error("failed to store link", slog.Any("error", err))
		return "", domain.InviteLink{}, err
	}

	log.Info("invite link minted", slog.String("link_id", link.ID), slog.Bool("reusable", reusable), slog.Time("expires_at", link.ExpiresAt))
	return token, link, nil
}

// RedeemLink records acting's answer on the link's event. status defaults
// to confirmed. A single-use link is claimed before the answer is applied
// and released again if the answer cannot be recorded.
func (s *InvitationService) RedeemLink(ctx context.Context, acting domain.ActingIdentity, token string, status domain.RsvpStatus) (domain.Event, error) {
	log := slogx.FromContext(ctx)

	if token == "" {
		return domain.Event{}, ErrInvalidRequest
	}
	if status == "" {
		status = domain.StatusConfirmed
	}
	if !status.IsResponse() {
		return domain.Event{}, domain.ErrInvalidStatus
	}
	if _, err := s.Events.Reconciler.Registry.Normalizer.Resolve(acting); err != nil {
		return domain.Event{}, err
	}

	// 1. Look up by fingerprint.
	link, err := s.Store.Links().GetLinkByTokenHash(ctx, cryptox.FingerprintToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return domain.Event{}, ErrLinkNotFound
	}
	if err != nil {
		return domain.Event{}, err
	}
	if !link.Redeemable(s.Now()) {
		return domain.Event{}, domain.ErrLinkExpired
	}

	// 2. The creator cannot redeem their own link.
	ev, err := s.Events.Sync.GetEvent(ctx, link.EventID)
	if err != nil {
		return domain.Event{}, err
	}
	if acting.AccountID != "" && acting.AccountID == ev.CreatorID {
		return domain.Event{}, domain.ErrCreatorNotAttendee
	}

	// 3. Claim the link. A concurrent redeemer of a single-use link loses here.
	if err := s.Store.Links().MarkLinkUsed(ctx, link.ID, acting.AccountID, s.Now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Event{}, domain.ErrLinkExpired
		}
		return domain.Event{}, err
	}

	// 4. Answer.
	ev, err = s.Rsvp.Respond(ctx, acting, link.EventID, status)
	if err != nil {
		if !link.Reusable {
			s.releaseLink(ctx, link, acting.AccountID)
		}
		return domain.Event{}, err
	}

	log.Info("invite link redeemed", slog.String("link_id", link.ID), slog.String("event_id", link.EventID))
	return ev, nil
}

func (s *InvitationService) releaseLink(ctx context.Context, link domain.InviteLink, usedBy string) {
	err := s.Store.Links().ReleaseLink(context.WithoutCancel(ctx), link.ID, usedBy, s.Now())
	if err != nil {
		slogx.FromContext(ctx).Error("failed to release invite link", slog.String("link_id", link.ID), slog.Any("error", err))
	}
}
