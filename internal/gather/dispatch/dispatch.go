// Package dispatch turns picked contacts into in-app invitations for the
// ones that already have accounts.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/internal/gather/identity"
	"github.com/aussiebroadwan/gather/pkg/slogx"
)

// Directory resolves contacts to registered accounts, returning
// domain.ErrNotFound when none matches.
type Directory interface {
	GetAccount(ctx context.Context, id string) (domain.Account, error)
	LookupAccountByPhone(ctx context.Context, variants []string) (domain.Account, error)
}

// Outbox stores invitations.
type Outbox interface {
	// FindPending reports the pending invitation for recipient on event.
	FindPending(ctx context.Context, eventID, recipientID string) (domain.Notification, bool, error)
	CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error)
}

type Dispatcher struct {
	Directory  Directory
	Outbox     Outbox
	Normalizer identity.Normalizer
	NewID      func() string
	Now        func() time.Time
}

// Dispatch handles each candidate on its own. A failure for one candidate is
// recorded on its result and does not stop the rest.
func (d *Dispatcher) Dispatch(ctx context.Context, candidates []domain.Contact, ev domain.Event, from domain.ActingIdentity) []domain.DispatchResult {
	log := slogx.FromContext(ctx)
	sender, _ := d.Normalizer.Resolve(from)

	results := make([]domain.DispatchResult, 0, len(candidates))
	for _, c := range candidates {
		res := d.dispatchOne(ctx, c, ev, from, sender)
		if res.Err != nil {
			log.Warn("invitation dispatch failed", "candidate", c.DisplayName, "err", res.Err)
		}
		results = append(results, res)
	}
	return results
}

func (d *Dispatcher) dispatchOne(ctx context.Context, c domain.Contact, ev domain.Event, from domain.ActingIdentity, sender domain.IdentityKey) domain.DispatchResult {
	res := domain.DispatchResult{Candidate: c}

	// 1. Skip the sender.
	key := d.Normalizer.NormalizeAccount(c.AccountID, c.Phone)
	if key.IsZero() {
		res.Outcome, res.Err = domain.DispatchFailed, domain.ErrInvalidContact
		return res
	}
	if !sender.IsZero() && d.Normalizer.Match(key, sender) {
		res.Outcome = domain.DispatchSkipped
		return res
	}

	// 2. Resolve the recipient account. A contact naming an account id must
	// still exist in the directory.
	var (
		acct domain.Account
		err  error
	)
	if c.AccountID != "" {
		acct, err = d.Directory.GetAccount(ctx, key.Account)
	} else {
		acct, err = d.Directory.LookupAccountByPhone(ctx, d.Normalizer.PhoneVariants(c.Phone))
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		res.Outcome = domain.DispatchUnmatched
		return res
	case err != nil:
		res.Outcome, res.Err = domain.DispatchFailed, err
		return res
	}
	recipient := acct.ID
	res.AccountID = recipient

	if recipient == ev.CreatorID || recipient == from.AccountID {
		res.Outcome = domain.DispatchSkipped
		return res
	}

	// 3. Reuse a pending invitation rather than stacking duplicates.
	existing, ok, err := d.Outbox.FindPending(ctx, ev.ID, recipient)
	if err != nil {
		res.Outcome, res.Err = domain.DispatchFailed, err
		return res
	}
	if ok {
		res.Outcome, res.NotificationID = domain.DispatchMatched, existing.ID
		return res
	}

	// 4. Create.
	now := d.Now()
	n, err := d.Outbox.CreateNotification(ctx, domain.Notification{
		ID:              d.NewID(),
		EventID:         ev.ID,
		EventName:       ev.Name,
		RecipientID:     recipient,
		Kind:            domain.NotificationInvitation,
		Status:          domain.NotificationPending,
		FromDisplayName: from.DisplayName,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		res.Outcome, res.Err = domain.DispatchFailed, err
		return res
	}

	res.Outcome, res.NotificationID = domain.DispatchMatched, n.ID
	return res
}

// Tally counts results by outcome.
func Tally(results []domain.DispatchResult) map[domain.DispatchOutcome]int {
	out := make(map[domain.DispatchOutcome]int, 4)
	for _, r := range results {
		out[r.Outcome]++
	}
	return out
}
