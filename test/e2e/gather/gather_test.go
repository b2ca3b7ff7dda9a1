package gather_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/gather/pkg/gathersdk"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	client := setupGatherContainer(t)

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)

	health, err = client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.Equal(t, "ok", health.Checks.Database)
}

// TestImportedContactConfirmsWithoutDuplicate covers a guest added by phone
// who later confirms from their own account.
func TestImportedContactConfirmsWithoutDuplicate(t *testing.T) {
	ctx := t.Context()
	client := setupGatherContainer(t)

	maria := register(t, client, "Maria", "0981111111")
	juan := register(t, client, "Juan", "+593 99 123 4567")

	ev, err := maria.CreateEvent(ctx, "Asado")
	require.NoError(t, err)

	added, err := maria.AddAttendees(ctx, ev.ID, []gathersdk.Contact{{DisplayName: "Juan", Phone: "099-123-4567"}})
	require.NoError(t, err)
	require.Equal(t, 1, added.Added)

	got, err := juan.Respond(ctx, ev.ID, gathersdk.StatusConfirmed)
	require.NoError(t, err)
	require.Len(t, got.Attendees, 1)
	require.Equal(t, juan.Account.ID, got.Attendees[0].AccountID)
	require.Equal(t, gathersdk.StatusConfirmed, got.Attendees[0].Status)

	events, err := juan.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

// TestInvitationAcceptance covers in-app invitations: one contact matches an
// account, the other does not, and accepting keeps one record.
func TestInvitationAcceptance(t *testing.T) {
	ctx := t.Context()
	client := setupGatherContainer(t)

	maria := register(t, client, "Maria", "0981111111")
	juan := register(t, client, "Juan", "+593991234567")

	ev, err := maria.CreateEvent(ctx, "Asado")
	require.NoError(t, err)

	inv, err := maria.Invite(ctx, ev.ID, []gathersdk.Contact{
		{DisplayName: "Juan", Phone: "0991234567"},
		{DisplayName: "Pedro", Phone: "0995555555"},
	})
	require.NoError(t, err)
	require.Equal(t, gathersdk.OutcomeMatched, inv.Results[0].Outcome)
	require.Equal(t, juan.Account.ID, inv.Results[0].AccountID)
	require.Equal(t, gathersdk.OutcomeUnmatched, inv.Results[1].Outcome)

	inbox, err := juan.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.Equal(t, "Asado", inbox[0].EventName)

	got, err := juan.RespondToNotification(ctx, inbox[0].ID, "")
	require.NoError(t, err)
	require.Len(t, got.Attendees, 2)

	rec, ok := findAttendee(got, juan.Account.ID, "")
	require.True(t, ok)
	require.Equal(t, gathersdk.StatusConfirmed, rec.Status)

	_, ok = findAttendee(got, "", "0995555555")
	require.True(t, ok, "unmatched contact stays pending by phone")

	inbox, err = juan.Notifications(ctx)
	require.NoError(t, err)
	require.Empty(t, inbox)
}

// TestConcurrentResponsesAreAllKept has many guests answer at once; every
// answer must survive.
func TestConcurrentResponsesAreAllKept(t *testing.T) {
	ctx := t.Context()
	client := setupGatherContainer(t)

	maria := register(t, client, "Maria", "")
	ev, err := maria.CreateEvent(ctx, "Asado")
	require.NoError(t, err)

	const guests = 8
	sessions := make([]*gathersdk.Session, guests)
	for i := range sessions {
		sessions[i] = register(t, client, "Guest", "")
	}

	var wg sync.WaitGroup
	errs := make(chan error, guests)
	for _, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Respond(ctx, ev.ID, gathersdk.StatusMaybe)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := maria.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, got.Attendees, guests)
	require.Len(t, got.VisibleTo, guests)
}

func TestShareableLinks(t *testing.T) {
	ctx := t.Context()
	client := setupGatherContainer(t)

	maria := register(t, client, "Maria", "")
	ana := register(t, client, "Ana", "")
	luis := register(t, client, "Luis", "")

	ev, err := maria.CreateEvent(ctx, "Asado")
	require.NoError(t, err)

	link, err := maria.MintLink(ctx, ev.ID, time.Hour, false)
	require.NoError(t, err)

	_, err = maria.RedeemLink(ctx, link.Token, "")
	assertAPIError(t, err, http.StatusConflict, gathersdk.ErrorCodeCreatorNotAttendee)

	_, err = ana.RedeemLink(ctx, link.Token, "")
	require.NoError(t, err)

	_, err = luis.RedeemLink(ctx, link.Token, "")
	assertAPIError(t, err, http.StatusGone, gathersdk.ErrorCodeLinkExpired)

	_, err = luis.MintLink(ctx, ev.ID, 0, true)
	assertAPIError(t, err, http.StatusNotFound, gathersdk.ErrorCodeNotFound)
}

func TestLiveEventStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Second)
	defer cancel()
	client := setupGatherContainer(t)

	maria := register(t, client, "Maria", "")
	ana := register(t, client, "Ana", "")
	ev, err := maria.CreateEvent(ctx, "Asado")
	require.NoError(t, err)

	var statuses []string
	err = maria.WatchEvent(ctx, ev.ID, func(snap gathersdk.Event) bool {
		if len(snap.Attendees) == 0 {
			_, err := ana.Respond(ctx, ev.ID, gathersdk.StatusDeclined)
			require.NoError(t, err)
			return true
		}
		statuses = append(statuses, snap.Attendees[0].Status)
		return false
	})
	require.NoError(t, err)
	require.Equal(t, []string{gathersdk.StatusDeclined}, statuses)
}

func TestRegisterIsRateLimited(t *testing.T) {
	client := setupGatherContainerWithDefaultRateLimits(t)

	var lastErr error
	for range 10 {
		if _, err := client.Register(t.Context(), "Spam", ""); err != nil {
			lastErr = err
			break
		}
	}
	assertAPIError(t, lastErr, http.StatusTooManyRequests, gathersdk.ErrorCodeRateLimited)
}
