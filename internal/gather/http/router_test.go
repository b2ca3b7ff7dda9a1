package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/gather/internal/gather/dispatch"
	httpapi "github.com/aussiebroadwan/gather/internal/gather/http"
	"github.com/aussiebroadwan/gather/internal/gather/identity"
	"github.com/aussiebroadwan/gather/internal/gather/livesync"
	"github.com/aussiebroadwan/gather/internal/gather/reconcile"
	"github.com/aussiebroadwan/gather/internal/gather/service"
	"github.com/aussiebroadwan/gather/internal/gather/store/drivers/sqlite"
	"github.com/aussiebroadwan/gather/pkg/gathersdk"
	"github.com/aussiebroadwan/gather/pkg/idx"
	"github.com/aussiebroadwan/gather/pkg/jwtx"
	"github.com/aussiebroadwan/gather/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const issuer = "gather-test"

func newServer(t *testing.T) (*gathersdk.SDKClient, *httpapi.Router) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	signer, err := jwtx.GenerateSigner("test")
	require.NoError(t, err)

	now := func() time.Time { return time.Now().UTC() }
	sync := livesync.NewAdapter(st, livesync.NewFeed())

	events := &service.EventService{
		Store:      st,
		Sync:       sync,
		Reconciler: reconcile.Default,
		NewID:      idx.Generator(idx.KindEvent),
		Now:        now,
	}
	rsvp := &service.RsvpService{Sync: sync, Reconciler: reconcile.Default, Now: now}

	router := httpapi.NewRouter(signer.Verifier(issuer), "test", st, slogx.Discard())
	router.Limits = httpapi.Limits{}
	router.StreamPing = 50 * time.Millisecond
	router.AccountService = &service.AccountService{
		Store:      st,
		Normalizer: identity.Default,
		Signer:     signer,
		Issuer:     issuer,
		NewID:      idx.Generator(idx.KindAccount),
		Now:        now,
	}
	router.EventService = events
	router.RsvpService = rsvp
	router.InvitationService = &service.InvitationService{
		Store:  st,
		Events: events,
		Rsvp:   rsvp,
		Dispatcher: &dispatch.Dispatcher{
			Directory:  sync,
			Outbox:     sync,
			Normalizer: identity.Default,
			NewID:      idx.Generator(idx.KindNotification),
			Now:        now,
		},
		NewID: idx.Generator(idx.KindLink),
		Now:   now,
	}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return gathersdk.NewSDKClient(srv.URL), router
}

func TestInvitationFlow(t *testing.T) {
	ctx := context.Background()
	client, _ := newServer(t)

	maria, err := client.Register(ctx, "Maria", "0981111111")
	require.NoError(t, err)
	juan, err := client.Register(ctx, "Juan", "+593991234567")
	require.NoError(t, err)

	me, err := juan.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "593991234567", me.Phone)

	ev, err := maria.CreateEvent(ctx, "Asado")
	require.NoError(t, err)

	inv, err := maria.Invite(ctx, ev.ID, []gathersdk.Contact{
		{DisplayName: "Juan", Phone: "0991234567"},
		{DisplayName: "Pedro", Phone: "0995555555"},
	})
	require.NoError(t, err)
	require.Len(t, inv.Event.Attendees, 2)
	require.Equal(t, gathersdk.OutcomeMatched, inv.Results[0].Outcome)
	require.Equal(t, gathersdk.OutcomeUnmatched, inv.Results[1].Outcome)

	inbox, err := juan.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, inbox, 1)

	got, err := juan.RespondToNotification(ctx, inbox[0].ID, "")
	require.NoError(t, err)
	require.Len(t, got.Attendees, 2)
	require.Contains(t, got.VisibleTo, juan.Account.ID)

	var confirmed int
	for _, a := range got.Attendees {
		if a.Status == gathersdk.StatusConfirmed {
			confirmed++
			require.Equal(t, juan.Account.ID, a.AccountID)
		}
	}
	require.Equal(t, 1, confirmed)

	listed, err := juan.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestErrorMapping(t *testing.T) {
	ctx := context.Background()
	client, _ := newServer(t)

	maria, err := client.Register(ctx, "Maria", "")
	require.NoError(t, err)
	eve, err := client.Register(ctx, "Eve", "")
	require.NoError(t, err)

	ev, err := maria.CreateEvent(ctx, "Asado")
	require.NoError(t, err)

	_, err = eve.GetEvent(ctx, ev.ID)
	require.True(t, gathersdk.IsCode(err, gathersdk.ErrorCodeNotFound), "outsiders see not found: %v", err)

	_, err = eve.AddAttendees(ctx, ev.ID, []gathersdk.Contact{{Phone: "0990000000"}})
	require.True(t, gathersdk.IsCode(err, gathersdk.ErrorCodeForbidden), "%v", err)

	_, err = eve.Respond(ctx, ev.ID, "sometimes")
	require.True(t, gathersdk.IsCode(err, gathersdk.ErrorCodeInvalidStatus), "%v", err)

	_, err = maria.Respond(ctx, ev.ID, gathersdk.StatusConfirmed)
	require.True(t, gathersdk.IsCode(err, gathersdk.ErrorCodeCreatorNotAttendee), "%v", err)

	_, err = maria.AddAttendees(ctx, ev.ID, []gathersdk.Contact{{DisplayName: "nobody"}})
	require.True(t, gathersdk.IsCode(err, gathersdk.ErrorCodeInvalidContact), "%v", err)

	_, err = client.Register(ctx, "", "")
	require.True(t, gathersdk.IsCode(err, gathersdk.ErrorCodeInvalidRequest), "%v", err)

	var apiErr *gathersdk.APIError
	_, err = client.NewSession("not-a-jwt").ListEvents(ctx)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, gathersdk.ErrorCodeInvalidToken, apiErr.Code)
}

func TestShareableLink(t *testing.T) {
	ctx := context.Background()
	client, _ := newServer(t)

	maria, err := client.Register(ctx, "Maria", "")
	require.NoError(t, err)
	ana, err := client.Register(ctx, "Ana", "")
	require.NoError(t, err)
	luis, err := client.Register(ctx, "Luis", "")
	require.NoError(t, err)

	ev, err := maria.CreateEvent(ctx, "Asado")
	require.NoError(t, err)

	link, err := maria.MintLink(ctx, ev.ID, time.Hour, false)
	require.NoError(t, err)
	require.NotEmpty(t, link.Token)

	got, err := ana.RedeemLink(ctx, link.Token, gathersdk.StatusMaybe)
	require.NoError(t, err)
	require.Equal(t, gathersdk.StatusMaybe, got.Attendees[0].Status)

	_, err = luis.RedeemLink(ctx, link.Token, "")
	var apiErr *gathersdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusGone, apiErr.StatusCode)

	removed, err := maria.RemoveAttendee(ctx, ev.ID, ana.Account.ID)
	require.NoError(t, err)
	require.Empty(t, removed.Attendees)
}

func TestRemoveAttendeeBySharedPhone(t *testing.T) {
	ctx := context.Background()
	client, _ := newServer(t)

	maria, err := client.Register(ctx, "Maria", "")
	require.NoError(t, err)
	juan, err := client.Register(ctx, "Juan", "0991234567")
	require.NoError(t, err)
	work, err := client.Register(ctx, "Juan (work)", "+593 99 123 4567")
	require.NoError(t, err)

	ev, err := maria.CreateEvent(ctx, "Asado")
	require.NoError(t, err)
	_, err = juan.Respond(ctx, ev.ID, gathersdk.StatusConfirmed)
	require.NoError(t, err)
	_, err = work.Respond(ctx, ev.ID, gathersdk.StatusMaybe)
	require.NoError(t, err)

	_, err = maria.RemoveAttendee(ctx, ev.ID, "0991234567")
	var apiErr *gathersdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.StatusCode)
	require.Equal(t, gathersdk.ErrorCodeAmbiguousIdentity, apiErr.Code)

	got, err := maria.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, got.Attendees, 2)

	got, err = maria.RemoveAttendee(ctx, ev.ID, work.Account.ID)
	require.NoError(t, err)
	require.Len(t, got.Attendees, 1)
	require.Equal(t, juan.Account.ID, got.Attendees[0].AccountID)
}

func TestEventStreamFollowsWrites(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, _ := newServer(t)

	maria, err := client.Register(ctx, "Maria", "")
	require.NoError(t, err)
	ev, err := maria.CreateEvent(ctx, "Asado")
	require.NoError(t, err)

	var seen []int
	err = maria.WatchEvent(ctx, ev.ID, func(snap gathersdk.Event) bool {
		seen = append(seen, len(snap.Attendees))
		if len(seen) == 1 {
			_, err := maria.AddAttendees(ctx, ev.ID, []gathersdk.Contact{{Phone: "0991234567"}})
			require.NoError(t, err)
		}
		return len(snap.Attendees) < 1
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, seen)
}

func TestNotificationStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, _ := newServer(t)

	maria, err := client.Register(ctx, "Maria", "")
	require.NoError(t, err)
	juan, err := client.Register(ctx, "Juan", "0991234567")
	require.NoError(t, err)
	ev, err := maria.CreateEvent(ctx, "Asado")
	require.NoError(t, err)

	var sizes []int
	err = juan.WatchNotifications(ctx, func(ns []gathersdk.Notification) bool {
		sizes = append(sizes, len(ns))
		if len(sizes) == 1 {
			_, err := maria.Invite(ctx, ev.ID, []gathersdk.Contact{{Phone: "0991234567"}})
			require.NoError(t, err)
		}
		return len(ns) == 0
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, sizes)
}

func TestHealthEndpoints(t *testing.T) {
	ctx := context.Background()
	client, _ := newServer(t)

	live, err := client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Database)
}

func TestCloseStreamsEndsOpenStreams(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, router := newServer(t)

	maria, err := client.Register(ctx, "Maria", "")
	require.NoError(t, err)
	ev, err := maria.CreateEvent(ctx, "Asado")
	require.NoError(t, err)

	var snapshots int
	err = maria.WatchEvent(ctx, ev.ID, func(gathersdk.Event) bool {
		snapshots++
		router.CloseStreams()
		return true
	})
	require.NoError(t, err)
	require.Equal(t, 1, snapshots)
}
