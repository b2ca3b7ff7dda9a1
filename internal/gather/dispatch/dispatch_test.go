package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/aussiebroadwan/gather/internal/gather/dispatch"
	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/internal/gather/identity"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	accounts []domain.Account
	err      error
	lookups  int
}

func (d *fakeDirectory) GetAccount(_ context.Context, id string) (domain.Account, error) {
	d.lookups++
	if d.err != nil {
		return domain.Account{}, d.err
	}
	for _, a := range d.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrNotFound
}

func (d *fakeDirectory) LookupAccountByPhone(_ context.Context, variants []string) (domain.Account, error) {
	d.lookups++
	if d.err != nil {
		return domain.Account{}, d.err
	}
	for _, a := range d.accounts {
		if slices.Contains(variants, a.Phone) {
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrNotFound
}

type fakeOutbox struct {
	created []domain.Notification
	failFor string
}

func (o *fakeOutbox) FindPending(_ context.Context, eventID, recipientID string) (domain.Notification, bool, error) {
	for _, n := range o.created {
		if n.EventID == eventID && n.RecipientID == recipientID && n.Status == domain.NotificationPending {
			return n, true, nil
		}
	}
	return domain.Notification{}, false, nil
}

func (o *fakeOutbox) CreateNotification(_ context.Context, n domain.Notification) (domain.Notification, error) {
	if n.RecipientID == o.failFor {
		return domain.Notification{}, errors.New("write failed")
	}
	o.created = append(o.created, n)
	return n, nil
}

func newDispatcher(dir dispatch.Directory, out dispatch.Outbox) *dispatch.Dispatcher {
	seq := 0
	return &dispatch.Dispatcher{
		Directory:  dir,
		Outbox:     out,
		Normalizer: identity.Default,
		NewID: func() string {
			seq++
			return fmt.Sprintf("ntf_%d", seq)
		},
		Now: func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
	}
}

var (
	ev    = domain.Event{ID: "evt_1", CreatorID: "acc_maria", Name: "Asado"}
	maria = domain.ActingIdentity{AccountID: "acc_maria", DisplayName: "Maria", Phone: "0981111111"}
)

func TestDispatchMatchedAndUnmatched(t *testing.T) {
	dir := &fakeDirectory{accounts: []domain.Account{{ID: "acc_juan", Phone: "593991234567"}}}
	out := &fakeOutbox{}

	results := newDispatcher(dir, out).Dispatch(context.Background(), []domain.Contact{
		{DisplayName: "Juan", Phone: "0991234567"},
		{DisplayName: "Pedro", Phone: "0995555555"},
	}, ev, maria)

	require.Len(t, results, 2)
	require.Equal(t, domain.DispatchMatched, results[0].Outcome)
	require.Equal(t, "acc_juan", results[0].AccountID)
	require.Equal(t, domain.DispatchUnmatched, results[1].Outcome)

	require.Len(t, out.created, 1)
	n := out.created[0]
	require.Equal(t, "acc_juan", n.RecipientID)
	require.Equal(t, "Asado", n.EventName)
	require.Equal(t, "Maria", n.FromDisplayName)
	require.Equal(t, domain.NotificationInvitation, n.Kind)
	require.Equal(t, domain.NotificationPending, n.Status)

	require.Equal(t, map[domain.DispatchOutcome]int{domain.DispatchMatched: 1, domain.DispatchUnmatched: 1}, dispatch.Tally(results))
}

func TestDispatchReusesPending(t *testing.T) {
	dir := &fakeDirectory{accounts: []domain.Account{{ID: "acc_juan", Phone: "593991234567"}}}
	out := &fakeOutbox{}
	d := newDispatcher(dir, out)

	first := d.Dispatch(context.Background(), []domain.Contact{{Phone: "0991234567"}}, ev, maria)
	second := d.Dispatch(context.Background(), []domain.Contact{{Phone: "+593 99 123 4567"}}, ev, maria)

	require.Len(t, out.created, 1)
	require.Equal(t, first[0].NotificationID, second[0].NotificationID)
}

func TestDispatchPartialFailure(t *testing.T) {
	dir := &fakeDirectory{accounts: []domain.Account{
		{ID: "acc_juan", Phone: "593991234567"},
		{ID: "acc_ana", Phone: "593992222222"},
	}}
	out := &fakeOutbox{failFor: "acc_juan"}

	results := newDispatcher(dir, out).Dispatch(context.Background(), []domain.Contact{
		{Phone: "0991234567"},
		{Phone: "0992222222"},
	}, ev, maria)

	require.Equal(t, domain.DispatchFailed, results[0].Outcome)
	require.Error(t, results[0].Err)
	require.Equal(t, domain.DispatchMatched, results[1].Outcome)
	require.Len(t, out.created, 1)
}

func TestDispatchSkipsSenderAndDirectoryErrors(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("directory down")}
	out := &fakeOutbox{}

	results := newDispatcher(dir, out).Dispatch(context.Background(), []domain.Contact{
		{DisplayName: "me", Phone: "+593981111111"},
		{DisplayName: "someone", Phone: "0991234567"},
		{DisplayName: "empty"},
		{DisplayName: "known", AccountID: "acc_ana"},
	}, ev, maria)

	require.Equal(t, domain.DispatchSkipped, results[0].Outcome)
	require.Equal(t, domain.DispatchFailed, results[1].Outcome)
	require.Equal(t, domain.DispatchFailed, results[2].Outcome)
	require.ErrorIs(t, results[2].Err, domain.ErrInvalidContact)
	require.Equal(t, domain.DispatchFailed, results[3].Outcome)
	require.Equal(t, 2, dir.lookups)
}

func TestDispatchByAccountIDChecksDirectory(t *testing.T) {
	dir := &fakeDirectory{accounts: []domain.Account{{ID: "acc_ana", Phone: "593992222222"}}}
	out := &fakeOutbox{}

	results := newDispatcher(dir, out).Dispatch(context.Background(), []domain.Contact{
		{DisplayName: "Ana", AccountID: "acc_ana"},
		{DisplayName: "ghost", AccountID: "acc_does_not_exist"},
	}, ev, maria)

	require.Equal(t, domain.DispatchMatched, results[0].Outcome)
	require.Equal(t, "acc_ana", results[0].AccountID)
	require.Equal(t, domain.DispatchUnmatched, results[1].Outcome)
	require.Empty(t, results[1].AccountID)
	require.Equal(t, 2, dir.lookups)

	require.Len(t, out.created, 1)
	require.Equal(t, "acc_ana", out.created[0].RecipientID)
}
