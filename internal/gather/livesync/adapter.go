// Package livesync is the only place that talks to the document store on
// behalf of the reconciliation core. It turns store changes into lazy
// snapshot sequences, writes merged attendee lists back with a revision
// guard, and serialises every local mutation of one event.
package livesync

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/internal/gather/registry"
	"github.com/aussiebroadwan/gather/internal/gather/store"
	"github.com/aussiebroadwan/gather/pkg/slogx"
	"github.com/cenkalti/backoff/v4"
)

// DefaultMaxAttempts bounds Mutate's read-compute-commit loop.
const DefaultMaxAttempts = 8

type Adapter struct {
	Store    store.Store
	Feed     *Feed
	Registry registry.Registry
	Now      func() time.Time

	// NewBackOff returns the retry policy for transient errors and
	// conflicts. Defaults to DefaultBackOff.
	NewBackOff func() backoff.BackOff

	// MaxAttempts bounds Mutate. Defaults to DefaultMaxAttempts.
	MaxAttempts int

	locks keyedMutex
}

func NewAdapter(st store.Store, feed *Feed) *Adapter {
	return &Adapter{
		Store:    st,
		Feed:     feed,
		Registry: registry.Default,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// DefaultBackOff is a short exponential policy with no overall deadline;
// callers bound it with a context or attempt count.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// retryForever lifts the attempt cap; only ctx bounds the retries.
const retryForever = -1

func (a *Adapter) backOff(ctx context.Context, maxRetries int) backoff.BackOff {
	newBackOff := a.NewBackOff
	if newBackOff == nil {
		newBackOff = DefaultBackOff
	}
	b := newBackOff()
	if maxRetries != retryForever {
		b = backoff.WithMaxRetries(b, uint64(max(maxRetries, 0)))
	}
	return backoff.WithContext(b, ctx)
}

// storeErr translates a store error into the domain taxonomy. Only
// store.ErrUnavailable becomes a retryable network failure; anything else,
// such as an undecodable document, is returned wrapped with op.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, store.ErrUnavailable):
		return &domain.NetworkError{Op: op, Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// retryable reports whether err is worth another attempt.
func retryable(err error) bool {
	return errors.Is(err, domain.ErrUnavailable) || errors.Is(err, domain.ErrConflict)
}

// readWithRetry runs read until it succeeds, fails permanently, runs out of
// retries or ctx ends.
func readWithRetry[T any](ctx context.Context, a *Adapter, maxRetries int, read func(context.Context) (T, error)) (T, error) {
	log := slogx.FromContext(ctx)
	return backoff.RetryNotifyWithData(func() (T, error) {
		v, err := read(ctx)
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, a.backOff(ctx, maxRetries), func(err error, wait time.Duration) {
		log.Warn("snapshot read failed, retrying", "err", err, "wait", wait)
	})
}

// snapshots yields read(ctx) now and again after every signal on topic. The
// listener is registered before the first read so no change is missed.
// Transient read errors are retried and never surface as a partial value; a
// permanent error is yielded once and ends the sequence. Cancelling ctx ends
// the sequence silently.
func snapshots[T any](ctx context.Context, a *Adapter, topic string, read func(context.Context) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		sig, stop := a.Feed.Listen(topic)
		defer stop()

		for {
			v, err := readWithRetry(ctx, a, retryForever, read)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-sig:
			}
		}
	}
}

func (a *Adapter) readEvent(ctx context.Context, eventID string) (domain.Event, error) {
	ev, err := a.Store.Events().GetEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, storeErr("read event", err)
	}
	ev.Attendees = a.Registry.Dedupe(ev.Attendees)
	return ev, nil
}

func (a *Adapter) readNotifications(ctx context.Context, accountID string) ([]domain.Notification, error) {
	list, err := a.Store.Notifications().ListPendingForRecipient(ctx, accountID)
	if err != nil {
		return nil, storeErr("read notifications", err)
	}
	return list, nil
}

// maxRetries is the retry budget for one-shot reads and for Mutate.
func (a *Adapter) maxRetries() int {
	if a.MaxAttempts <= 0 {
		return DefaultMaxAttempts - 1
	}
	return a.MaxAttempts - 1
}

// GetEvent reads one snapshot of an event.
func (a *Adapter) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	return readWithRetry(ctx, a, a.maxRetries(), func(ctx context.Context) (domain.Event, error) {
		return a.readEvent(ctx, eventID)
	})
}

// Notifications reads one snapshot of an account's pending queue.
func (a *Adapter) Notifications(ctx context.Context, accountID string) ([]domain.Notification, error) {
	return readWithRetry(ctx, a, a.maxRetries(), func(ctx context.Context) ([]domain.Notification, error) {
		return a.readNotifications(ctx, accountID)
	})
}

// EventSnapshots is a lazy, unbounded sequence of full event snapshots.
// Each range over it starts a fresh subscription.
func (a *Adapter) EventSnapshots(ctx context.Context, eventID string) iter.Seq2[domain.Event, error] {
	return snapshots(ctx, a, EventTopic(eventID), func(ctx context.Context) (domain.Event, error) {
		return a.readEvent(ctx, eventID)
	})
}

// NotificationSnapshots is a lazy, unbounded sequence of an account's pending
// notification queue.
func (a *Adapter) NotificationSnapshots(ctx context.Context, accountID string) iter.Seq2[[]domain.Notification, error] {
	return snapshots(ctx, a, NotificationTopic(accountID), func(ctx context.Context) ([]domain.Notification, error) {
		return a.readNotifications(ctx, accountID)
	})
}

// SubscribeEvent calls onChange with every event snapshot until the
// subscription is closed or a permanent error occurs.
func (a *Adapter) SubscribeEvent(ctx context.Context, eventID string, onChange func(domain.Event)) *Subscription {
	return subscribe(ctx, func(ctx context.Context) iter.Seq2[domain.Event, error] {
		return a.EventSnapshots(ctx, eventID)
	}, onChange)
}

// SubscribeNotifications calls onChange with every notification queue
// snapshot for accountID.
func (a *Adapter) SubscribeNotifications(ctx context.Context, accountID string, onChange func([]domain.Notification)) *Subscription {
	return subscribe(ctx, func(ctx context.Context) iter.Seq2[[]domain.Notification, error] {
		return a.NotificationSnapshots(ctx, accountID)
	}, onChange)
}

// Commit writes the entire attendee list and merges visibleTo into the
// stored set, provided the event is still at expectedRevision. A stale
// revision yields a *domain.ConflictError. Once issued, the write is not
// cancelled by ctx.
func (a *Adapter) Commit(ctx context.Context, eventID string, expectedRevision int64, attendees []domain.AttendeeRecord, visibleTo []string) (domain.Event, error) {
	ctx = context.WithoutCancel(ctx)
	now := a.Now()

	var out domain.Event
	err := a.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Events().ReplaceAttendees(ctx, eventID, expectedRevision, attendees, now)
		if errors.Is(err, store.ErrConflict) {
			return &domain.ConflictError{EventID: eventID, Expected: expectedRevision, Current: current}
		}
		if err != nil {
			return storeErr("write attendees", err)
		}

		if err := tx.Events().AppendVisibleTo(ctx, eventID, visibleTo, now); err != nil {
			return storeErr("append visibility", err)
		}

		out, err = tx.Events().GetEvent(ctx, eventID)
		return storeErr("read event", err)
	})
	if err != nil {
		var ce *domain.ConflictError
		var ne *domain.NetworkError
		if !errors.As(err, &ce) && !errors.As(err, &ne) && !errors.Is(err, domain.ErrNotFound) {
			err = storeErr("commit", err)
		}
		return domain.Event{}, err
	}

	a.Feed.Publish(EventTopic(eventID))
	return out, nil
}

// MutateFunc computes the next state of an event from a fresh snapshot. It
// must be a pure function of its input; it may run more than once.
type MutateFunc func(domain.Event) (domain.Event, error)

// Mutate serialises all local writers of eventID: under a per-event lock it
// reads the latest snapshot, applies fn, and commits with a revision guard.
// A conflict with a writer in another process re-reads and retries with
// backoff. If fn leaves attendees and visibility unchanged nothing is written.
func (a *Adapter) Mutate(ctx context.Context, eventID string, fn MutateFunc) (domain.Event, error) {
	unlock := a.locks.Lock(eventID)
	defer unlock()

	log := slogx.FromContext(slogx.WithEvent(ctx, eventID))

	return backoff.RetryNotifyWithData(func() (domain.Event, error) {
		ev, err := a.readEvent(ctx, eventID)
		if err != nil {
			if retryable(err) {
				return domain.Event{}, err
			}
			return domain.Event{}, backoff.Permanent(err)
		}

		next, err := fn(ev.Clone())
		if err != nil {
			return domain.Event{}, backoff.Permanent(err)
		}
		if slices.Equal(ev.Attendees, next.Attendees) && !grows(ev.VisibleTo, next.VisibleTo) {
			return ev, nil
		}

		out, err := a.Commit(ctx, eventID, ev.Revision, next.Attendees, next.VisibleTo)
		if err != nil && !retryable(err) {
			return domain.Event{}, backoff.Permanent(err)
		}
		return out, err
	}, a.backOff(ctx, a.maxRetries()), func(err error, wait time.Duration) {
		log.Info("event mutation retrying", "err", err, "wait", wait)
	})
}

// grows reports whether next holds a member missing from prev.
func grows(prev, next []string) bool {
	for _, id := range next {
		if !slices.Contains(prev, id) {
			return true
		}
	}
	return false
}

// CreateNotification stores n and wakes the recipient's queue.
func (a *Adapter) CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	if err := a.Store.Notifications().CreateNotification(context.WithoutCancel(ctx), n); err != nil {
		return domain.Notification{}, storeErr("create notification", err)
	}
	a.Feed.Publish(NotificationTopic(n.RecipientID))
	return n, nil
}

// FindPending reports the recipient's pending invitation for an event.
func (a *Adapter) FindPending(ctx context.Context, eventID, recipientID string) (domain.Notification, bool, error) {
	n, err := a.Store.Notifications().FindPending(ctx, eventID, recipientID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.Notification{}, false, nil
	case err != nil:
		return domain.Notification{}, false, storeErr("find notification", err)
	}
	return n, true, nil
}

// GetNotification reads one notification.
func (a *Adapter) GetNotification(ctx context.Context, id string) (domain.Notification, error) {
	n, err := a.Store.Notifications().GetNotification(ctx, id)
	if err != nil {
		return domain.Notification{}, storeErr("read notification", err)
	}
	return n, nil
}

// ResolveNotification marks n resolved and then deletes it. The two steps
// are separate writes; a resolved notification left behind is invisible to
// the queue and removed by housekeeping.
func (a *Adapter) ResolveNotification(ctx context.Context, n domain.Notification) error {
	ctx = context.WithoutCancel(ctx)
	defer a.Feed.Publish(NotificationTopic(n.RecipientID))

	if err := a.Store.Notifications().ResolveNotification(ctx, n.ID, a.Now()); err != nil {
		return storeErr("resolve notification", err)
	}
	if err := a.Store.Notifications().DeleteNotification(ctx, n.ID); err != nil {
		slogx.FromContext(ctx).Warn("resolved notification not deleted", "notification_id", n.ID, "err", err)
	}
	return nil
}

// GetAccount reads one account from the directory.
func (a *Adapter) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	acct, err := a.Store.Accounts().GetAccount(ctx, id)
	if err != nil {
		return domain.Account{}, storeErr("get account", err)
	}
	return acct, nil
}

// LookupAccountByPhone resolves phone variants against the account
// directory.
func (a *Adapter) LookupAccountByPhone(ctx context.Context, variants []string) (domain.Account, error) {
	acct, err := a.Store.Accounts().LookupAccountByPhone(ctx, variants)
	if err != nil {
		return domain.Account{}, storeErr("lookup account", err)
	}
	return acct, nil
}
