package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrConflict is returned by a guarded write whose expected revision no
	// longer matches the stored one.
	ErrConflict = errors.New("store: revision conflict")
	// ErrUnavailable wraps failures that may succeed on retry: a dropped
	// connection or a database that is busy or locked.
	ErrUnavailable = errors.New("store: unavailable")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose sub-repositories so a Tx-scoped store has exactly the same surface.
type Store interface {
	Events() Events
	Notifications() Notifications
	Accounts() Accounts
	Links() Links

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. Inside fn only the tx's repos
	// may be used.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Events interface {
	// CreateEvent inserts an event with revision 0 and no attendees.
	CreateEvent(ctx context.Context, ev domain.Event) error

	// GetEvent returns the full document including VisibleTo.
	GetEvent(ctx context.Context, id string) (domain.Event, error)

	// ListEventsForAccount returns events created by, or visible to, the
	// account, newest first.
	ListEventsForAccount(ctx context.Context, accountID string) ([]domain.Event, error)

	// ReplaceAttendees overwrites the whole attendee list when the stored
	// revision equals expected, and returns the new revision. A stale
	// expected revision yields ErrConflict along with the current revision.
	ReplaceAttendees(ctx context.Context, eventID string, expected int64, attendees []domain.AttendeeRecord, at time.Time) (int64, error)

	// AppendVisibleTo adds account ids to the visibility set. Existing
	// members are left alone; nothing is ever removed.
	AppendVisibleTo(ctx context.Context, eventID string, accountIDs []string, at time.Time) error
}

type Notifications interface {
	CreateNotification(ctx context.Context, n domain.Notification) error
	GetNotification(ctx context.Context, id string) (domain.Notification, error)

	// ListPendingForRecipient returns the recipient's queue, oldest first.
	ListPendingForRecipient(ctx context.Context, recipientID string) ([]domain.Notification, error)

	// FindPending returns the pending invitation for a recipient on an event.
	FindPending(ctx context.Context, eventID, recipientID string) (domain.Notification, error)

	ResolveNotification(ctx context.Context, id string, at time.Time) error
	DeleteNotification(ctx context.Context, id string) error

	// DeleteResolvedBefore removes resolved notifications whose delete
	// step never ran.
	DeleteResolvedBefore(ctx context.Context, before time.Time) (int64, error)
}

type Accounts interface {
	// CreateAccount inserts the account and the phone spellings it can be
	// found under.
	CreateAccount(ctx context.Context, a domain.Account, phoneVariants []string) error
	GetAccount(ctx context.Context, id string) (domain.Account, error)

	// LookupAccountByPhone returns the oldest account registered under any
	// of the variants.
	LookupAccountByPhone(ctx context.Context, variants []string) (domain.Account, error)
}

type Links interface {
	CreateLink(ctx context.Context, l domain.InviteLink) error
	GetLinkByTokenHash(ctx context.Context, hash string) (domain.InviteLink, error)

	// MarkLinkUsed records a redemption. Single-use links that are already
	// used yield ErrNotFound.
	MarkLinkUsed(ctx context.Context, id, usedBy string, at time.Time) error

	// ReleaseLink undoes usedBy's claim on a single-use link. A link that is
	// reusable, unused or claimed by someone else yields ErrNotFound.
	ReleaseLink(ctx context.Context, id, usedBy string, at time.Time) error

	DeleteExpiredLinks(ctx context.Context, now time.Time) (int64, error)
}
