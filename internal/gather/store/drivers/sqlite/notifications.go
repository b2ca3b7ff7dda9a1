package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/internal/gather/store"
)

type notificationsRepo struct {
	db dbtx
}

const notificationColumns = `id, event_id, event_name, recipient_id, kind, status, from_display_name, created_at, updated_at`

func scanNotification(row interface{ Scan(...any) error }) (domain.Notification, error) {
	var (
		n                domain.Notification
		kind, status     string
		created, updated int64
	)
	err := row.Scan(&n.ID, &n.EventID, &n.EventName, &n.RecipientID, &kind, &status, &n.FromDisplayName, &created, &updated)
	if err != nil {
		return domain.Notification{}, mapErr(err)
	}
	n.Kind = domain.NotificationKind(kind)
	n.Status = domain.NotificationStatus(status)
	n.CreatedAt = fromMillis(created)
	n.UpdatedAt = fromMillis(updated)
	return n, nil
}

func (r *notificationsRepo) CreateNotification(ctx context.Context, n domain.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (`+notificationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.EventID, n.EventName, n.RecipientID, string(n.Kind), string(n.Status), n.FromDisplayName,
		toMillis(n.CreatedAt), toMillis(n.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *notificationsRepo) GetNotification(ctx context.Context, id string) (domain.Notification, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if err != nil {
		return domain.Notification{}, mapErr(err)
	}
	return n, nil
}

func (r *notificationsRepo) ListPendingForRecipient(ctx context.Context, recipientID string) ([]domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE recipient_id = ? AND status = ?
		 ORDER BY created_at, id`,
		recipientID, string(domain.NotificationPending),
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, n)
	}
	return out, mapErr(rows.Err())
}

func (r *notificationsRepo) FindPending(ctx context.Context, eventID, recipientID string) (domain.Notification, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE event_id = ? AND recipient_id = ? AND status = ?
		 ORDER BY created_at LIMIT 1`,
		eventID, recipientID, string(domain.NotificationPending),
	)
	n, err := scanNotification(row)
	if err != nil {
		return domain.Notification{}, mapErr(err)
	}
	return n, nil
}

func (r *notificationsRepo) ResolveNotification(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET status = ?, updated_at = ? WHERE id = ?`,
		string(domain.NotificationResolved), toMillis(at), id,
	)
	if err != nil {
		return mapErr(err)
	}
	return requireOne(res)
}

func (r *notificationsRepo) DeleteNotification(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return mapErr(err)
	}
	return requireOne(res)
}

func (r *notificationsRepo) DeleteResolvedBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE status = ? AND updated_at < ?`,
		string(domain.NotificationResolved), toMillis(before),
	)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.RowsAffected()
}

func requireOne(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
