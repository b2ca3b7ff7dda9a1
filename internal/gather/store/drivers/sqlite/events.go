package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/internal/gather/store"
)

type eventsRepo struct {
	db dbtx
}

// attendeeDoc is the stored JSON shape of one attendee.
type attendeeDoc struct {
	Account     string    `json:"account,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	DisplayName string    `json:"display_name"`
	Status      string    `json:"status"`
	Source      string    `json:"source"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func encodeAttendees(list []domain.AttendeeRecord) (string, error) {
	docs := make([]attendeeDoc, 0, len(list))
	for _, a := range list {
		docs = append(docs, attendeeDoc{
			Account:     a.Identity.Account,
			Phone:       a.Identity.Phone,
			DisplayName: a.DisplayName,
			Status:      string(a.Status),
			Source:      string(a.Source),
			UpdatedAt:   a.UpdatedAt.UTC(),
		})
	}
	b, err := json.Marshal(docs)
	if err != nil {
		return "", fmt.Errorf("encode attendees: %w", err)
	}
	return string(b), nil
}

func decodeAttendees(raw string) ([]domain.AttendeeRecord, error) {
	var docs []attendeeDoc
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, fmt.Errorf("decode attendees: %w", err)
	}
	out := make([]domain.AttendeeRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.AttendeeRecord{
			Identity:    domain.IdentityKey{Account: d.Account, Phone: d.Phone},
			DisplayName: d.DisplayName,
			Status:      domain.RsvpStatus(d.Status),
			Source:      domain.Source(d.Source),
			UpdatedAt:   d.UpdatedAt,
		})
	}
	return out, nil
}

func (r *eventsRepo) CreateEvent(ctx context.Context, ev domain.Event) error {
	attendees, err := encodeAttendees(ev.Attendees)
	if err != nil {
		return mapErr(err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO events (id, creator_id, name, attendees, revision, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?)`,
		ev.ID, ev.CreatorID, ev.Name, attendees, toMillis(ev.CreatedAt), toMillis(ev.UpdatedAt),
	)
	return mapConstraint(err)
}

const eventColumns = `id, creator_id, name, attendees, revision, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (domain.Event, error) {
	var (
		ev               domain.Event
		attendees        string
		created, updated int64
	)
	if err := row.Scan(&ev.ID, &ev.CreatorID, &ev.Name, &attendees, &ev.Revision, &created, &updated); err != nil {
		return domain.Event{}, mapErr(err)
	}

	list, err := decodeAttendees(attendees)
	if err != nil {
		return domain.Event{}, mapErr(err)
	}
	ev.Attendees = list
	ev.CreatedAt = fromMillis(created)
	ev.UpdatedAt = fromMillis(updated)
	return ev, nil
}

func (r *eventsRepo) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if err != nil {
		return domain.Event{}, mapErr(err)
	}

	ev.VisibleTo, err = r.visibleTo(ctx, id)
	if err != nil {
		return domain.Event{}, mapErr(err)
	}
	return ev, nil
}

func (r *eventsRepo) visibleTo(ctx context.Context, eventID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT account_id FROM event_visibility WHERE event_id = ? ORDER BY added_at, account_id`, eventID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, id)
	}
	return out, mapErr(rows.Err())
}

func (r *eventsRepo) ListEventsForAccount(ctx context.Context, accountID string) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE creator_id = ?
		    OR id IN (SELECT event_id FROM event_visibility WHERE account_id = ?)
		 ORDER BY created_at DESC, id DESC`,
		accountID, accountID,
	)
	if err != nil {
		return nil, mapErr(err)
	}

	var out []domain.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			_ = rows.Close()
			return nil, mapErr(err)
		}
		out = append(out, ev)
	}
	if err := rows.Close(); err != nil {
		return nil, mapErr(err)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}

	// Rows must be closed first: the pool holds a single connection.
	for i := range out {
		if out[i].VisibleTo, err = r.visibleTo(ctx, out[i].ID); err != nil {
			return nil, mapErr(err)
		}
	}
	return out, nil
}

func (r *eventsRepo) ReplaceAttendees(ctx context.Context, eventID string, expected int64, attendees []domain.AttendeeRecord, at time.Time) (int64, error) {
	doc, err := encodeAttendees(attendees)
	if err != nil {
		return 0, mapErr(err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET attendees = ?, revision = revision + 1, updated_at = ?
		 WHERE id = ? AND revision = ?`,
		doc, toMillis(at), eventID, expected,
	)
	if err != nil {
		return 0, mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapErr(err)
	}
	if n == 1 {
		return expected + 1, nil
	}

	var current int64
	err = r.db.QueryRowContext(ctx, `SELECT revision FROM events WHERE id = ?`, eventID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, mapErr(err)
	}
	return current, store.ErrConflict
}

func (r *eventsRepo) AppendVisibleTo(ctx context.Context, eventID string, accountIDs []string, at time.Time) error {
	if len(accountIDs) == 0 {
		return nil
	}

	var (
		sb   strings.Builder
		args = make([]any, 0, len(accountIDs)*3)
	)
	sb.WriteString(`INSERT OR IGNORE INTO event_visibility (event_id, account_id, added_at) VALUES `)
	for i, id := range accountIDs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, eventID, id, toMillis(at))
	}

	_, err := r.db.ExecContext(ctx, sb.String(), args...)
	return mapErr(err)
}
