package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
)

type linksRepo struct {
	db dbtx
}

func (r *linksRepo) CreateLink(ctx context.Context, l domain.InviteLink) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invite_links (id, event_id, token_hash, created_by, expires_at, reusable, used, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		l.ID, l.EventID, l.TokenHash, l.CreatedBy, toMillis(l.ExpiresAt), l.Reusable,
		toMillis(l.CreatedAt), toMillis(l.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *linksRepo) GetLinkByTokenHash(ctx context.Context, hash string) (domain.InviteLink, error) {
	var (
		l                         domain.InviteLink
		usedBy                    sql.NullString
		expires, created, updated int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, event_id, token_hash, created_by, expires_at, reusable, used, used_by, created_at, updated_at
		 FROM invite_links WHERE token_hash = ?`, hash,
	).Scan(&l.ID, &l.EventID, &l.TokenHash, &l.CreatedBy, &expires, &l.Reusable, &l.Used, &usedBy, &created, &updated)
	if err != nil {
		return domain.InviteLink{}, mapErr(err)
	}

	l.UsedBy = mapNullString(usedBy)
	l.ExpiresAt = fromMillis(expires)
	l.CreatedAt = fromMillis(created)
	l.UpdatedAt = fromMillis(updated)
	return l, nil
}

func (r *linksRepo) MarkLinkUsed(ctx context.Context, id, usedBy string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invite_links SET used = 1, used_by = ?, updated_at = ?
		 WHERE id = ? AND (reusable = 1 OR used = 0)`,
		mapStringNull(usedBy), toMillis(at), id,
	)
	if err != nil {
		return mapErr(err)
	}
	return requireOne(res)
}

func (r *linksRepo) ReleaseLink(ctx context.Context, id, usedBy string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invite_links SET used = 0, used_by = NULL, updated_at = ?
		 WHERE id = ? AND reusable = 0 AND used = 1 AND used_by IS ?`,
		toMillis(at), id, mapStringNull(usedBy),
	)
	if err != nil {
		return mapErr(err)
	}
	return requireOne(res)
}

func (r *linksRepo) DeleteExpiredLinks(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invite_links WHERE expires_at < ?`, toMillis(now))
	if err != nil {
		return 0, mapErr(err)
	}
	return res.RowsAffected()
}
