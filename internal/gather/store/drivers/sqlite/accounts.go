package sqlite

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/internal/gather/store"
)

type accountsRepo struct {
	db dbtx
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account, phoneVariants []string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, display_name, phone_digits, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.DisplayName, a.Phone, toMillis(a.CreatedAt), toMillis(a.UpdatedAt),
	)
	if err != nil {
		return mapConstraint(err)
	}

	for _, v := range phoneVariants {
		if _, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO account_phone_variants (account_id, variant) VALUES (?, ?)`, a.ID, v,
		); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var (
		a                domain.Account
		created, updated int64
	)
	if err := row.Scan(&a.ID, &a.DisplayName, &a.Phone, &created, &updated); err != nil {
		return domain.Account{}, mapErr(err)
	}
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	return a, nil
}

func (r *accountsRepo) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, display_name, phone_digits, created_at, updated_at FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapErr(err)
	}
	return a, nil
}

func (r *accountsRepo) LookupAccountByPhone(ctx context.Context, variants []string) (domain.Account, error) {
	if len(variants) == 0 {
		return domain.Account{}, store.ErrNotFound
	}

	args := make([]any, len(variants))
	for i, v := range variants {
		args[i] = v
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(variants)), ", ")

	row := r.db.QueryRowContext(ctx,
		`SELECT a.id, a.display_name, a.phone_digits, a.created_at, a.updated_at
		 FROM accounts a
		 JOIN account_phone_variants v ON v.account_id = a.id
		 WHERE v.variant IN (`+placeholders+`)
		 ORDER BY a.created_at, a.id
		 LIMIT 1`,
		args...,
	)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapErr(err)
	}
	return a, nil
}
