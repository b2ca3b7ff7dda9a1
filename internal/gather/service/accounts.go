package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/internal/gather/identity"
	"github.com/aussiebroadwan/gather/internal/gather/store"
	"github.com/aussiebroadwan/gather/pkg/jwtx"
	"github.com/aussiebroadwan/gather/pkg/slogx"
)

// AccountService is the minimal identity directory: it registers accounts
// with an optional phone number and issues bearer tokens for them.
type AccountService struct {
	Store      store.Store
	Normalizer identity.Normalizer
	Signer     *jwtx.Signer
	Issuer     string
	TokenTTL   time.Duration
	NewID      func() string
	Now        func() time.Time
}

// Register creates an account and returns it with a fresh access token.
func (s *AccountService) Register(ctx context.Context, displayName, phone string) (domain.Account, string, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return domain.Account{}, "", ErrInvalidRequest
	}
	digits := identity.Digits(phone)
	if phone != "" && digits == "" {
		return domain.Account{}, "", ErrInvalidRequest
	}

	// 2. Store the account and the phone spellings it answers to
	now := s.Now()
	acct := domain.Account{
		ID:          s.NewID(),
		DisplayName: displayName,
		Phone:       digits,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Accounts().CreateAccount(ctx, acct, s.Normalizer.PhoneVariants(digits))
	})
	if err != nil {
		log.Error("failed to create account", slog.Any("error", err))
		return domain.Account{}, "", err
	}

	// 3. Issue a token
	token, err := s.IssueToken(acct)
	if err != nil {
		log.Error("failed to sign token", slog.String("account_id", acct.ID), slog.Any("error", err))
		return domain.Account{}, "", err
	}

	log.Info("account registered", slog.String("account_id", acct.ID), slog.Bool("has_phone", digits != ""))
	return acct, token, nil
}

// AccessTTL is the lifetime of issued tokens.
func (s *AccountService) AccessTTL() time.Duration {
	if s.TokenTTL <= 0 {
		return jwtx.DefaultAccessTokenTTL
	}
	return s.TokenTTL
}

// IssueToken signs an access token carrying the account's identity claims.
func (s *AccountService) IssueToken(acct domain.Account) (string, error) {
	return s.Signer.Sign(jwtx.NewAccessClaims(acct.ID, acct.DisplayName, acct.Phone, s.Issuer, s.AccessTTL(), s.Now()))
}

func (s *AccountService) Get(ctx context.Context, id string) (domain.Account, error) {
	acct, err := s.Store.Accounts().GetAccount(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, ErrAccountNotFound
	}
	return acct, err
}
