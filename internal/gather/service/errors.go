package service

import (
	"errors"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/internal/gather/store"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrAccountNotFound = errors.New("account not found")
	ErrLinkNotFound    = errors.New("invite link not found")
)

// mapStoreErr converts direct store reads into the domain taxonomy.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domain.ErrNotFound
	default:
		return err
	}
}
