// Package identity turns raw phone strings and account ids into IdentityKeys
// and decides when two keys name the same person. Everything here is pure.
package identity

import (
	"slices"
	"strings"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
)

// Normalizer knows one national numbering plan: numbers written with
// CountryCode and numbers written with the TrunkPrefix are equivalent.
type Normalizer struct {
	CountryCode string
	TrunkPrefix string
}

// Default is the Ecuadorian plan (+593 / 0).
var Default = Normalizer{CountryCode: "593", TrunkPrefix: "0"}

// Digits strips every non-digit rune.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone builds a phone-only key.
func (n Normalizer) NormalizePhone(raw string) domain.IdentityKey {
	return domain.IdentityKey{Phone: Digits(raw)}
}

// NormalizeAccount builds a key for an authenticated account. The phone, if
// known, lets the key match records that were added by phone.
func (n Normalizer) NormalizeAccount(accountID, phone string) domain.IdentityKey {
	return domain.IdentityKey{Account: strings.TrimSpace(accountID), Phone: Digits(phone)}
}

// Resolve derives the key for an acting identity.
func (n Normalizer) Resolve(acting domain.ActingIdentity) (domain.IdentityKey, error) {
	key := n.NormalizeAccount(acting.AccountID, acting.Phone)
	if key.IsZero() {
		return domain.IdentityKey{}, domain.ErrIdentityRequired
	}
	return key, nil
}

// FromContact derives the key for a contact picker entry.
func (n Normalizer) FromContact(c domain.Contact) (domain.IdentityKey, error) {
	key := n.NormalizeAccount(c.AccountID, c.Phone)
	if key.IsZero() {
		return domain.IdentityKey{}, domain.ErrInvalidContact
	}
	return key, nil
}

// PhoneVariants returns the sorted equivalent spellings of a phone number.
func (n Normalizer) PhoneVariants(raw string) []string {
	digits := Digits(raw)
	if digits == "" {
		return nil
	}

	out := []string{digits}
	if rest, ok := strings.CutPrefix(digits, n.CountryCode); ok && n.CountryCode != "" && rest != "" {
		out = append(out, n.TrunkPrefix+rest)
	}
	if rest, ok := strings.CutPrefix(digits, n.TrunkPrefix); ok && n.TrunkPrefix != "" && rest != "" {
		out = append(out, n.CountryCode+rest)
	}

	slices.Sort(out)
	return slices.Compact(out)
}

// Variants returns every string the key may have been stored under.
func (n Normalizer) Variants(key domain.IdentityKey) []string {
	out := n.PhoneVariants(key.Phone)
	if key.Account != "" {
		out = append(out, key.Account)
		slices.Sort(out)
		out = slices.Compact(out)
	}
	return out
}

// Match reports whether a and b identify the same person. Two distinct
// accounts never match, even if they share a phone number.
func (n Normalizer) Match(a, b domain.IdentityKey) bool {
	if a.Account != "" && b.Account != "" {
		return a.Account == b.Account
	}
	if a.Phone == "" || b.Phone == "" {
		return false
	}

	bv := n.PhoneVariants(b.Phone)
	for _, v := range n.PhoneVariants(a.Phone) {
		if _, found := slices.BinarySearch(bv, v); found {
			return true
		}
	}
	return false
}

// Package-level helpers use Default.

func Resolve(acting domain.ActingIdentity) (domain.IdentityKey, error) {
	return Default.Resolve(acting)
}

func Variants(key domain.IdentityKey) []string { return Default.Variants(key) }

func Match(a, b domain.IdentityKey) bool { return Default.Match(a, b) }
