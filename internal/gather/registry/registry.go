// Package registry holds the per-event attendee list operations. Every
// operation takes a whole list and returns a new one; inputs are never
// mutated.
package registry

import (
	"slices"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/internal/gather/identity"
)

// Registry applies list operations under one numbering plan.
type Registry struct {
	Normalizer identity.Normalizer
}

// Default uses identity.Default.
var Default = Registry{Normalizer: identity.Default}

// Find returns the first record whose identity matches key.
func (g Registry) Find(list []domain.AttendeeRecord, key domain.IdentityKey) (domain.AttendeeRecord, bool) {
	for _, rec := range list {
		if g.Normalizer.Match(rec.Identity, key) {
			return rec, true
		}
	}
	return domain.AttendeeRecord{}, false
}

// Count reports how many records match key.
func (g Registry) Count(list []domain.AttendeeRecord, key domain.IdentityKey) int {
	n := 0
	for _, rec := range list {
		if g.Normalizer.Match(rec.Identity, key) {
			n++
		}
	}
	return n
}

// Upsert drops every record matching rec.Identity and appends rec.
func (g Registry) Upsert(list []domain.AttendeeRecord, rec domain.AttendeeRecord) []domain.AttendeeRecord {
	out := g.Remove(list, rec.Identity)
	return append(out, rec)
}

// Remove drops every record matching key.
func (g Registry) Remove(list []domain.AttendeeRecord, key domain.IdentityKey) []domain.AttendeeRecord {
	out := make([]domain.AttendeeRecord, 0, len(list)+1)
	for _, rec := range list {
		if !g.Normalizer.Match(rec.Identity, key) {
			out = append(out, rec)
		}
	}
	return out
}

// Dedupe collapses records naming the same person, keeping the most recently
// updated one. Order of first appearance is kept for the survivors.
func (g Registry) Dedupe(list []domain.AttendeeRecord) []domain.AttendeeRecord {
	out := make([]domain.AttendeeRecord, 0, len(list))
	for _, rec := range list {
		i := slices.IndexFunc(out, func(have domain.AttendeeRecord) bool {
			return g.Normalizer.Match(have.Identity, rec.Identity)
		})
		switch {
		case i < 0:
			out = append(out, rec)
		case rec.UpdatedAt.After(out[i].UpdatedAt):
			out[i] = rec
		}
	}
	return out
}

func Find(list []domain.AttendeeRecord, key domain.IdentityKey) (domain.AttendeeRecord, bool) {
	return Default.Find(list, key)
}

func Upsert(list []domain.AttendeeRecord, rec domain.AttendeeRecord) []domain.AttendeeRecord {
	return Default.Upsert(list, rec)
}

func Remove(list []domain.AttendeeRecord, key domain.IdentityKey) []domain.AttendeeRecord {
	return Default.Remove(list, key)
}

func Dedupe(list []domain.AttendeeRecord) []domain.AttendeeRecord {
	return Default.Dedupe(list)
}
