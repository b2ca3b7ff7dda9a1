package domain

import "time"

// InviteLink is a shareable link into an event. Only the token fingerprint
// is stored.
type InviteLink struct {
	ID        string
	EventID   string
	TokenHash string
	CreatedBy string
	ExpiresAt time.Time
	Reusable  bool
	Used      bool
	UsedBy    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Redeemable reports whether the link can still be used at now.
func (l InviteLink) Redeemable(now time.Time) bool {
	if now.After(l.ExpiresAt) {
		return false
	}
	return l.Reusable || !l.Used
}
