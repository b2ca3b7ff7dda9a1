package domain

// IdentityKey identifies a human participant. Account is an authenticated
// account id; Phone is canonical digits. Either may be empty but not both.
type IdentityKey struct {
	Account string
	Phone   string
}

// Canonical is the preferred single-string form of the key.
func (k IdentityKey) Canonical() string {
	if k.Account != "" {
		return k.Account
	}
	return k.Phone
}

func (k IdentityKey) IsZero() bool { return k.Account == "" && k.Phone == "" }

func (k IdentityKey) String() string { return k.Canonical() }

// ActingIdentity is whoever is performing a reconciliation call. It is
// passed explicitly; nothing in the core reads an ambient current user.
type ActingIdentity struct {
	AccountID   string
	DisplayName string
	Phone       string
}
