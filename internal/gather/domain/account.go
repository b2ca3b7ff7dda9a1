package domain

import "time"

type Account struct {
	ID          string
	DisplayName string
	Phone       string // canonical digits, may be empty
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Acting returns the account as the identity performing a call.
func (a Account) Acting() ActingIdentity {
	return ActingIdentity{AccountID: a.ID, DisplayName: a.DisplayName, Phone: a.Phone}
}

// Contact is a contact picker entry. AccountID is set when the picker already
// knows the contact is a registered user.
type Contact struct {
	DisplayName string
	Phone       string
	AccountID   string
}
