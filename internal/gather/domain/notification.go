package domain

import "time"

type NotificationKind string

const NotificationInvitation NotificationKind = "invitation"

type NotificationStatus string

const (
	NotificationPending  NotificationStatus = "pending"
	NotificationResolved NotificationStatus = "resolved"
)

type Notification struct {
	ID              string
	EventID         string
	EventName       string
	RecipientID     string
	Kind            NotificationKind
	Status          NotificationStatus
	FromDisplayName string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
