package gathersdk

import "time"

// ============================================================================
// Error and Health Types
// ============================================================================

// ErrorResponse is the JSON error envelope returned by every endpoint.
type ErrorResponse struct {
	// Error is a short machine-readable code such as "not_found".
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error.
	ErrorDescription string `json:"error_description,omitempty"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each dependency checked by /readyz.
type HealthChecks struct {
	Database string `json:"database"`
}

// ============================================================================
// Account Types
// ============================================================================

// RegisterRequest creates an account. Phone is optional; without it the
// account can only be matched by id.
type RegisterRequest struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone,omitempty"`
}

// RegisterResponse carries the new account and a bearer token for it.
type RegisterResponse struct {
	Account     Account `json:"account"`
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   int     `json:"expires_in"`
}

type Account struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Phone       string    `json:"phone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ============================================================================
// Event Types
// ============================================================================

// RSVP statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusMaybe     = "maybe"
	StatusDeclined  = "declined"
)

type CreateEventRequest struct {
	Name string `json:"name"`
}

// Event is the full attendance document.
type Event struct {
	ID        string     `json:"id"`
	CreatorID string     `json:"creator_id"`
	Name      string     `json:"name"`
	Attendees []Attendee `json:"attendees"`
	VisibleTo []string   `json:"visible_to"`
	Revision  int64      `json:"revision"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Attendee is one guest record. At least one of AccountID and Phone is set.
type Attendee struct {
	AccountID   string    `json:"account_id,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Status      string    `json:"status"`
	Source      string    `json:"source"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type EventsResponse struct {
	Events []Event `json:"events"`
}

// Contact is an entry picked from the device address book.
type Contact struct {
	DisplayName string `json:"display_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	AccountID   string `json:"account_id,omitempty"`
}

type AddAttendeesRequest struct {
	Contacts []Contact `json:"contacts"`
}

type AddAttendeesResponse struct {
	Event Event `json:"event"`
	Added int   `json:"added"`
}

type RsvpRequest struct {
	Status string `json:"status"`
}

// ============================================================================
// Invitation Types
// ============================================================================

type InviteRequest struct {
	Contacts []Contact `json:"contacts"`
}

// Dispatch outcomes.
const (
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "unmatched"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// DispatchResult reports what happened to one invited contact.
type DispatchResult struct {
	Contact        Contact `json:"contact"`
	Outcome        string  `json:"outcome"`
	AccountID      string  `json:"account_id,omitempty"`
	NotificationID string  `json:"notification_id,omitempty"`
	Error          string  `json:"error,omitempty"`
}

type InviteResponse struct {
	Event   Event            `json:"event"`
	Results []DispatchResult `json:"results"`
}

// MintLinkRequest creates a shareable link. A zero TTL uses the server
// default.
type MintLinkRequest struct {
	TTLSeconds int  `json:"ttl_seconds,omitempty"`
	Reusable   bool `json:"reusable,omitempty"`
}

// MintLinkResponse carries the raw token. It is never shown again.
type MintLinkResponse struct {
	LinkID    string    `json:"link_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Reusable  bool      `json:"reusable"`
}

// RedeemLinkRequest answers the link's event. An empty status means
// confirmed.
type RedeemLinkRequest struct {
	Token  string `json:"token"`
	Status string `json:"status,omitempty"`
}

// ============================================================================
// Notification Types
// ============================================================================

type Notification struct {
	ID              string    `json:"id"`
	EventID         string    `json:"event_id"`
	EventName       string    `json:"event_name"`
	Kind            string    `json:"kind"`
	Status          string    `json:"status"`
	FromDisplayName string    `json:"from_display_name,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type NotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
}

// RespondRequest answers an invitation. An empty status means confirmed.
type RespondRequest struct {
	Status string `json:"status,omitempty"`
}
