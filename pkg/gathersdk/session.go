package gathersdk

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Session performs operations as one account.
type Session struct {
	client      *SDKClient
	accessToken string

	// Account is populated when the Session came from Register.
	Account Account
}

// AccessToken returns the bearer token the session sends.
func (s *Session) AccessToken() string { return s.accessToken }

func (s *Session) call(ctx context.Context, method, path string, payload, out any, expectedStatus int) error {
	resp, err := s.client.doJSON(ctx, method, path, s.accessToken, payload)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out, expectedStatus)
}

// Me returns the session's account.
func (s *Session) Me(ctx context.Context) (*Account, error) {
	var out Account
	if err := s.call(ctx, http.MethodGet, "/v1/me", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) CreateEvent(ctx context.Context, name string) (*Event, error) {
	var out Event
	if err := s.call(ctx, http.MethodPost, "/v1/events", CreateEventRequest{Name: name}, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListEvents returns events the account created or answered yes or maybe to.
func (s *Session) ListEvents(ctx context.Context) ([]Event, error) {
	var out EventsResponse
	if err := s.call(ctx, http.MethodGet, "/v1/events", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Events, nil
}

func (s *Session) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	var out Event
	if err := s.call(ctx, http.MethodGet, eventPath(eventID, ""), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddAttendees imports contacts as pending attendees without notifying them.
func (s *Session) AddAttendees(ctx context.Context, eventID string, contacts []Contact) (*AddAttendeesResponse, error) {
	var out AddAttendeesResponse
	if err := s.call(ctx, http.MethodPost, eventPath(eventID, "/attendees"), AddAttendeesRequest{Contacts: contacts}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveAttendee drops an attendee by account id or phone number.
func (s *Session) RemoveAttendee(ctx context.Context, eventID, identity string) (*Event, error) {
	var out Event
	path := eventPath(eventID, "/attendees/"+url.PathEscape(identity))
	if err := s.call(ctx, http.MethodDelete, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Respond records the account's own answer on an event.
func (s *Session) Respond(ctx context.Context, eventID, status string) (*Event, error) {
	var out Event
	if err := s.call(ctx, http.MethodPut, eventPath(eventID, "/rsvp"), RsvpRequest{Status: status}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Invite adds contacts and notifies those with accounts.
func (s *Session) Invite(ctx context.Context, eventID string, contacts []Contact) (*InviteResponse, error) {
	var out InviteResponse
	if err := s.call(ctx, http.MethodPost, eventPath(eventID, "/invitations"), InviteRequest{Contacts: contacts}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// MintLink creates a shareable link. A zero ttl uses the server default.
func (s *Session) MintLink(ctx context.Context, eventID string, ttl time.Duration, reusable bool) (*MintLinkResponse, error) {
	var out MintLinkResponse
	req := MintLinkRequest{TTLSeconds: int(ttl / time.Second), Reusable: reusable}
	if err := s.call(ctx, http.MethodPost, eventPath(eventID, "/links"), req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// RedeemLink answers the link's event. An empty status means confirmed.
func (s *Session) RedeemLink(ctx context.Context, token, status string) (*Event, error) {
	var out Event
	if err := s.call(ctx, http.MethodPost, "/v1/links/redeem", RedeemLinkRequest{Token: token, Status: status}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Notifications returns the account's pending invitations.
func (s *Session) Notifications(ctx context.Context) ([]Notification, error) {
	var out NotificationsResponse
	if err := s.call(ctx, http.MethodGet, "/v1/notifications", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

// RespondToNotification answers an invitation and clears it.
func (s *Session) RespondToNotification(ctx context.Context, notificationID, status string) (*Event, error) {
	var out Event
	path := "/v1/notifications/" + url.PathEscape(notificationID) + "/respond"
	if err := s.call(ctx, http.MethodPost, path, RespondRequest{Status: status}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func eventPath(eventID, suffix string) string {
	return "/v1/events/" + url.PathEscape(eventID) + suffix
}
