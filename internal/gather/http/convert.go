package http

import (
	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/pkg/gathersdk"
)

func toAccount(a domain.Account) gathersdk.Account {
	return gathersdk.Account{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		Phone:       a.Phone,
		CreatedAt:   a.CreatedAt,
	}
}

func toEvent(ev domain.Event) gathersdk.Event {
	out := gathersdk.Event{
		ID:        ev.ID,
		CreatorID: ev.CreatorID,
		Name:      ev.Name,
		Attendees: make([]gathersdk.Attendee, 0, len(ev.Attendees)),
		VisibleTo: append([]string{}, ev.VisibleTo...),
		Revision:  ev.Revision,
		CreatedAt: ev.CreatedAt,
		UpdatedAt: ev.UpdatedAt,
	}
	for _, rec := range ev.Attendees {
		out.Attendees = append(out.Attendees, gathersdk.Attendee{
			AccountID:   rec.Identity.Account,
			Phone:       rec.Identity.Phone,
			DisplayName: rec.DisplayName,
			Status:      string(rec.Status),
			Source:      string(rec.Source),
			UpdatedAt:   rec.UpdatedAt,
		})
	}
	return out
}

func toEvents(events []domain.Event) gathersdk.EventsResponse {
	out := gathersdk.EventsResponse{Events: make([]gathersdk.Event, 0, len(events))}
	for _, ev := range events {
		out.Events = append(out.Events, toEvent(ev))
	}
	return out
}

func toNotifications(ns []domain.Notification) gathersdk.NotificationsResponse {
	out := gathersdk.NotificationsResponse{Notifications: make([]gathersdk.Notification, 0, len(ns))}
	for _, n := range ns {
		out.Notifications = append(out.Notifications, gathersdk.Notification{
			ID:              n.ID,
			EventID:         n.EventID,
			EventName:       n.EventName,
			Kind:            string(n.Kind),
			Status:          string(n.Status),
			FromDisplayName: n.FromDisplayName,
			CreatedAt:       n.CreatedAt,
		})
	}
	return out
}

func fromContacts(in []gathersdk.Contact) []domain.Contact {
	out := make([]domain.Contact, 0, len(in))
	for _, c := range in {
		out = append(out, domain.Contact{DisplayName: c.DisplayName, Phone: c.Phone, AccountID: c.AccountID})
	}
	return out
}

func toDispatchResults(results []domain.DispatchResult) []gathersdk.DispatchResult {
	out := make([]gathersdk.DispatchResult, 0, len(results))
	for _, res := range results {
		r := gathersdk.DispatchResult{
			Contact: gathersdk.Contact{
				DisplayName: res.Candidate.DisplayName,
				Phone:       res.Candidate.Phone,
				AccountID:   res.Candidate.AccountID,
			},
			Outcome:        string(res.Outcome),
			AccountID:      res.AccountID,
			NotificationID: res.NotificationID,
		}
		if res.Err != nil {
			_, body := apiError(res.Err)
			r.Error = body.Error
		}
		out = append(out, r)
	}
	return out
}

// parseStatus reads an optional wire status. Empty means the caller's
// default.
func parseStatus(s string) (domain.RsvpStatus, error) {
	if s == "" {
		return "", nil
	}
	return domain.ParseRsvpStatus(s)
}
