package http

import (
	"net/http"

	"github.com/aussiebroadwan/gather/internal/gather/service"
	"github.com/aussiebroadwan/gather/pkg/gathersdk"
	"github.com/aussiebroadwan/gather/pkg/httpx"
)

type EventsHandler struct {
	EventService *service.EventService
	RsvpService  *service.RsvpService
	Stream       StreamConfig
}

func (h *EventsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	acting, ok := actingIdentity(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req gathersdk.CreateEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ev, err := h.EventService.Create(r.Context(), acting, req.Name)
	if err != nil {
		writeServiceError(w, r, "create event", err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toEvent(ev))
}

// HandleList returns events the caller created or answered yes or maybe to.
func (h *EventsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	acting, ok := actingIdentity(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	events, err := h.EventService.List(r.Context(), acting)
	if err != nil {
		writeServiceError(w, r, "list events", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toEvents(events))
}

func (h *EventsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	acting, ok := actingIdentity(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	ev, err := h.EventService.Get(r.Context(), acting, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "load event", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toEvent(ev))
}

// HandleStream serves live snapshots of one event as server-sent events.
func (h *EventsHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	acting, ok := actingIdentity(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	seq, err := h.EventService.Watch(r.Context(), acting, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "watch event", err)
		return
	}

	serveStream(w, r, h.Stream, seq, gathersdk.StreamEventSnapshot, toEvent)
}

// HandleAddAttendees imports contacts as pending attendees. Nobody is
// notified; see the invitations endpoint for that.
func (h *EventsHandler) HandleAddAttendees(w http.ResponseWriter, r *http.Request) {
	acting, ok := actingIdentity(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req gathersdk.AddAttendeesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ev, added, err := h.EventService.AddContacts(r.Context(), acting, r.PathValue("id"), fromContacts(req.Contacts))
	if err != nil {
		writeServiceError(w, r, "add attendees", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gathersdk.AddAttendeesResponse{Event: toEvent(ev), Added: added})
}

func (h *EventsHandler) HandleRemoveAttendee(w http.ResponseWriter, r *http.Request) {
	acting, ok := actingIdentity(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	ev, err := h.EventService.RemoveAttendee(r.Context(), acting, r.PathValue("id"), r.PathValue("identity"))
	if err != nil {
		writeServiceError(w, r, "remove attendee", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toEvent(ev))
}

// HandleRsvp records the caller's own answer.
func (h *EventsHandler) HandleRsvp(w http.ResponseWriter, r *http.Request) {
	acting, ok := actingIdentity(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req gathersdk.RsvpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Status == "" {
		writeBadRequest(w, "status is required")
		return
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		writeServiceError(w, r, "record rsvp", err)
		return
	}

	ev, err := h.RsvpService.Respond(r.Context(), acting, r.PathValue("id"), status)
	if err != nil {
		writeServiceError(w, r, "record rsvp", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toEvent(ev))
}
