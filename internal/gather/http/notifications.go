package http

import (
	"net/http"

	"github.com/aussiebroadwan/gather/internal/gather/service"
	"github.com/aussiebroadwan/gather/pkg/gathersdk"
	"github.com/aussiebroadwan/gather/pkg/httpx"
)

type NotificationsHandler struct {
	RsvpService *service.RsvpService
	Stream      StreamConfig
}

func (h *NotificationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	acting, ok := actingIdentity(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	ns, err := h.RsvpService.Notifications(r.Context(), acting)
	if err != nil {
		writeServiceError(w, r, "list notifications", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toNotifications(ns))
}

func (h *NotificationsHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	acting, ok := actingIdentity(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	seq, err := h.RsvpService.WatchNotifications(r.Context(), acting)
	if err != nil {
		writeServiceError(w, r, "watch notifications", err)
		return
	}

	serveStream(w, r, h.Stream, seq, gathersdk.StreamNotificationsFrame, toNotifications)
}

// HandleRespond accepts or declines an invitation. An empty body status
// accepts.
func (h *NotificationsHandler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	acting, ok := actingIdentity(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req gathersdk.RespondRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		writeServiceError(w, r, "respond to invitation", err)
		return
	}

	ev, err := h.RsvpService.RespondToNotification(r.Context(), acting, r.PathValue("id"), status)
	if err != nil {
		writeServiceError(w, r, "respond to invitation", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toEvent(ev))
}
