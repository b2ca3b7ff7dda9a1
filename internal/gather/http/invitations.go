package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/gather/internal/gather/service"
	"github.com/aussiebroadwan/gather/pkg/gathersdk"
	"github.com/aussiebroadwan/gather/pkg/httpx"
)

type InvitationsHandler struct {
	InvitationService *service.InvitationService
}

// HandleInvite adds contacts and notifies the ones with accounts. The
// response lists one result per contact, in request order.
func (h *InvitationsHandler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	acting, ok := actingIdentity(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req gathersdk.InviteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ev, results, err := h.InvitationService.Invite(r.Context(), acting, r.PathValue("id"), fromContacts(req.Contacts))
	if err != nil {
		writeServiceError(w, r, "invite contacts", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gathersdk.InviteResponse{
		Event:   toEvent(ev),
		Results: toDispatchResults(results),
	})
}

func (h *InvitationsHandler) HandleMintLink(w http.ResponseWriter, r *http.Request) {
	acting, ok := actingIdentity(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req gathersdk.MintLinkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.TTLSeconds < 0 {
		writeBadRequest(w, "ttl_seconds must not be negative")
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	token, link, err := h.InvitationService.MintLink(r.Context(), acting, r.PathValue("id"), ttl, req.Reusable)
	if err != nil {
		writeServiceError(w, r, "mint link", err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, gathersdk.MintLinkResponse{
		LinkID:    link.ID,
		Token:     token,
		ExpiresAt: link.ExpiresAt,
		Reusable:  link.Reusable,
	})
}

func (h *InvitationsHandler) HandleRedeemLink(w http.ResponseWriter, r *http.Request) {
	acting, ok := actingIdentity(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req gathersdk.RedeemLinkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		writeServiceError(w, r, "redeem link", err)
		return
	}

	ev, err := h.InvitationService.RedeemLink(r.Context(), acting, req.Token, status)
	if err != nil {
		writeServiceError(w, r, "redeem link", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toEvent(ev))
}
