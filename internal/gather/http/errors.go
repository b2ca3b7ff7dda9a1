package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/internal/gather/service"
	"github.com/aussiebroadwan/gather/pkg/gathersdk"
	"github.com/aussiebroadwan/gather/pkg/httpx"
	"github.com/aussiebroadwan/gather/pkg/slogx"
)

// apiError maps a service error to its status, code and description.
func apiError(err error) (int, gathersdk.ErrorResponse) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, errBody(gathersdk.ErrorCodeInvalidRequest, "the request is malformed or missing required fields")
	case errors.Is(err, domain.ErrIdentityRequired):
		return http.StatusBadRequest, errBody(gathersdk.ErrorCodeIdentityRequired, "the caller has neither an account nor a phone number")
	case errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest, errBody(gathersdk.ErrorCodeInvalidStatus, "status must be confirmed, maybe or declined")
	case errors.Is(err, domain.ErrInvalidContact):
		return http.StatusBadRequest, errBody(gathersdk.ErrorCodeInvalidContact, "every contact needs a phone number or an account id")
	case errors.Is(err, service.ErrAccountNotFound):
		return http.StatusNotFound, errBody(gathersdk.ErrorCodeNotFound, "account not found")
	case errors.Is(err, service.ErrLinkNotFound):
		return http.StatusNotFound, errBody(gathersdk.ErrorCodeNotFound, "invite link not found")
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errBody(gathersdk.ErrorCodeNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errBody(gathersdk.ErrorCodeForbidden, "only the event creator may do this")
	case errors.Is(err, domain.ErrCreatorNotAttendee):
		return http.StatusConflict, errBody(gathersdk.ErrorCodeCreatorNotAttendee, "the creator cannot respond to their own event")
	case errors.Is(err, domain.ErrAmbiguousIdentity):
		return http.StatusConflict, errBody(gathersdk.ErrorCodeAmbiguousIdentity, "more than one attendee matches; use an account id")
	case errors.Is(err, domain.ErrLinkExpired):
		return http.StatusGone, errBody(gathersdk.ErrorCodeLinkExpired, "invite link expired or already used")
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, errBody(gathersdk.ErrorCodeConflict, "the event changed concurrently, try again")
	case errors.Is(err, domain.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, errBody(gathersdk.ErrorCodeUnavailable, "the store is temporarily unavailable")
	default:
		return http.StatusInternalServerError, errBody(gathersdk.ErrorCodeServerError, "internal server error")
	}
}

func errBody(code, desc string) gathersdk.ErrorResponse {
	return gathersdk.ErrorResponse{Error: code, ErrorDescription: desc}
}

// writeServiceError writes err as a JSON error body. Server errors are
// logged with the failed action.
func writeServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	status, body := apiError(err)
	if status >= http.StatusInternalServerError {
		slogx.FromContext(r.Context()).Error("failed to "+action, "err", err)
	}
	httpx.WriteJSON(w, status, body)
}

func writeBadRequest(w http.ResponseWriter, desc string) {
	httpx.WriteJSON(w, http.StatusBadRequest, errBody(gathersdk.ErrorCodeInvalidRequest, desc))
}

func writeUnauthenticated(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusUnauthorized, errBody(gathersdk.ErrorCodeInvalidToken, "the access token is missing or invalid"))
}
