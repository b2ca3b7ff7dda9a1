package http

import (
	"net/http"

	"github.com/aussiebroadwan/gather/internal/gather/service"
	"github.com/aussiebroadwan/gather/pkg/gathersdk"
	"github.com/aussiebroadwan/gather/pkg/httpx"
)

type AccountsHandler struct {
	AccountService *service.AccountService
}

// HandleRegister creates an account and returns a bearer token for it.
func (h *AccountsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req gathersdk.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	acct, token, err := h.AccountService.Register(r.Context(), req.DisplayName, req.Phone)
	if err != nil {
		writeServiceError(w, r, "register account", err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, gathersdk.RegisterResponse{
		Account:     toAccount(acct),
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.AccountService.AccessTTL().Seconds()),
	})
}

func (h *AccountsHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	acting, ok := actingIdentity(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	acct, err := h.AccountService.Get(r.Context(), acting.AccountID)
	if err != nil {
		writeServiceError(w, r, "load account", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toAccount(acct))
}
