package http

import (
	"encoding/json"
	"net/http"

	"github.com/fieldgate/provision/internal/provision/service"
	"github.com/fieldgate/provision/pkg/httpx"
)

type RegistrationCompleteHandler struct {
	InviteService *service.InviteService
}

type registrationCompleteRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

type registrationCompleteResponse struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Status    string `json:"status"`
}

// ServeHTTP redeems an invitation: the user sets a password and the account
// flips to active. The token is single use; it dies here either way.
func (h *RegistrationCompleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registrationCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	acct, err := h.InviteService.CompleteRegistration(ctx, req.Email, req.Token, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, registrationCompleteResponse{
		AccountID: acct.ID,
		Email:     acct.Email,
		Status:    string(acct.Status),
	})
}
