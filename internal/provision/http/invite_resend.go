package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fieldgate/provision/internal/provision/service"
	"github.com/fieldgate/provision/pkg/httpx"
)

type InviteResendHandler struct {
	InviteService *service.InviteService
	LinkTemplate  string
}

type inviteResendRequest struct {
	Email string `json:"email"`
}

// ServeHTTP rotates the invite token of a pending account and re-sends the
// invitation email.
func (h *InviteResendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req inviteResendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	acct, err := h.InviteService.Reinvite(ctx, req.Email, h.LinkTemplate)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, inviteIssueResponse{
		AccountID: acct.ID,
		Email:     acct.Email,
		Status:    string(acct.Status),
		ExpiresAt: acct.InviteTokenExpiry.UTC().Format(time.RFC3339),
	})
}
