package http

import (
	"net/http"

	"github.com/fieldgate/provision/internal/provision/service"
	"github.com/fieldgate/provision/pkg/httpx"
)

type InviteVerifyHandler struct {
	InviteService *service.InviteService
}

type inviteVerifyResponse struct {
	Email        string `json:"email"`
	Organisation string `json:"organisation"`
	Token        string `json:"token"`
}

// ServeHTTP checks whether an acceptance link is still redeemable. This is
// the landing check behind the emailed link, so it is public.
func (h *InviteVerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	summary, err := h.InviteService.VerifyInvitedAccount(r.Context(), q.Get("email"), q.Get("token"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, inviteVerifyResponse{
		Email:        summary.Email,
		Organisation: summary.OrganisationName,
		Token:        summary.Token,
	})
}
