package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fieldgate/provision/internal/provision/domain"
	"github.com/fieldgate/provision/internal/provision/service"
	"github.com/fieldgate/provision/pkg/httpx"
)

type InviteIssueHandler struct {
	InviteService *service.InviteService
	LinkTemplate  string
}

type inviteIssueRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	OrgKind     string `json:"org_kind"`
	OrgID       string `json:"org_id"`
}

type inviteIssueResponse struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expires_at"`
}

// ServeHTTP issues an invitation to an external user on behalf of the
// authenticated staff member.
func (h *InviteIssueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req inviteIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	kind, err := domain.ParseOrgKind(req.OrgKind)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "org_kind must be owner_org or agency")
		return
	}

	inviterID := httpx.UserIDFromCtx(ctx)
	if inviterID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	acct, err := h.InviteService.Issue(ctx, service.IssueRequest{
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		Org:          domain.OrgRef{Kind: kind, ID: req.OrgID},
		InviterID:    inviterID,
		InviterName:  httpx.UserNameFromCtx(ctx),
		LinkTemplate: h.LinkTemplate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, inviteIssueResponse{
		AccountID: acct.ID,
		Email:     acct.Email,
		Status:    string(acct.Status),
		ExpiresAt: acct.InviteTokenExpiry.UTC().Format(time.RFC3339),
	})
}
