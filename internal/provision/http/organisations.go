package http

import (
	"encoding/json"
	"net/http"

	"github.com/fieldgate/provision/internal/provision/domain"
	"github.com/fieldgate/provision/internal/provision/service"
	"github.com/fieldgate/provision/pkg/httpx"
)

type OrganisationsHandler struct {
	OrganisationService *service.OrganisationService
}

type organisationCreateRequest struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

type organisationResponse struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Name string `json:"name"`
}

func organisationToResponse(org domain.Organisation) organisationResponse {
	return organisationResponse{
		ID:   org.ID,
		Kind: string(org.Kind),
		Name: org.Name,
	}
}

func (h *OrganisationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req organisationCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	org, err := h.OrganisationService.Create(r.Context(), domain.OrgKind(req.Kind), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, organisationToResponse(org))
}

func (h *OrganisationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.OrganisationService.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]organisationResponse, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, organisationToResponse(org))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
