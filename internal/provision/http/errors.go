package http

import (
	"errors"
	"net/http"

	"github.com/fieldgate/provision/internal/provision/service"
	"github.com/fieldgate/provision/pkg/httpx"
)

// writeServiceError maps a service taxonomy error onto an HTTP status and
// the uniform error payload. Storage errors never surface verbatim; by the
// time an error reaches a handler it is already one of the sentinels.
func writeServiceError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrRegistrationNotFound),
		errors.Is(err, service.ErrOrganisationNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrInvitationInvalid):
		code = http.StatusGone
	case errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrUserAlreadyInvited),
		errors.Is(err, service.ErrStatusMismatch):
		code = http.StatusConflict
	case errors.Is(err, service.ErrEmailSendingFailed):
		code = http.StatusBadGateway
	}

	httpx.WriteError(w, code, service.ErrorCode(err), err.Error())
}
