package service

import "errors"

// Error taxonomy for provisioning operations. Storage errors are never
// surfaced verbatim; they are mapped into these at the service boundary.
var (
	// ErrInvalidRequest reports malformed or missing input. No I/O was
	// attempted.
	ErrInvalidRequest = errors.New("invalid provisioning request")

	// ErrAccountNotFound reports that no account exists for the email.
	ErrAccountNotFound = errors.New("account not found")

	// ErrOrganisationNotFound reports an unknown organisation id.
	ErrOrganisationNotFound = errors.New("organisation not found")

	// ErrRegistrationNotFound is the user-facing form of a missing account
	// during the acceptance flow.
	ErrRegistrationNotFound = errors.New("registration not found")

	// ErrInvitationInvalid reports a token that does not currently redeem
	// the account (stale, expired, or the account is no longer invited).
	ErrInvitationInvalid = errors.New("invitation token is not valid")

	// ErrUserAlreadyExists reports an email collision with an active
	// account, or one pending under a different organisation or inviter.
	ErrUserAlreadyExists = errors.New("a user with this email already exists")

	// ErrUserAlreadyInvited reports an email collision with an invitation
	// still pending under the same organisation.
	ErrUserAlreadyInvited = errors.New("an invitation for this email is already pending")

	// ErrEmailSendingFailed reports that the account was persisted but the
	// invitation email could not be dispatched. Compensating report, not a
	// rollback: the account stays recoverable via re-invitation.
	ErrEmailSendingFailed = errors.New("invitation email could not be sent")

	// ErrStatusMismatch reports a re-invitation of a non-invited account.
	ErrStatusMismatch = errors.New("account is not awaiting invitation acceptance")

	// ErrOperationFailed reports a persistence or infrastructure failure
	// with no more specific classification.
	ErrOperationFailed = errors.New("operation failed")
)

// ErrorCode returns the stable wire/audit code for a taxonomy error.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrOrganisationNotFound):
		return "organisation_not_found"
	case errors.Is(err, ErrRegistrationNotFound):
		return "registration_not_found"
	case errors.Is(err, ErrInvitationInvalid):
		return "invitation_invalid"
	case errors.Is(err, ErrUserAlreadyExists):
		return "user_already_exists"
	case errors.Is(err, ErrUserAlreadyInvited):
		return "user_already_invited"
	case errors.Is(err, ErrEmailSendingFailed):
		return "email_sending_failed"
	case errors.Is(err, ErrStatusMismatch):
		return "status_mismatch"
	default:
		return "operation_failed"
	}
}
