package domain

import (
	"crypto/subtle"
	"strings"
	"time"
)

// AccountStatus is the lifecycle state of an external-user account.
type AccountStatus string

const (
	// StatusInvited means the account exists only as a pending invitation.
	StatusInvited AccountStatus = "invited"
	// StatusActive means the invitation was accepted and registration completed.
	StatusActive AccountStatus = "active"
	// StatusDeactivated means an administrator disabled the account.
	StatusDeactivated AccountStatus = "deactivated"
)

// Account is one external-user identity bound to exactly one organisational
// entity. Email is globally unique; uniqueness is enforced by the storage
// layer, never assumed optimistically by callers.
type Account struct {
	ID          string
	Email       string
	DisplayName string
	Status      AccountStatus

	// InviteToken and InviteTokenExpiry are set together and cleared
	// together. Both are non-nil while Status is invited and nil once the
	// account activates.
	InviteToken       *string
	InviteTokenExpiry *time.Time

	// Org is immutable once set.
	Org       OrgRef
	InvitedBy string

	// PasswordHash is an Argon2id PHC string, set on registration completion.
	PasswordHash string

	CreatedAt   time.Time
	LastChanged time.Time
}

// NormalizeEmail lower-cases and trims an email address. All storage and
// lookups go through this so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// VerifyInviteToken reports whether the presented token currently redeems
// this account. Valid iff the account is still invited, the token matches
// verbatim and now is strictly before expiry. Pure function of its inputs;
// the caller supplies the clock.
func (a Account) VerifyInviteToken(presented string, now time.Time) bool {
	if a.Status != StatusInvited {
		return false
	}
	if a.InviteToken == nil || a.InviteTokenExpiry == nil || presented == "" {
		return false
	}
	// Expiry is exclusive: a token presented exactly at expiry is stale.
	if !now.Before(*a.InviteTokenExpiry) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*a.InviteToken), []byte(presented)) == 1
}

// Invited reports whether the account is still a pending invitation.
func (a Account) Invited() bool { return a.Status == StatusInvited }
