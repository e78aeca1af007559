package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/fieldgate/provision/internal/provision/domain"
	"github.com/fieldgate/provision/internal/provision/service"
	"github.com/fieldgate/provision/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestVerifyInvitedAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	acct, err := f.svc.Issue(ctx, f.issueRequest("alice@example.org", f.ownerOrg))
	require.NoError(t, err)
	token := *acct.InviteToken

	// Email casing is normalized before lookup.
	summary, err := f.svc.VerifyInvitedAccount(ctx, "Alice@Example.ORG", token)
	require.NoError(t, err)
	require.Equal(t, "alice@example.org", summary.Email)
	require.Equal(t, "Northside Water", summary.OrganisationName)
	require.Equal(t, token, summary.Token)
}

func TestVerifyInvitedAccountErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	acct, err := f.svc.Issue(ctx, f.issueRequest("alice@example.org", f.ownerOrg))
	require.NoError(t, err)
	token := *acct.InviteToken

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.svc.VerifyInvitedAccount(ctx, "nobody@example.org", token)
		require.ErrorIs(t, err, service.ErrRegistrationNotFound)
	})

	t.Run("wrong token", func(t *testing.T) {
		_, err := f.svc.VerifyInvitedAccount(ctx, "alice@example.org", "not-the-token")
		require.ErrorIs(t, err, service.ErrInvitationInvalid)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := f.svc.VerifyInvitedAccount(ctx, "alice@example.org", "")
		require.ErrorIs(t, err, service.ErrInvalidRequest)
	})

	t.Run("at expiry instant", func(t *testing.T) {
		f.clock = *acct.InviteTokenExpiry
		defer func() { f.clock = acct.CreatedAt }()

		_, err := f.svc.VerifyInvitedAccount(ctx, "alice@example.org", token)
		require.ErrorIs(t, err, service.ErrInvitationInvalid)
	})

	t.Run("just before expiry", func(t *testing.T) {
		f.clock = acct.InviteTokenExpiry.Add(-time.Second)
		defer func() { f.clock = acct.CreatedAt }()

		_, err := f.svc.VerifyInvitedAccount(ctx, "alice@example.org", token)
		require.NoError(t, err)
	})
}

func TestCompleteRegistration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	acct, err := f.svc.Issue(ctx, f.issueRequest("alice@example.org", f.ownerOrg))
	require.NoError(t, err)
	token := *acct.InviteToken

	f.clock = f.clock.Add(time.Hour)

	activated, err := f.svc.CompleteRegistration(ctx, "alice@example.org", token, "S3cret-password")
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, activated.Status)
	require.Nil(t, activated.InviteToken)
	require.Nil(t, activated.InviteTokenExpiry)
	require.NoError(t, cryptox.VerifyPassword("S3cret-password", activated.PasswordHash))

	stored, err := f.store.Accounts().GetAccountByEmail(ctx, "alice@example.org")
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, stored.Status)
	require.Nil(t, stored.InviteToken)
	require.Nil(t, stored.InviteTokenExpiry)
	require.Equal(t, activated.PasswordHash, stored.PasswordHash)

	// The token is dead once the account is active.
	_, err = f.svc.VerifyInvitedAccount(ctx, "alice@example.org", token)
	require.ErrorIs(t, err, service.ErrInvitationInvalid)
	_, err = f.svc.CompleteRegistration(ctx, "alice@example.org", token, "another-password")
	require.ErrorIs(t, err, service.ErrInvitationInvalid)
}

func TestCompleteRegistrationRequiresPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	acct, err := f.svc.Issue(ctx, f.issueRequest("alice@example.org", f.ownerOrg))
	require.NoError(t, err)

	_, err = f.svc.CompleteRegistration(ctx, "alice@example.org", *acct.InviteToken, "")
	require.ErrorIs(t, err, service.ErrInvalidRequest)

	stored, err := f.store.Accounts().GetAccountByEmail(ctx, "alice@example.org")
	require.NoError(t, err)
	require.Equal(t, domain.StatusInvited, stored.Status)
}

func TestCompleteRegistrationExpiredToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	acct, err := f.svc.Issue(ctx, f.issueRequest("alice@example.org", f.ownerOrg))
	require.NoError(t, err)

	f.clock = acct.InviteTokenExpiry.Add(time.Minute)

	_, err = f.svc.CompleteRegistration(ctx, "alice@example.org", *acct.InviteToken, "S3cret-password")
	require.ErrorIs(t, err, service.ErrInvitationInvalid)
}
