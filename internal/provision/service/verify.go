package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fieldgate/provision/internal/provision/domain"
	"github.com/fieldgate/provision/internal/provision/store"
	"github.com/fieldgate/provision/pkg/cryptox"
	"github.com/fieldgate/provision/pkg/slogx"
)

// InvitedSummary is what the account-completion flow needs once a token
// checks out.
type InvitedSummary struct {
	Email            string
	OrganisationName string
	Token            string
}

// VerifyInvitedAccount checks whether the presented token currently redeems
// the account for the given email. No side effects.
func (s *InviteService) VerifyInvitedAccount(
	ctx context.Context,
	email, token string,
) (InvitedSummary, error) {
	acct, org, err := s.lookupInvited(ctx, email, token)
	if err != nil {
		return InvitedSummary{}, err
	}

	return InvitedSummary{
		Email:            acct.Email,
		OrganisationName: org.Name,
		Token:            token,
	}, nil
}

// CompleteRegistration redeems a valid invitation: sets the password, flips
// the account to active, and clears token and expiry in one transaction. A
// token can never remain redeemable on an active account.
func (s *InviteService) CompleteRegistration(
	ctx context.Context,
	email, token, password string,
) (domain.Account, error) {
	log := slogx.FromContext(ctx)

	if password == "" {
		return domain.Account{}, ErrInvalidRequest
	}

	acct, _, err := s.lookupInvited(ctx, email, token)
	if err != nil {
		return domain.Account{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.Account{}, ErrOperationFailed
	}

	now := s.now()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Accounts().ActivateAccount(ctx, acct.ID, hash, now)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Lost a race with another activation; the token no longer
			// redeems anything.
			return domain.Account{}, ErrInvitationInvalid
		}
		log.Error("failed to activate account",
			slog.String("account_id", acct.ID),
			slog.Any("error", err),
		)
		return domain.Account{}, ErrOperationFailed
	}

	acct.Status = domain.StatusActive
	acct.PasswordHash = hash
	acct.InviteToken = nil
	acct.InviteTokenExpiry = nil
	acct.LastChanged = now

	log.Info("registration completed", slog.String("account_id", acct.ID))
	return acct, nil
}

// lookupInvited fetches the account and organisation behind an acceptance
// attempt and applies the token check.
func (s *InviteService) lookupInvited(
	ctx context.Context,
	email, token string,
) (domain.Account, domain.Organisation, error) {
	log := slogx.FromContext(ctx)

	email = domain.NormalizeEmail(email)
	if email == "" || token == "" {
		return domain.Account{}, domain.Organisation{}, ErrInvalidRequest
	}

	acct, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("acceptance attempt for unknown registration")
			return domain.Account{}, domain.Organisation{}, ErrRegistrationNotFound
		}
		log.Error("failed to fetch account", slog.Any("error", err))
		return domain.Account{}, domain.Organisation{}, ErrOperationFailed
	}

	if !acct.VerifyInviteToken(token, s.now()) {
		log.Warn("acceptance attempt with invalid token",
			slog.String("account_id", acct.ID),
		)
		return domain.Account{}, domain.Organisation{}, ErrInvitationInvalid
	}

	org, err := s.Store.Organisations().GetOrganisationByID(ctx, acct.Org.ID)
	if err != nil {
		log.Error("failed to fetch organisation", slog.Any("error", err))
		return domain.Account{}, domain.Organisation{}, ErrOperationFailed
	}

	return acct, org, nil
}
