package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fieldgate/provision/internal/provision/domain"
	"github.com/fieldgate/provision/internal/provision/mail"
	"github.com/fieldgate/provision/internal/provision/store"
	"github.com/fieldgate/provision/pkg/cryptox"
	"github.com/fieldgate/provision/pkg/slogx"
)

// Reinvite rotates the invite token and expiry of a pending account and
// re-dispatches the invitation email. Only invited accounts can be
// re-invited; no uniqueness conflict is possible on the update path.
func (s *InviteService) Reinvite(
	ctx context.Context,
	email, linkTemplate string,
) (domain.Account, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input.
	email = domain.NormalizeEmail(email)
	if email == "" || linkTemplate == "" {
		log.Warn("re-invitation request missing required fields")
		return domain.Account{}, ErrInvalidRequest
	}

	// 2. Look up the account.
	acct, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("re-invitation for unknown email")
			return domain.Account{}, ErrAccountNotFound
		}
		log.Error("failed to fetch account", slog.Any("error", err))
		return domain.Account{}, ErrOperationFailed
	}

	// 3. Re-invitation only applies to pending invitations. Active and
	// deactivated accounts are never mutated here.
	if !acct.Invited() {
		log.Warn("re-invitation for non-invited account",
			slog.String("account_id", acct.ID),
			slog.String("status", string(acct.Status)),
		)
		return domain.Account{}, ErrStatusMismatch
	}

	strat, ok := s.strategy(acct.Org.Kind)
	if !ok {
		log.Error("account has unknown organisation kind",
			slog.String("account_id", acct.ID),
			slog.String("org_kind", string(acct.Org.Kind)),
		)
		return domain.Account{}, ErrOperationFailed
	}

	org, err := s.Store.Organisations().GetOrganisationByID(ctx, acct.Org.ID)
	if err != nil {
		log.Error("failed to fetch organisation", slog.Any("error", err))
		return domain.Account{}, ErrOperationFailed
	}

	// 4. Rotate: fresh token, fresh expiry, bump last_changed.
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		log.Error("failed to generate invite token", slog.Any("error", err))
		return domain.Account{}, ErrOperationFailed
	}
	now := s.now()
	expiry := now.Add(s.window())

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Accounts().RotateInvite(ctx, acct.ID, token, expiry, now)
	})
	if err != nil {
		log.Error("failed to rotate invite",
			slog.String("account_id", acct.ID),
			slog.Any("error", err),
		)
		return domain.Account{}, ErrOperationFailed
	}

	acct.InviteToken = &token
	acct.InviteTokenExpiry = &expiry
	acct.LastChanged = now

	// 5. Re-dispatch the invitation with the new token. The rotation above
	// stands either way; a dispatch failure is reported so the caller can
	// try again.
	req := IssueRequest{
		Email:        acct.Email,
		DisplayName:  acct.DisplayName,
		Org:          acct.Org,
		InviterID:    acct.InvitedBy,
		InviterName:  org.Name,
		LinkTemplate: linkTemplate,
	}
	link := mail.AcceptanceLink(linkTemplate, acct.Email, token)
	if err := s.Mailer.Send(ctx, strat.Invitation(req, org.Name, link)); err != nil {
		log.Warn("re-invitation email dispatch failed",
			slog.String("account_id", acct.ID),
			slog.Any("error", err),
		)
		return domain.Account{}, ErrEmailSendingFailed
	}

	log.Info("invitation re-issued",
		slog.String("account_id", acct.ID),
		slog.Time("expires_at", expiry),
	)
	return acct, nil
}
