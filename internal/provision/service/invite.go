package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fieldgate/provision/internal/provision/audit"
	"github.com/fieldgate/provision/internal/provision/domain"
	"github.com/fieldgate/provision/internal/provision/mail"
	"github.com/fieldgate/provision/internal/provision/store"
	"github.com/fieldgate/provision/pkg/cryptox"
	"github.com/fieldgate/provision/pkg/idx"
	"github.com/fieldgate/provision/pkg/slogx"
)

// DefaultExpiryWindow is the invite-link lifetime used when none is
// configured.
const DefaultExpiryWindow = 7 * 24 * time.Hour

// IssueRequest carries everything needed to invite one external user.
type IssueRequest struct {
	Email       string
	DisplayName string
	Org         domain.OrgRef
	InviterID   string
	InviterName string

	// LinkTemplate is the base acceptance-link URL the token and email are
	// appended to.
	LinkTemplate string
}

// InviteService orchestrates invitation issuance, re-invitation and token
// redemption checks.
type InviteService struct {
	Store      store.Store
	Mailer     mail.Dispatcher
	Audit      audit.Publisher
	Strategies map[domain.OrgKind]OrgStrategy

	// ExpiryWindow is how long issued tokens stay redeemable. Zero means
	// DefaultExpiryWindow.
	ExpiryWindow time.Duration

	// Now is the injected clock; defaults to time.Now so tests can pin it.
	Now func() time.Time
}

func (s *InviteService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *InviteService) window() time.Duration {
	if s.ExpiryWindow > 0 {
		return s.ExpiryWindow
	}
	return DefaultExpiryWindow
}

func (s *InviteService) strategy(kind domain.OrgKind) (OrgStrategy, bool) {
	strat, ok := s.Strategies[kind]
	return strat, ok
}

// Issue creates a new account in invited status, persists it, and sends the
// invitation email. Exactly one audit record is published per attempt,
// whatever the outcome; audit failures never change the result.
func (s *InviteService) Issue(ctx context.Context, req IssueRequest) (domain.Account, error) {
	acct, err := s.issue(ctx, req)
	s.auditIssue(ctx, req, acct, err)
	if err != nil {
		return domain.Account{}, err
	}
	return acct, nil
}

func (s *InviteService) issue(ctx context.Context, req IssueRequest) (domain.Account, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input before any I/O.
	req.Email = domain.NormalizeEmail(req.Email)
	if req.Email == "" || req.DisplayName == "" || req.Org.ID == "" ||
		req.InviterID == "" || req.LinkTemplate == "" {
		log.Warn("invitation request missing required fields")
		return domain.Account{}, ErrInvalidRequest
	}
	strat, ok := s.strategy(req.Org.Kind)
	if !ok {
		log.Warn("invitation request for unknown organisation kind",
			slog.String("org_kind", string(req.Org.Kind)),
		)
		return domain.Account{}, ErrInvalidRequest
	}

	// 2. The organisation must exist and match the requested kind.
	org, err := s.Store.Organisations().GetOrganisationByID(ctx, req.Org.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("invitation request for unknown organisation",
				slog.String("org_id", req.Org.ID),
			)
			return domain.Account{}, ErrInvalidRequest
		}
		log.Error("failed to fetch organisation", slog.Any("error", err))
		return domain.Account{}, ErrOperationFailed
	}
	if org.Kind != req.Org.Kind {
		log.Warn("invitation request organisation kind mismatch",
			slog.String("org_id", org.ID),
			slog.String("org_kind", string(org.Kind)),
			slog.String("requested_kind", string(req.Org.Kind)),
		)
		return domain.Account{}, ErrInvalidRequest
	}

	// 3. Build the invited account with a fresh token and expiry.
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		log.Error("failed to generate invite token", slog.Any("error", err))
		return domain.Account{}, ErrOperationFailed
	}
	now := s.now()
	expiry := now.Add(s.window())

	acct := domain.Account{
		ID:                idx.New().String(),
		Email:             req.Email,
		DisplayName:       req.DisplayName,
		Status:            domain.StatusInvited,
		InviteToken:       &token,
		InviteTokenExpiry: &expiry,
		Org:               req.Org,
		InvitedBy:         req.InviterID,
		CreatedAt:         now,
		LastChanged:       now,
	}

	// 4. Persist. A uniqueness violation means the email already has an
	// account; classify it instead of surfacing the raw conflict. The
	// failed insert is rolled back, so nothing partial is ever visible.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Accounts().CreateAccount(ctx, acct)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, s.classifyConflict(ctx, strat, req)
		}
		log.Error("failed to persist invited account",
			slog.String("email", req.Email),
			slog.Any("error", err),
		)
		return domain.Account{}, ErrOperationFailed
	}

	// 5. Dispatch the invitation email. On failure the account stays
	// persisted in invited status; report the failure so the caller can
	// resend, but do not roll back.
	link := mail.AcceptanceLink(req.LinkTemplate, acct.Email, token)
	if err := s.Mailer.Send(ctx, strat.Invitation(req, org.Name, link)); err != nil {
		log.Warn("invitation email dispatch failed",
			slog.String("email", req.Email),
			slog.Any("error", err),
		)
		return acct, ErrEmailSendingFailed
	}

	log.Info("invitation issued",
		slog.String("account_id", acct.ID),
		slog.String("org_id", req.Org.ID),
		slog.String("org_kind", string(req.Org.Kind)),
		slog.Time("expires_at", expiry),
	)
	return acct, nil
}

// classifyConflict turns a uniqueness violation into an actionable error by
// re-reading the colliding account. A raw conflict is not enough: callers
// need to distinguish "someone already has this identity" from "an
// invitation is already pending".
func (s *InviteService) classifyConflict(
	ctx context.Context,
	strat OrgStrategy,
	req IssueRequest,
) error {
	log := slogx.FromContext(ctx)

	existing, err := s.Store.Accounts().GetAccountByEmail(ctx, req.Email)
	if err != nil {
		// Raced with a delete or the read itself failed; nothing more
		// specific can be said.
		log.Error("failed to re-read colliding account",
			slog.String("email", req.Email),
			slog.Any("error", err),
		)
		return ErrOperationFailed
	}

	if !existing.Invited() || strat.InvitedByOther(existing, req) {
		return ErrUserAlreadyExists
	}
	return ErrUserAlreadyInvited
}

// auditIssue publishes the single audit record for an issuance attempt.
// Publication failure is logged and swallowed.
func (s *InviteService) auditIssue(
	ctx context.Context,
	req IssueRequest,
	acct domain.Account,
	opErr error,
) {
	name := audit.EventInvitationIssued
	if opErr != nil {
		name = audit.EventInvitationFailed
	}

	payload := map[string]string{
		"email":    domain.NormalizeEmail(req.Email),
		"org_kind": string(req.Org.Kind),
		"outcome":  ErrorCode(opErr),
	}
	// Tokens never appear in audit records; fingerprints are enough to
	// correlate issuance with redemption.
	if acct.InviteToken != nil {
		payload["token_fingerprint"] = cryptox.FingerprintToken(*acct.InviteToken)
		payload["expires_at"] = acct.InviteTokenExpiry.UTC().Format(time.RFC3339)
	}

	err := s.Audit.Publish(ctx, audit.Event{
		Name:    name,
		OrgID:   req.Org.ID,
		ActorID: req.InviterID,
		Payload: payload,
	})
	if err != nil {
		slogx.FromContext(ctx).Warn("audit publish failed",
			slog.String("event", name),
			slog.Any("error", err),
		)
	}
}
