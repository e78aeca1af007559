package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fieldgate/provision/internal/provision/audit"
	"github.com/fieldgate/provision/internal/provision/domain"
	"github.com/fieldgate/provision/internal/provision/mail"
	"github.com/fieldgate/provision/internal/provision/service"
	"github.com/fieldgate/provision/internal/provision/store/drivers/sqlite"
	"github.com/fieldgate/provision/pkg/idx"
	"github.com/stretchr/testify/require"
)

type mailerRecorder struct {
	mu   sync.Mutex
	sent []mail.Invitation
	err  error
}

func (m *mailerRecorder) Send(ctx context.Context, inv mail.Invitation) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, inv)
	return nil
}

type auditRecorder struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (a *auditRecorder) Publish(ctx context.Context, ev audit.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	return a.err
}

type fixture struct {
	store  *sqlite.Store
	mailer *mailerRecorder
	audit  *auditRecorder
	svc    *service.InviteService

	ownerOrg domain.Organisation
	agency   domain.Organisation

	// clock is the pinned time returned by the service's injected Now.
	clock time.Time
}

const (
	window       = 7 * 24 * time.Hour
	linkTemplate = "https://portal.example.org/register"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	f := &fixture{
		store:  st,
		mailer: &mailerRecorder{},
		audit:  &auditRecorder{},
		clock:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = &service.InviteService{
		Store:        st,
		Mailer:       f.mailer,
		Audit:        f.audit,
		Strategies:   service.DefaultStrategies(),
		ExpiryWindow: window,
		Now:          func() time.Time { return f.clock },
	}

	ctx := context.Background()
	f.ownerOrg = f.seedOrg(t, ctx, domain.OrgKindOwner, "Northside Water")
	f.agency = f.seedOrg(t, ctx, domain.OrgKindAgency, "Eastfield Surveys")
	return f
}

func (f *fixture) seedOrg(t *testing.T, ctx context.Context, kind domain.OrgKind, name string) domain.Organisation {
	t.Helper()

	now := f.clock
	org := domain.Organisation{
		ID:        idx.New().String(),
		Kind:      kind,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.store.Organisations().CreateOrganisation(ctx, org))
	return org
}

func (f *fixture) issueRequest(email string, org domain.Organisation) service.IssueRequest {
	return service.IssueRequest{
		Email:        email,
		DisplayName:  "Alice Example",
		Org:          domain.OrgRef{Kind: org.Kind, ID: org.ID},
		InviterID:    "inviter-1",
		InviterName:  "Pat Inviter",
		LinkTemplate: linkTemplate,
	}
}

func TestIssueCreatesInvitedAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	acct, err := f.svc.Issue(ctx, f.issueRequest("Alice@Example.ORG", f.ownerOrg))
	require.NoError(t, err)

	require.Equal(t, "alice@example.org", acct.Email)
	require.Equal(t, domain.StatusInvited, acct.Status)
	require.NotNil(t, acct.InviteToken)
	require.NotEmpty(t, *acct.InviteToken)
	require.NotNil(t, acct.InviteTokenExpiry)
	require.Equal(t, f.clock.Add(window), *acct.InviteTokenExpiry)

	// Persisted state matches what was returned.
	stored, err := f.store.Accounts().GetAccountByEmail(ctx, "alice@example.org")
	require.NoError(t, err)
	require.Equal(t, acct.ID, stored.ID)
	require.Equal(t, *acct.InviteToken, *stored.InviteToken)

	// One invitation email with the token-bearing acceptance link.
	require.Len(t, f.mailer.sent, 1)
	inv := f.mailer.sent[0]
	require.Equal(t, "alice@example.org", inv.RecipientEmail)
	require.Equal(t, "Northside Water", inv.OrgName)
	require.Equal(t,
		mail.AcceptanceLink(linkTemplate, "alice@example.org", *acct.InviteToken),
		inv.AcceptanceLink,
	)
}

func TestIssueAuditsEveryAttemptExactlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Success
	acct, err := f.svc.Issue(ctx, f.issueRequest("alice@example.org", f.ownerOrg))
	require.NoError(t, err)
	require.Len(t, f.audit.events, 1)
	ev := f.audit.events[0]
	require.Equal(t, audit.EventInvitationIssued, ev.Name)
	require.Equal(t, "success", ev.Payload["outcome"])
	require.NotEmpty(t, ev.Payload["token_fingerprint"])
	require.NotContains(t, ev.Payload, "token")
	require.NotEqual(t, *acct.InviteToken, ev.Payload["token_fingerprint"])

	// Validation failure still audits, without touching the mailer.
	_, err = f.svc.Issue(ctx, service.IssueRequest{})
	require.ErrorIs(t, err, service.ErrInvalidRequest)
	require.Len(t, f.audit.events, 2)
	require.Equal(t, audit.EventInvitationFailed, f.audit.events[1].Name)
	require.Equal(t, "invalid_request", f.audit.events[1].Payload["outcome"])
	require.Len(t, f.mailer.sent, 1)
}

func TestIssueAuditFailureDoesNotChangeOutcome(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.audit.err = errors.New("audit sink unavailable")

	acct, err := f.svc.Issue(ctx, f.issueRequest("alice@example.org", f.ownerOrg))
	require.NoError(t, err)
	require.Equal(t, domain.StatusInvited, acct.Status)
}

func TestIssueRejectsUnknownOrganisation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := f.issueRequest("alice@example.org", f.ownerOrg)
	req.Org.ID = idx.New().String()
	_, err := f.svc.Issue(ctx, req)
	require.ErrorIs(t, err, service.ErrInvalidRequest)

	// Kind mismatch between request and stored organisation.
	req = f.issueRequest("alice@example.org", f.ownerOrg)
	req.Org.Kind = domain.OrgKindAgency
	_, err = f.svc.Issue(ctx, req)
	require.ErrorIs(t, err, service.ErrInvalidRequest)
}

func TestIssueClassifiesPendingCollisionSameOrg(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Issue(ctx, f.issueRequest("bob@example.org", f.ownerOrg))
	require.NoError(t, err)

	// Same organisation, different colleague: still "already invited".
	second := f.issueRequest("bob@example.org", f.ownerOrg)
	second.InviterID = "inviter-2"
	_, err = f.svc.Issue(ctx, second)
	require.ErrorIs(t, err, service.ErrUserAlreadyInvited)
}

func TestIssueClassifiesPendingCollisionOtherOrg(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Issue(ctx, f.issueRequest("bob@example.org", f.ownerOrg))
	require.NoError(t, err)

	otherOwner := f.seedOrg(t, ctx, domain.OrgKindOwner, "Southside Power")
	_, err = f.svc.Issue(ctx, f.issueRequest("bob@example.org", otherOwner))
	require.ErrorIs(t, err, service.ErrUserAlreadyExists)
}

func TestIssueClassifiesActiveCollision(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	acct, err := f.svc.Issue(ctx, f.issueRequest("carol@example.org", f.ownerOrg))
	require.NoError(t, err)

	_, err = f.svc.CompleteRegistration(ctx, acct.Email, *acct.InviteToken, "S3cret-password")
	require.NoError(t, err)

	_, err = f.svc.Issue(ctx, f.issueRequest("carol@example.org", f.ownerOrg))
	require.ErrorIs(t, err, service.ErrUserAlreadyExists)
}

func TestAgencyInvitationsArePerInviter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.issueRequest("dan@example.org", f.agency)
	_, err := f.svc.Issue(ctx, first)
	require.NoError(t, err)

	// Same agency, same inviter: pending.
	_, err = f.svc.Issue(ctx, first)
	require.ErrorIs(t, err, service.ErrUserAlreadyInvited)

	// Same agency, different inviter: foreign invitation.
	other := first
	other.InviterID = "inviter-2"
	_, err = f.svc.Issue(ctx, other)
	require.ErrorIs(t, err, service.ErrUserAlreadyExists)
}

func TestIssueReportsEmailFailureButKeepsAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mailer.err = errors.New("smtp relay down")

	_, err := f.svc.Issue(ctx, f.issueRequest("erin@example.org", f.ownerOrg))
	require.ErrorIs(t, err, service.ErrEmailSendingFailed)

	// Compensating report: the account stays persisted and recoverable.
	stored, err := f.store.Accounts().GetAccountByEmail(ctx, "erin@example.org")
	require.NoError(t, err)
	require.Equal(t, domain.StatusInvited, stored.Status)
	require.NotNil(t, stored.InviteToken)

	require.Len(t, f.audit.events, 1)
	require.Equal(t, "email_sending_failed", f.audit.events[0].Payload["outcome"])
	require.NotEmpty(t, f.audit.events[0].Payload["token_fingerprint"])

	// A resend recovers the flow.
	f.mailer.err = nil
	acct, err := f.svc.Reinvite(ctx, "erin@example.org", linkTemplate)
	require.NoError(t, err)
	require.NotEqual(t, *stored.InviteToken, *acct.InviteToken)
}

func TestConcurrentIssueForSameEmailHasOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.svc.Issue(ctx, f.issueRequest("race@example.org", f.ownerOrg))
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrUserAlreadyInvited), errors.Is(err, service.ErrUserAlreadyExists):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, 1, conflicts)
}
