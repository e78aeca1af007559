package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/fieldgate/provision/internal/provision/domain"
	"github.com/fieldgate/provision/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestAuditEventsRoundTripAndPrune(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	old := domain.AuditEvent{
		ID:        idx.New().String(),
		Name:      "invitation.issued",
		OrgID:     "org-1",
		ActorID:   "actor-1",
		Payload:   map[string]string{"email": "alice@example.org", "outcome": "success"},
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
	recent := domain.AuditEvent{
		ID:        idx.New().String(),
		Name:      "invitation.failed",
		OrgID:     "org-1",
		ActorID:   "actor-2",
		Payload:   map[string]string{"outcome": "user_already_invited"},
		CreatedAt: time.Now().UTC(),
	}
	other := domain.AuditEvent{
		ID:        idx.New().String(),
		Name:      "invitation.issued",
		OrgID:     "org-2",
		ActorID:   "actor-3",
		CreatedAt: time.Now().UTC(),
	}

	for _, ev := range []domain.AuditEvent{old, recent, other} {
		require.NoError(t, st.AuditEvents().CreateAuditEvent(ctx, ev))
	}

	events, err := st.AuditEvents().ListAuditEventsByOrg(ctx, "org-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, recent.ID, events[0].ID) // newest first
	require.Equal(t, "user_already_invited", events[0].Payload["outcome"])

	require.NoError(t, st.AuditEvents().DeleteAuditEventsBefore(ctx, time.Now().UTC().Add(-24*time.Hour)))

	events, err = st.AuditEvents().ListAuditEventsByOrg(ctx, "org-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, recent.ID, events[0].ID)
}

func TestListOrganisationsNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	first := seedOrganisation(t, st, domain.OrgKindOwner, "Northside Water")
	time.Sleep(5 * time.Millisecond)
	second := seedOrganisation(t, st, domain.OrgKindAgency, "Road Agency")

	orgs, err := st.Organisations().ListOrganisations(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	require.Equal(t, second.ID, orgs[0].ID)
	require.Equal(t, first.ID, orgs[1].ID)
}
