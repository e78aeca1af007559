package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/fieldgate/provision/internal/provision/domain"
	"github.com/fieldgate/provision/internal/provision/service"
	"github.com/stretchr/testify/require"
)

func TestOrganisationServiceCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := &service.OrganisationService{
		Store: f.store,
		Now:   func() time.Time { return f.clock },
	}

	org, err := svc.Create(ctx, domain.OrgKindAgency, "Westgate Surveys")
	require.NoError(t, err)
	require.NotEmpty(t, org.ID)
	require.Equal(t, domain.OrgKindAgency, org.Kind)

	got, err := svc.GetByID(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, "Westgate Surveys", got.Name)

	_, err = svc.Create(ctx, domain.OrgKind("franchise"), "Bad Kind")
	require.ErrorIs(t, err, service.ErrInvalidRequest)
	_, err = svc.Create(ctx, domain.OrgKindOwner, "")
	require.ErrorIs(t, err, service.ErrInvalidRequest)

	_, err = svc.GetByID(ctx, "missing")
	require.ErrorIs(t, err, service.ErrOrganisationNotFound)

	orgs, err := svc.List(ctx)
	require.NoError(t, err)
	// Two seeded by the fixture plus the one created here.
	require.Len(t, orgs, 3)
}
