package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fieldgate/provision/internal/provision/domain"
	"github.com/fieldgate/provision/internal/provision/store"
	"github.com/fieldgate/provision/pkg/idx"
	"github.com/fieldgate/provision/pkg/slogx"
)

// OrganisationService manages the organisational entities users are
// provisioned into.
type OrganisationService struct {
	Store store.Store

	Now func() time.Time
}

func (s *OrganisationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *OrganisationService) Create(
	ctx context.Context,
	kind domain.OrgKind,
	name string,
) (domain.Organisation, error) {
	log := slogx.FromContext(ctx)

	if name == "" {
		return domain.Organisation{}, ErrInvalidRequest
	}
	if _, err := domain.ParseOrgKind(string(kind)); err != nil {
		return domain.Organisation{}, ErrInvalidRequest
	}

	now := s.now()
	org := domain.Organisation{
		ID:        idx.New().String(),
		Kind:      kind,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.Organisations().CreateOrganisation(ctx, org); err != nil {
		log.Error("failed to create organisation", slog.Any("error", err))
		return domain.Organisation{}, ErrOperationFailed
	}

	log.Info("organisation created",
		slog.String("org_id", org.ID),
		slog.String("org_kind", string(org.Kind)),
	)
	return org, nil
}

func (s *OrganisationService) GetByID(ctx context.Context, id string) (domain.Organisation, error) {
	org, err := s.Store.Organisations().GetOrganisationByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Organisation{}, ErrOrganisationNotFound
		}
		return domain.Organisation{}, ErrOperationFailed
	}
	return org, nil
}

func (s *OrganisationService) List(ctx context.Context) ([]domain.Organisation, error) {
	orgs, err := s.Store.Organisations().ListOrganisations(ctx)
	if err != nil {
		return nil, ErrOperationFailed
	}
	return orgs, nil
}
