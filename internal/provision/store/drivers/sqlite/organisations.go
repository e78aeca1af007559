package sqlite

import (
	"context"

	"github.com/fieldgate/provision/internal/provision/domain"
)

type organisationsRepo struct {
	db dbtx
}

func (r *organisationsRepo) CreateOrganisation(ctx context.Context, o domain.Organisation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organisations (id, kind, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		o.ID, string(o.Kind), o.Name, o.CreatedAt, o.UpdatedAt,
	)
	return mapConflict(err)
}

func (r *organisationsRepo) GetOrganisationByID(ctx context.Context, id string) (domain.Organisation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, kind, name, created_at, updated_at
		FROM organisations
		WHERE id = ?`,
		id,
	)

	var (
		o    domain.Organisation
		kind string
	)
	if err := row.Scan(&o.ID, &kind, &o.Name, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return domain.Organisation{}, mapNotFound(err)
	}
	o.Kind = domain.OrgKind(kind)
	return o, nil
}

func (r *organisationsRepo) ListOrganisations(ctx context.Context) ([]domain.Organisation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, name, created_at, updated_at
		FROM organisations
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Organisation
	for rows.Next() {
		var (
			o    domain.Organisation
			kind string
		)
		if err := rows.Scan(&o.ID, &kind, &o.Name, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Kind = domain.OrgKind(kind)
		out = append(out, o)
	}
	return out, rows.Err()
}
