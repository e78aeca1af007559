package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fieldgate/provision/internal/provision/domain"
	"github.com/fieldgate/provision/internal/provision/store"
)

type accountsRepo struct {
	db dbtx
}

const accountColumns = `id, email, display_name, status, invite_token, invite_token_expiry,
	org_kind, org_id, invited_by, password_hash, created_at, last_changed`

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Email,
		a.DisplayName,
		string(a.Status),
		mapOptionalString(a.InviteToken),
		mapOptionalTime(a.InviteTokenExpiry),
		string(a.Org.Kind),
		a.Org.ID,
		a.InvitedBy,
		a.PasswordHash,
		a.CreatedAt,
		a.LastChanged,
	)
	return mapConflict(err)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE email = ?`,
		email,
	)
	return scanAccount(row)
}

func (r *accountsRepo) RotateInvite(
	ctx context.Context,
	accountID, token string,
	expiry, lastChanged time.Time,
) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET invite_token = ?, invite_token_expiry = ?, last_changed = ?
		WHERE id = ? AND status = ?`,
		token, expiry, lastChanged, accountID, string(domain.StatusInvited),
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *accountsRepo) ActivateAccount(
	ctx context.Context,
	accountID, passwordHash string,
	lastChanged time.Time,
) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET status = ?, password_hash = ?, invite_token = NULL,
			invite_token_expiry = NULL, last_changed = ?
		WHERE id = ? AND status = ?`,
		string(domain.StatusActive), passwordHash, lastChanged,
		accountID, string(domain.StatusInvited),
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a           domain.Account
		status      string
		orgKind     string
		token       sql.NullString
		tokenExpiry sql.NullTime
	)

	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.DisplayName,
		&status,
		&token,
		&tokenExpiry,
		&orgKind,
		&a.Org.ID,
		&a.InvitedBy,
		&a.PasswordHash,
		&a.CreatedAt,
		&a.LastChanged,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	a.Status = domain.AccountStatus(status)
	a.Org.Kind = domain.OrgKind(orgKind)
	a.InviteToken = mapNullString(token)
	a.InviteTokenExpiry = mapNullTime(tokenExpiry)
	return a, nil
}
