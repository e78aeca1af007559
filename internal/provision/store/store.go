package store

import (
	"context"
	"errors"
	"time"

	"github.com/fieldgate/provision/internal/provision/domain"
)

var (
	ErrNotFound = errors.New("store: not found")
	// ErrAlreadyExists is how drivers surface a uniqueness violation.
	// Callers never pre-check uniqueness; they react to this error.
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. Sub-repositories keep concerns tidy and let tests target
// one table at a time.
type Store interface {
	Accounts() Accounts
	Organisations() Organisations
	AuditEvents() AuditEvents

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to run multi-step mutations: either the commit fully
	// succeeds or nothing is observably persisted.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// CreateAccount inserts a new account (id is provided by the app via
	// ULID). Returns ErrAlreadyExists when the email is already taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	// GetAccountByEmail returns the account for a normalized email.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// RotateInvite replaces the invite token and expiry of a pending
	// account and bumps last_changed.
	RotateInvite(ctx context.Context, accountID, token string, expiry, lastChanged time.Time) error

	// ActivateAccount flips the account to active, sets the password hash,
	// clears invite token and expiry, and bumps last_changed.
	ActivateAccount(ctx context.Context, accountID, passwordHash string, lastChanged time.Time) error
}

type Organisations interface {
	// CreateOrganisation inserts a new organisation (id is ULID).
	CreateOrganisation(ctx context.Context, o domain.Organisation) error

	// GetOrganisationByID fetches an organisation by its id.
	GetOrganisationByID(ctx context.Context, id string) (domain.Organisation, error)

	// ListOrganisations returns all organisations, newest first.
	ListOrganisations(ctx context.Context) ([]domain.Organisation, error)
}

type AuditEvents interface {
	// CreateAuditEvent appends one compliance record.
	CreateAuditEvent(ctx context.Context, ev domain.AuditEvent) error

	// ListAuditEventsByOrg returns up to limit events for an organisation,
	// newest first.
	ListAuditEventsByOrg(ctx context.Context, orgID string, limit int) ([]domain.AuditEvent, error)

	// DeleteAuditEventsBefore prunes events older than cutoff (housekeeping).
	DeleteAuditEventsBefore(ctx context.Context, cutoff time.Time) error
}
