package domain

import (
	"errors"
	"time"
)

// OrgKind distinguishes the two organisational entities external users can
// be provisioned into.
type OrgKind string

const (
	OrgKindOwner  OrgKind = "owner_org"
	OrgKindAgency OrgKind = "agency"
)

// ErrUnknownOrgKind reports an organisation kind outside the known set.
var ErrUnknownOrgKind = errors.New("domain: unknown organisation kind")

// ParseOrgKind validates and converts a wire-level kind string.
func ParseOrgKind(s string) (OrgKind, error) {
	switch OrgKind(s) {
	case OrgKindOwner, OrgKindAgency:
		return OrgKind(s), nil
	}
	return "", ErrUnknownOrgKind
}

// OrgRef identifies the organisational entity that owns an account.
type OrgRef struct {
	Kind OrgKind
	ID   string
}

// Equal reports whether two refs point at the same organisational entity.
func (r OrgRef) Equal(other OrgRef) bool {
	return r.Kind == other.Kind && r.ID == other.ID
}

// Organisation is an owner organisation or agency that external users are
// invited into.
type Organisation struct {
	ID        string
	Kind      OrgKind
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
