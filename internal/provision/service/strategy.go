package service

import (
	"fmt"

	"github.com/fieldgate/provision/internal/provision/domain"
	"github.com/fieldgate/provision/internal/provision/mail"
)

// OrgStrategy captures the behaviour that differs between organisation
// kinds. The caller selects one per request; the invite service never
// branches on the kind itself.
type OrgStrategy interface {
	Kind() domain.OrgKind

	// InvitedByOther reports whether an existing pending account counts as
	// invited by someone else relative to this request. Used by conflict
	// classification to split "already invited" from "already exists".
	InvitedByOther(existing domain.Account, req IssueRequest) bool

	// Invitation builds the email for this organisation kind.
	Invitation(req IssueRequest, orgName, link string) mail.Invitation
}

// DefaultStrategies returns the strategy per organisation kind.
func DefaultStrategies() map[domain.OrgKind]OrgStrategy {
	return map[domain.OrgKind]OrgStrategy{
		domain.OrgKindOwner:  ownerOrgStrategy{},
		domain.OrgKindAgency: agencyStrategy{},
	}
}

// ownerOrgStrategy: accounts belong to the owner organisation as a whole.
// Any colleague within the same organisation may have issued the pending
// invitation without it counting as foreign.
type ownerOrgStrategy struct{}

func (ownerOrgStrategy) Kind() domain.OrgKind { return domain.OrgKindOwner }

func (ownerOrgStrategy) InvitedByOther(existing domain.Account, req IssueRequest) bool {
	return !existing.Org.Equal(req.Org)
}

func (ownerOrgStrategy) Invitation(req IssueRequest, orgName, link string) mail.Invitation {
	return mail.Invitation{
		RecipientEmail: req.Email,
		RecipientName:  req.DisplayName,
		AcceptanceLink: link,
		InviterName:    req.InviterName,
		OrgName:        orgName,
		Subject:        fmt.Sprintf("Invitation to join %s", orgName),
	}
}

// agencyStrategy: agency invitations are personal to the inviting user, so
// a pending invitation from a different inviter is foreign even within the
// same agency.
type agencyStrategy struct{}

func (agencyStrategy) Kind() domain.OrgKind { return domain.OrgKindAgency }

func (agencyStrategy) InvitedByOther(existing domain.Account, req IssueRequest) bool {
	return !existing.Org.Equal(req.Org) || existing.InvitedBy != req.InviterID
}

func (agencyStrategy) Invitation(req IssueRequest, orgName, link string) mail.Invitation {
	return mail.Invitation{
		RecipientEmail: req.Email,
		RecipientName:  req.DisplayName,
		AcceptanceLink: link,
		InviterName:    req.InviterName,
		OrgName:        orgName,
		Subject:        fmt.Sprintf("%s has invited you to work with %s", req.InviterName, orgName),
	}
}
