package mail

import (
	"context"

	"github.com/fieldgate/provision/pkg/slogx"
)

// LogDispatcher writes invitations to the log instead of sending them.
// Default outside prod so local runs don't need an SMTP relay.
type LogDispatcher struct{}

func (LogDispatcher) Send(ctx context.Context, inv Invitation) error {
	slogx.FromContext(ctx).Info("invitation email (log dispatcher)",
		"recipient", inv.RecipientEmail,
		"org", inv.OrgName,
		"inviter", inv.InviterName,
		"link", inv.AcceptanceLink,
	)
	return nil
}
