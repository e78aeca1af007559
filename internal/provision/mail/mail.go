// Package mail defines the invitation email dispatcher contract. Rendering
// is deliberately minimal; the core only cares whether dispatch succeeded.
package mail

import (
	"context"
	"net/url"
)

// Invitation is everything a dispatcher needs to send one invitation email.
type Invitation struct {
	RecipientEmail string
	RecipientName  string
	AcceptanceLink string
	InviterName    string
	OrgName        string
	Subject        string
}

// Dispatcher sends invitation emails. Implementations own their transport
// and timeouts; any failure is reported back as an error.
type Dispatcher interface {
	Send(ctx context.Context, inv Invitation) error
}

// AcceptanceLink builds the invitation acceptance URL:
// {template}?email={urlencode(email)}&token={token}
func AcceptanceLink(template, email, token string) string {
	return template + "?email=" + url.QueryEscape(email) + "&token=" + url.QueryEscape(token)
}
