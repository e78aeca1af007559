package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// SMTPDispatcher sends invitation emails through a plain SMTP relay.
type SMTPDispatcher struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

func (d *SMTPDispatcher) Send(ctx context.Context, inv Invitation) error {
	addr := net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	msg := buildMessage(d.From, inv)

	// net/smtp has no context support; run the send in a goroutine so a
	// cancelled caller is released promptly.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, d.auth(), d.From, []string{inv.RecipientEmail}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mail: smtp send failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *SMTPDispatcher) auth() smtp.Auth {
	if d.Username == "" {
		return nil
	}
	return smtp.PlainAuth("", d.Username, d.Password, d.Host)
}

func buildMessage(from string, inv Invitation) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", inv.RecipientEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", inv.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&b, "Hello %s,\r\n\r\n", inv.RecipientName)
	fmt.Fprintf(&b, "%s has invited you to join %s.\r\n\r\n", inv.InviterName, inv.OrgName)
	fmt.Fprintf(&b, "Complete your registration here:\r\n%s\r\n\r\n", inv.AcceptanceLink)
	b.WriteString("This link is valid for a limited time and can only be used once.\r\n")
	return []byte(b.String())
}
