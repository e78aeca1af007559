// Package audit records provisioning events for compliance. Publication is
// fire-and-forget from the caller's perspective: a failed publish is logged
// by the caller and never changes the outcome of the operation it describes.
package audit

import (
	"context"
	"time"

	"github.com/fieldgate/provision/internal/provision/domain"
	"github.com/fieldgate/provision/internal/provision/store"
	"github.com/fieldgate/provision/pkg/idx"
)

// Event names for provisioning operations.
const (
	EventInvitationIssued = "invitation.issued"
	EventInvitationFailed = "invitation.failed"
)

// Event is one record of a provisioning attempt or outcome.
type Event struct {
	Name    string
	OrgID   string
	ActorID string
	Payload map[string]string
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// StorePublisher persists audit events to the audit_events table.
type StorePublisher struct {
	Store store.Store

	// Now is the injected clock; defaults to time.Now when nil.
	Now func() time.Time
}

func (p *StorePublisher) Publish(ctx context.Context, ev Event) error {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	return p.Store.AuditEvents().CreateAuditEvent(ctx, domain.AuditEvent{
		ID:        idx.New().String(),
		Name:      ev.Name,
		OrgID:     ev.OrgID,
		ActorID:   ev.ActorID,
		Payload:   ev.Payload,
		CreatedAt: now().UTC(),
	})
}

// Nop discards events. Useful in tests that don't assert on auditing.
type Nop struct{}

func (Nop) Publish(ctx context.Context, ev Event) error { return nil }
