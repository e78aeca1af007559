package domain

import "time"

// AuditEvent is one compliance record of a provisioning attempt or outcome.
// Payload values must never contain raw invite tokens; store fingerprints.
type AuditEvent struct {
	ID        string
	Name      string
	OrgID     string
	ActorID   string
	Payload   map[string]string
	CreatedAt time.Time
}
