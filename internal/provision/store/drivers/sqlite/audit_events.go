package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fieldgate/provision/internal/provision/domain"
)

type auditEventsRepo struct {
	db dbtx
}

func (r *auditEventsRepo) CreateAuditEvent(ctx context.Context, ev domain.AuditEvent) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, name, org_id, actor_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Name, ev.OrgID, ev.ActorID, string(payload), ev.CreatedAt,
	)
	return err
}

func (r *auditEventsRepo) ListAuditEventsByOrg(
	ctx context.Context,
	orgID string,
	limit int,
) ([]domain.AuditEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, org_id, actor_id, payload, created_at
		FROM audit_events
		WHERE org_id = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		orgID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEvent
	for rows.Next() {
		var (
			ev      domain.AuditEvent
			payload string
		)
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.OrgID, &ev.ActorID, &payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if payload != "" {
			if err := json.Unmarshal([]byte(payload), &ev.Payload); err != nil {
				return nil, err
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *auditEventsRepo) DeleteAuditEventsBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM audit_events WHERE created_at < ?`, cutoff)
	return err
}
