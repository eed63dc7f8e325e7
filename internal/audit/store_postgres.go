package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	id "opsdash/pkg/domain"
)

// PostgresStore persists audit events in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore builds an audit store over an existing database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the audit DDL, applied by migrations and by integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id         UUID PRIMARY KEY,
	ts         TIMESTAMPTZ NOT NULL,
	user_id    UUID NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	action     TEXT NOT NULL,
	device     TEXT NOT NULL DEFAULT '',
	request_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_user_ts ON audit_events (user_id, ts DESC)`

// Append inserts one event. Duplicate IDs are ignored so redelivery from an
// at-least-once pipeline stays idempotent.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, ts, user_id, email, action, device, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		event.ID,
		event.Timestamp,
		event.UserID.String(),
		event.Email,
		string(event.Action),
		event.Device,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByUser returns the user's events, newest first, optionally filtered to
// a set of actions.
func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID, limit int, actions ...Action) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, ts, user_id, email, action, device, request_id
		FROM audit_events
		WHERE user_id = $1`
	args := []any{userID.String()}
	if len(actions) > 0 {
		names := make([]string, len(actions))
		for i, a := range actions {
			names[i] = string(a)
		}
		query += ` AND action = ANY($2)`
		args = append(args, pq.Array(names))
	}
	query += fmt.Sprintf(` ORDER BY ts DESC LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev     Event
			rawID  string
			action string
		)
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &rawID, &ev.Email, &action, &ev.Device, &ev.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		userID, err := id.ParseUserID(rawID)
		if err != nil {
			return nil, fmt.Errorf("audit user_id column: %w", err)
		}
		ev.UserID = userID
		ev.Action = Action(action)
		out = append(out, ev)
	}
	return out, rows.Err()
}
