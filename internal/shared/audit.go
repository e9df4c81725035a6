package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// AuditLog represents a record stored in audit_logs. Every posting and
// reversal leaves one, preserving the trail the ledger itself cannot carry.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// Execer is the write surface the logger needs. Both pgxpool.Pool and
// pgx.Tx satisfy it, so audit records can ride the posting transaction.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	db Execer
}

// NewAuditLogger returns a new AuditLogger over the given pool or open
// transaction.
func NewAuditLogger(db Execer) *AuditLogger {
	return &AuditLogger{db: db}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var occurredAt any
	if !log.At.IsZero() {
		occurredAt = log.At
	}
	_, err = l.db.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, log.ActorID, log.Action, log.Entity, log.EntityID, metaJSON, occurredAt)
	return err
}
