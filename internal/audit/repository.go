package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the audit trail. Rows are written by the logger in the
// shared package; this side never mutates.
type Repository interface {
	Timeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]TimelineRow, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Timeline(ctx context.Context, f TimelineFilters, limit, offset int) ([]TimelineRow, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT occurred_at, actor_id, action, entity, entity_id, meta FROM audit_logs WHERE 1=1`)
	var args []any
	appendFilter := func(clause string, value any) {
		args = append(args, value)
		fmt.Fprintf(&sb, clause, len(args))
	}
	if !f.From.IsZero() {
		appendFilter(" AND occurred_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		appendFilter(" AND occurred_at <= $%d", f.To)
	}
	if f.ActorID != 0 {
		appendFilter(" AND actor_id = $%d", f.ActorID)
	}
	if f.Entity != "" {
		appendFilter(" AND entity = $%d", f.Entity)
	}
	if f.Action != "" {
		appendFilter(" AND action = $%d", f.Action)
	}
	args = append(args, limit, offset)
	fmt.Fprintf(&sb, " ORDER BY occurred_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		var meta []byte
		if err := rows.Scan(&row.At, &row.ActorID, &row.Action, &row.Entity, &row.EntityID, &meta); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &row.Meta)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
