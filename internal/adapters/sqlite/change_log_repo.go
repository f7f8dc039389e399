package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/formbuilder/internal/ctxutil"
	"github.com/example/formbuilder/internal/ports/secondary"
)

// ChangeLogRepository implements secondary.ChangeLog with SQLite.
type ChangeLogRepository struct {
	db *sql.DB
}

// NewChangeLogRepository creates a new SQLite change log repository.
func NewChangeLogRepository(db *sql.DB) *ChangeLogRepository {
	return &ChangeLogRepository{db: db}
}

// Record persists a new change log entry. A missing id is generated and a missing
// actor is taken from the context.
func (r *ChangeLogRepository) Record(ctx context.Context, entry *secondary.ChangeRecord) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ActorID == "" {
		entry.ActorID = ctxutil.EditorFromContext(ctx)
	}

	var actorID, detail sql.NullString
	if entry.ActorID != "" {
		actorID = sql.NullString{String: entry.ActorID, Valid: true}
	}
	if entry.Detail != "" {
		detail = sql.NullString{String: entry.Detail, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO change_log (id, actor_id, workspace, action, target, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		actorID,
		entry.Workspace,
		entry.Action,
		entry.Target,
		detail,
	)
	if err != nil {
		return fmt.Errorf("failed to record change: %w", err)
	}

	return nil
}

// List retrieves change log entries, newest first.
func (r *ChangeLogRepository) List(ctx context.Context, filters secondary.ChangeFilters) ([]*secondary.ChangeRecord, error) {
	query := "SELECT id, actor_id, workspace, action, target, detail, created_at FROM change_log WHERE 1=1"
	var args []any

	if filters.Workspace != "" {
		query += " AND workspace = ?"
		args = append(args, filters.Workspace)
	}
	if filters.Subtree != "" {
		root := strings.TrimSuffix(filters.Subtree, "/")
		query += " AND (target = ? OR substr(target, 1, length(?)) = ?)"
		args = append(args, root, root+"/", root+"/")
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list changes: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.ChangeRecord
	for rows.Next() {
		var (
			actorID   sql.NullString
			detail    sql.NullString
			createdAt time.Time
		)

		record := &secondary.ChangeRecord{}
		if err := rows.Scan(&record.ID, &actorID, &record.Workspace, &record.Action, &record.Target, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}

		record.ActorID = actorID.String
		record.Detail = detail.String
		record.CreatedAt = createdAt.Format(time.RFC3339)

		entries = append(entries, record)
	}

	return entries, rows.Err()
}

// Ensure ChangeLogRepository implements the interface
var _ secondary.ChangeLog = (*ChangeLogRepository)(nil)
